package api

import (
	"errors"
	"net/http"

	"github.com/cidrfence/cidrfence/internal/api/respond"
	"github.com/cidrfence/cidrfence/internal/model"
)

// writeModelError maps a sentinel model error to the appropriate HTTP
// status, mirroring the reference controllers' NotFoundException/
// HTTPException(409)/ValidationException mapping.
func writeModelError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		respond.WriteNotFound(w, err.Error())
	case errors.Is(err, model.ErrConflict):
		respond.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrTTLInvalid):
		respond.WriteBadRequest(w, err.Error())
	case errors.Is(err, model.ErrUnauthorized):
		respond.WriteError(w, http.StatusUnauthorized, err.Error())
	default:
		respond.WriteInternalError(w, err.Error())
	}
}
