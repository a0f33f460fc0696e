package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cidrfence/cidrfence/internal/api/respond"
	"github.com/cidrfence/cidrfence/internal/api/validate"
	"github.com/cidrfence/cidrfence/internal/auth"
	"github.com/cidrfence/cidrfence/internal/model"
	"github.com/cidrfence/cidrfence/internal/store"
)

type authHandler struct {
	store  store.Store
	issuer *auth.Issuer
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Token POST /v1/auth/token — exchanges a login/password pair for a JWT,
// mirroring the reference AuthController.generate_token.
func (h *authHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON")
		return
	}

	user, err := h.store.Users().GetByLogin(r.Context(), req.Login)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteError(w, http.StatusUnauthorized, "invalid login or password")
			return
		}
		writeModelError(w, err)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		respond.WriteError(w, http.StatusUnauthorized, "invalid login or password")
		return
	}

	token, err := h.issuer.Issue(user.ID, user.Login, 0)
	if err != nil {
		writeModelError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, token)
}

type changePasswordRequest struct {
	Login       string `json:"login"`
	Password    string `json:"password"`
	NewPassword string `json:"new_password"`
}

// ChangePassword PUT /v1/auth/password — re-authenticates with the current
// password before accepting a new one, per the reference controller.
func (h *authHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON")
		return
	}
	if req.Password == req.NewPassword {
		respond.WriteBadRequest(w, "new password must be different")
		return
	}
	if err := validate.Password(req.NewPassword); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.store.Users().GetByLogin(r.Context(), req.Login)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteError(w, http.StatusUnauthorized, "invalid login or password")
			return
		}
		writeModelError(w, err)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		respond.WriteError(w, http.StatusUnauthorized, "invalid login or password")
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		writeModelError(w, err)
		return
	}
	if err := h.store.Users().UpdatePassword(r.Context(), req.Login, hash); err != nil {
		writeModelError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type signupRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Signup POST /v1/admin/signup — restricted to SUPERUSER callers, creates a
// new ordinary user account; 409 on login collision.
func (h *authHandler) Signup(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		respond.WriteError(w, http.StatusUnauthorized, "missing credentials")
		return
	}
	caller, err := h.store.Users().GetByLogin(r.Context(), claims.Login)
	if err != nil || caller.Role != model.UserRoleSuperuser {
		respond.WriteError(w, http.StatusForbidden, "superuser role required")
		return
	}

	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON")
		return
	}
	if err := validate.Login(req.Login); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.Password(req.Password); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeModelError(w, err)
		return
	}
	created, err := h.store.Users().Create(r.Context(), &model.User{
		Login:        req.Login,
		PasswordHash: hash,
		Role:         model.UserRoleUser,
	})
	if err != nil {
		writeModelError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, created)
}
