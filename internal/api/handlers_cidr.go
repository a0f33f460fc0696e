package api

import (
	"net/http"
	"strings"

	"github.com/cidrfence/cidrfence/internal/api/respond"
	"github.com/cidrfence/cidrfence/internal/model"
	"github.com/cidrfence/cidrfence/internal/query"
)

type cidrHandler struct {
	query *query.Engine
}

// queryFromRequest builds a model.CidrQuery from the shared list_type /
// list_id / tags parameters every /v1/cidr endpoint accepts. list_type is
// required; when list_id is set it takes precedence over tags, mirroring
// the reference CidrController.
func queryFromRequest(r *http.Request, uid string) (model.CidrQuery, bool) {
	listType := r.URL.Query().Get("list_type")
	if listType == "" {
		return model.CidrQuery{}, false
	}
	q := model.CidrQuery{
		UserID:   uid,
		ListType: model.ListType(listType),
		ListID:   r.URL.Query().Get("list_id"),
	}
	if q.ListID == "" {
		if tags := r.URL.Query().Get("tags"); tags != "" {
			q.Tags = strings.Split(tags, ",")
		}
	}
	return q, true
}

// Get GET /v1/cidr — raw CIDRs from enabled lists matching list_type and
// (list_id or tags).
func (h *cidrHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respond.WriteError(w, http.StatusUnauthorized, "missing credentials")
		return
	}
	q, ok := queryFromRequest(r, uid)
	if !ok {
		respond.WriteBadRequest(w, "list_type is required")
		return
	}
	rows, err := h.query.List(r.Context(), q)
	if err != nil {
		writeModelError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, rows)
}

// Collapsed GET /v1/cidr/collapsed — matching CIDRs merged into the minimal
// equivalent set across both IP versions.
func (h *cidrHandler) Collapsed(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respond.WriteError(w, http.StatusUnauthorized, "missing credentials")
		return
	}
	q, ok := queryFromRequest(r, uid)
	if !ok {
		respond.WriteBadRequest(w, "list_type is required")
		return
	}
	prefixes, err := h.query.Collapsed(r.Context(), q)
	if err != nil {
		writeModelError(w, err)
		return
	}
	out := make([]string, len(prefixes))
	for i, p := range prefixes {
		out[i] = p.String()
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// CollapsedByVersion GET /v1/cidr/collapsed/by-ip-version — matching CIDRs
// collapsed, split by IP version.
func (h *cidrHandler) CollapsedByVersion(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respond.WriteError(w, http.StatusUnauthorized, "missing credentials")
		return
	}
	q, ok := queryFromRequest(r, uid)
	if !ok {
		respond.WriteBadRequest(w, "list_type is required")
		return
	}
	out, err := h.query.CollapsedByVersion(r.Context(), q)
	if err != nil {
		writeModelError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}
