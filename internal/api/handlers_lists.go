package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/cidrfence/cidrfence/internal/api/respond"
	"github.com/cidrfence/cidrfence/internal/api/validate"
	"github.com/cidrfence/cidrfence/internal/auth"
	"github.com/cidrfence/cidrfence/internal/cidrnet"
	"github.com/cidrfence/cidrfence/internal/model"
	"github.com/cidrfence/cidrfence/internal/store"
)

type listHandler struct {
	store store.Store
}

func userID(r *http.Request) (string, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		return "", false
	}
	return claims.Subject, true
}

// List GET /v1/list — every list owned by the caller.
func (h *listHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respond.WriteError(w, http.StatusUnauthorized, "missing credentials")
		return
	}
	var listType model.ListType
	if v := r.URL.Query().Get("list_type"); v != "" {
		listType = model.ListType(v)
	}
	lists, err := h.store.Lists().List(r.Context(), uid, listType)
	if err != nil {
		writeModelError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, lists)
}

type createListRequest struct {
	ID          string   `json:"id"`
	ListType    string   `json:"list_type"`
	Enabled     bool     `json:"enabled"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
}

// Create POST /v1/list — always tags the new row with "DEFAULT" alongside
// whatever tags the caller supplied.
func (h *listHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respond.WriteError(w, http.StatusUnauthorized, "missing credentials")
		return
	}
	var req createListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON")
		return
	}
	if err := validate.ListID(req.ID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.Description(req.Description); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	tags := withDefaultTag(req.Tags)
	if err := validate.Tags(tags); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	created, err := h.store.Lists().Create(r.Context(), &model.List{
		ID:          req.ID,
		UserID:      uid,
		Type:        model.ListType(req.ListType),
		Enabled:     req.Enabled,
		Tags:        tags,
		Description: req.Description,
	})
	if err != nil {
		writeModelError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, created)
}

func withDefaultTag(tags []string) []string {
	for _, t := range tags {
		if t == "DEFAULT" {
			return tags
		}
	}
	return append(append([]string{}, tags...), "DEFAULT")
}

// Get GET /v1/list/{id}
func (h *listHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respond.WriteError(w, http.StatusUnauthorized, "missing credentials")
		return
	}
	id := mux.Vars(r)["id"]
	l, err := h.store.Lists().Get(r.Context(), uid, id)
	if err != nil {
		writeModelError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, l)
}

type updateListRequest struct {
	Enabled     *bool     `json:"enabled"`
	Tags        *[]string `json:"tags"`
	Description *string   `json:"description"`
}

// Update PUT /v1/list/{id} — disabled-to-enabled SAFE-list transitions
// enqueue a DENY-list cleanup job, handled inside store.Lists().Update.
func (h *listHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respond.WriteError(w, http.StatusUnauthorized, "missing credentials")
		return
	}
	id := mux.Vars(r)["id"]

	var req updateListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON")
		return
	}
	patch := store.ListPatch{Enabled: req.Enabled, Description: req.Description}
	if req.Tags != nil {
		tags := withDefaultTag(*req.Tags)
		if err := validate.Tags(tags); err != nil {
			respond.WriteBadRequest(w, err.Error())
			return
		}
		patch.Tags = tags
	}
	if req.Description != nil {
		if err := validate.Description(*req.Description); err != nil {
			respond.WriteBadRequest(w, err.Error())
			return
		}
	}

	updated, err := h.store.Lists().Update(r.Context(), uid, id, patch)
	if err != nil {
		writeModelError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, updated)
}

// Delete DELETE /v1/list/{id}
func (h *listHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respond.WriteError(w, http.StatusUnauthorized, "missing credentials")
		return
	}
	id := mux.Vars(r)["id"]
	if err := h.store.Lists().Delete(r.Context(), uid, id); err != nil {
		writeModelError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetCidrs GET /v1/list/{id}/cidr — raw rows for a single list, regardless
// of whether that list is currently enabled. Optional `cursor`/`limit`
// query parameters page through results, descending by id, per the
// reference SELECT_BY_ID_PAGINATED cursor contract.
func (h *listHandler) GetCidrs(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respond.WriteError(w, http.StatusUnauthorized, "missing credentials")
		return
	}
	id := mux.Vars(r)["id"]
	l, err := h.store.Lists().Get(r.Context(), uid, id)
	if err != nil {
		writeModelError(w, err)
		return
	}

	q := model.CidrQuery{UserID: uid, ListID: id, ListType: l.Type}
	if cursor := r.URL.Query().Get("cursor"); cursor != "" {
		v, err := strconv.ParseInt(cursor, 10, 64)
		if err != nil {
			respond.WriteBadRequest(w, "cursor must be an integer")
			return
		}
		q.Cursor = v
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		v, err := strconv.Atoi(limit)
		if err != nil {
			respond.WriteBadRequest(w, "limit must be an integer")
			return
		}
		q.Limit = v
	}

	rows, err := h.store.Cidrs().QueryAll(r.Context(), q)
	if err != nil {
		writeModelError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"list":  l,
		"cidrs": rows,
	})
}

type cidrAddRequest struct {
	Cidrs []string `json:"cidrs"`
	TTL   *int64   `json:"ttl,omitempty"`
}

// AddCidrs POST /v1/list/{id}/cidr/add — enqueues an async add job.
// Malformed and non-globally-routable CIDRs are discarded by the worker,
// not here.
func (h *listHandler) AddCidrs(w http.ResponseWriter, r *http.Request) {
	var req cidrAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON")
		return
	}
	h.submitJob(w, r, model.JobActionAdd, req.Cidrs, req.TTL)
}

type cidrAddRawRequest struct {
	Cidrs string `json:"cidrs"`
	TTL   *int64 `json:"ttl,omitempty"`
}

// AddCidrsRaw POST /v1/list/{id}/cidr/add/raw — like AddCidrs, but `cidrs`
// is free text scanned for embedded CIDR-like tokens via
// cidrnet.ExtractFreeText instead of a clean array.
func (h *listHandler) AddCidrsRaw(w http.ResponseWriter, r *http.Request) {
	var req cidrAddRawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON")
		return
	}
	h.submitJob(w, r, model.JobActionAdd, cidrnet.ExtractFreeText(req.Cidrs), req.TTL)
}

type cidrDeleteRequest struct {
	Cidrs []string `json:"cidrs"`
}

// DeleteCidrs POST /v1/list/{id}/cidr/delete — enqueues an async delete job.
func (h *listHandler) DeleteCidrs(w http.ResponseWriter, r *http.Request) {
	var req cidrDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON")
		return
	}
	h.submitJob(w, r, model.JobActionDelete, req.Cidrs, nil)
}

type cidrDeleteRawRequest struct {
	Cidrs string `json:"cidrs"`
}

// DeleteCidrsRaw POST /v1/list/{id}/cidr/delete/raw — like DeleteCidrs, but
// `cidrs` is free text scanned via cidrnet.ExtractFreeText.
func (h *listHandler) DeleteCidrsRaw(w http.ResponseWriter, r *http.Request) {
	var req cidrDeleteRawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON")
		return
	}
	h.submitJob(w, r, model.JobActionDelete, cidrnet.ExtractFreeText(req.Cidrs), nil)
}

// submitJob validates cidrs/ttl, loads the target list, and enqueues a
// CidrJob for the given action, shared by the array and free-text variants
// of both add and delete.
func (h *listHandler) submitJob(w http.ResponseWriter, r *http.Request, action model.JobAction, cidrs []string, ttl *int64) {
	uid, ok := userID(r)
	if !ok {
		respond.WriteError(w, http.StatusUnauthorized, "missing credentials")
		return
	}
	id := mux.Vars(r)["id"]

	if ttl != nil && *ttl <= 0 {
		writeModelError(w, model.ErrTTLInvalid)
		return
	}
	if err := validate.NonEmptyCidrs(cidrs); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	l, err := h.store.Lists().Get(r.Context(), uid, id)
	if err != nil {
		writeModelError(w, err)
		return
	}

	job := model.CidrJob{
		ListID:      l.ID,
		ListType:    l.Type,
		ListEnabled: l.Enabled,
		UserID:      uid,
		Action:      action,
		Cidrs:       cidrs,
		TTL:         ttl,
	}
	if err := h.store.Queue().Enqueue(r.Context(), job); err != nil {
		writeModelError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, job)
}
