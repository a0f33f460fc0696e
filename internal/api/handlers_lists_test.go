package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/cidrfence/cidrfence/internal/auth"
	"github.com/cidrfence/cidrfence/internal/model"
	"github.com/cidrfence/cidrfence/internal/store"
)

type fakeStore struct {
	lists fakeLists
	cidrs fakeCidrs
	queue fakeQueue
}

func (s *fakeStore) Users() store.Users { return fakeUsers{} }
func (s *fakeStore) Lists() store.Lists { return &s.lists }
func (s *fakeStore) Cidrs() store.Cidrs { return &s.cidrs }
func (s *fakeStore) Queue() store.Queue { return &s.queue }

type fakeUsers struct{}

func (fakeUsers) Create(ctx context.Context, u *model.User) (*model.User, error) { return u, nil }
func (fakeUsers) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	return nil, model.ErrNotFound
}
func (fakeUsers) UpdatePassword(ctx context.Context, login, hash string) error { return nil }
func (fakeUsers) Delete(ctx context.Context, userID string) error             { return nil }

type fakeLists struct {
	byID map[string]*model.List
}

func (l *fakeLists) Create(ctx context.Context, in *model.List) (*model.List, error) {
	if l.byID == nil {
		l.byID = map[string]*model.List{}
	}
	if _, exists := l.byID[in.ID]; exists {
		return nil, model.ErrConflict
	}
	l.byID[in.ID] = in
	return in, nil
}

func (l *fakeLists) Get(ctx context.Context, userID, listID string) (*model.List, error) {
	li, ok := l.byID[listID]
	if !ok || li.UserID != userID {
		return nil, model.ErrNotFound
	}
	return li, nil
}

func (l *fakeLists) List(ctx context.Context, userID string, listType model.ListType) ([]*model.List, error) {
	var out []*model.List
	for _, li := range l.byID {
		if li.UserID == userID && (listType == "" || li.Type == listType) {
			out = append(out, li)
		}
	}
	return out, nil
}

func (l *fakeLists) Update(ctx context.Context, userID, listID string, patch store.ListPatch) (*model.List, error) {
	li, err := l.Get(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	if patch.Enabled != nil {
		li.Enabled = *patch.Enabled
	}
	if patch.Description != nil {
		li.Description = *patch.Description
	}
	if patch.Tags != nil {
		li.Tags = patch.Tags
	}
	return li, nil
}

func (l *fakeLists) Delete(ctx context.Context, userID, listID string) error {
	if _, err := l.Get(ctx, userID, listID); err != nil {
		return err
	}
	delete(l.byID, listID)
	return nil
}

type fakeCidrs struct {
	rows []*model.CidrRow
}

func (c *fakeCidrs) Query(ctx context.Context, q model.CidrQuery) ([]*model.CidrRow, error) {
	return c.rows, nil
}
func (c *fakeCidrs) QueryAll(ctx context.Context, q model.CidrQuery) ([]*model.CidrRow, error) {
	return c.rows, nil
}
func (c *fakeCidrs) DeleteExpired(ctx context.Context) (int64, error) { return 0, nil }

type fakeQueue struct {
	jobs []model.CidrJob
}

func (q *fakeQueue) Enqueue(ctx context.Context, job model.CidrJob) error {
	q.jobs = append(q.jobs, job)
	return nil
}

// withClaims authenticates a request by issuing a real JWT and running it
// through auth.Middleware, since Claims' context key is unexported outside
// package auth.
func withClaims(next http.HandlerFunc, claims *auth.Claims) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		issuer := auth.NewIssuer("test-secret", time.Hour)
		tok, err := issuer.Issue(claims.Subject, claims.Login, time.Hour)
		if err != nil {
			panic(err)
		}
		r.Header.Set("Authorization", "Bearer "+tok.AccessToken)
		mw := auth.NewMiddleware(issuer, auth.NewTokenCache(0))
		mw.Wrap(http.HandlerFunc(next)).ServeHTTP(w, r)
	}
}

func TestListHandler_CreateGetCrossUser(t *testing.T) {
	fs := &fakeStore{}
	h := &listHandler{store: fs}
	claims := &auth.Claims{Login: "alice"}
	claims.Subject = "user-1"

	body, _ := json.Marshal(createListRequest{ID: "MYLIST", ListType: "DENY", Enabled: true})
	req := httptest.NewRequest(http.MethodPost, "/v1/list", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	withClaims(h.Create, claims).ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var created model.List
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.UserID != "user-1" {
		t.Fatalf("expected list scoped to caller, got UserID=%q", created.UserID)
	}
	found := false
	for _, tag := range created.Tags {
		if tag == "DEFAULT" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected DEFAULT tag to be added, got %v", created.Tags)
	}

	getReq := httptest.NewRequest(http.MethodGet, "/v1/list/MYLIST", nil)
	getReq = mux.SetURLVars(getReq, map[string]string{"id": "MYLIST"})
	getRR := httptest.NewRecorder()
	withClaims(h.Get, claims).ServeHTTP(getRR, getReq)
	if getRR.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", getRR.Code)
	}

	otherClaims := &auth.Claims{Login: "eve"}
	otherClaims.Subject = "user-2"
	crossReq := httptest.NewRequest(http.MethodGet, "/v1/list/MYLIST", nil)
	crossReq = mux.SetURLVars(crossReq, map[string]string{"id": "MYLIST"})
	crossRR := httptest.NewRecorder()
	withClaims(h.Get, otherClaims).ServeHTTP(crossRR, crossReq)
	if crossRR.Code != http.StatusNotFound {
		t.Fatalf("expected cross-user access to 404, got %d", crossRR.Code)
	}
}

func TestListHandler_AddCidrs_RejectsInvalidTTL(t *testing.T) {
	fs := &fakeStore{lists: fakeLists{byID: map[string]*model.List{
		"MYLIST": {ID: "MYLIST", UserID: "user-1", Type: model.ListTypeDeny, Enabled: true},
	}}}
	h := &listHandler{store: fs}
	claims := &auth.Claims{Login: "alice"}
	claims.Subject = "user-1"

	ttl := int64(-5)
	body, _ := json.Marshal(cidrAddRequest{Cidrs: []string{"203.0.113.0/24"}, TTL: &ttl})
	req := httptest.NewRequest(http.MethodPost, "/v1/list/MYLIST/cidr/add", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"id": "MYLIST"})
	rr := httptest.NewRecorder()
	withClaims(h.AddCidrs, claims).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-positive ttl, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(fs.queue.jobs) != 0 {
		t.Fatal("expected no job to be enqueued for an invalid request")
	}
}

func TestListHandler_AddCidrs_Enqueues(t *testing.T) {
	fs := &fakeStore{lists: fakeLists{byID: map[string]*model.List{
		"MYLIST": {ID: "MYLIST", UserID: "user-1", Type: model.ListTypeDeny, Enabled: true},
	}}}
	h := &listHandler{store: fs}
	claims := &auth.Claims{Login: "alice"}
	claims.Subject = "user-1"

	body, _ := json.Marshal(cidrAddRequest{Cidrs: []string{"203.0.113.0/24"}})
	req := httptest.NewRequest(http.MethodPost, "/v1/list/MYLIST/cidr/add", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"id": "MYLIST"})
	rr := httptest.NewRecorder()
	withClaims(h.AddCidrs, claims).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(fs.queue.jobs) != 1 {
		t.Fatalf("expected exactly one enqueued job, got %d", len(fs.queue.jobs))
	}
	job := fs.queue.jobs[0]
	if job.UserID != "user-1" || job.Action != model.JobActionAdd {
		t.Fatalf("unexpected job: %+v", job)
	}
}

func TestListHandler_AddCidrsRaw_ExtractsFromFreeText(t *testing.T) {
	fs := &fakeStore{lists: fakeLists{byID: map[string]*model.List{
		"MYLIST": {ID: "MYLIST", UserID: "user-1", Type: model.ListTypeDeny, Enabled: true},
	}}}
	h := &listHandler{store: fs}
	claims := &auth.Claims{Login: "alice"}
	claims.Subject = "user-1"

	body, _ := json.Marshal(cidrAddRawRequest{
		Cidrs: "blocking traffic from 203.0.113.0/24 and also 198.51.100.7 per the report",
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/list/MYLIST/cidr/add/raw", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"id": "MYLIST"})
	rr := httptest.NewRecorder()
	withClaims(h.AddCidrsRaw, claims).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(fs.queue.jobs) != 1 {
		t.Fatalf("expected exactly one enqueued job, got %d", len(fs.queue.jobs))
	}
	job := fs.queue.jobs[0]
	if len(job.Cidrs) != 2 {
		t.Fatalf("expected two CIDRs extracted from free text, got %v", job.Cidrs)
	}
}
