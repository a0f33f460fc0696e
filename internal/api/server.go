package api

import (
	"github.com/gorilla/mux"

	"github.com/cidrfence/cidrfence/internal/api/recovery"
	"github.com/cidrfence/cidrfence/internal/auth"
	"github.com/cidrfence/cidrfence/internal/query"
	"github.com/cidrfence/cidrfence/internal/store"
)

// Deps bundles the dependencies handlers need: the persistence layer, the
// read-path query engine, and the JWT issuer/cache/middleware trio.
type Deps struct {
	Store      store.Store
	Query      *query.Engine
	Issuer     *auth.Issuer
	Cache      *auth.TokenCache
	Middleware *auth.Middleware
}

// NewRouter wires every HTTP route onto a fresh gorilla/mux router, mirroring
// the reference service's /v1/auth, /v1/admin, /v1/list and /v1/cidr
// controllers.
func NewRouter(d Deps) *mux.Router {
	r := mux.NewRouter()
	r.Use(recovery.Middleware)

	healthHandler := NewHealthHandler()
	r.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")

	authH := &authHandler{store: d.Store, issuer: d.Issuer}
	r.HandleFunc("/v1/auth/token", authH.Token).Methods("POST")
	r.HandleFunc("/v1/auth/password", authH.ChangePassword).Methods("PUT")

	protected := r.PathPrefix("").Subrouter()
	protected.Use(d.Middleware.Wrap)

	protected.HandleFunc("/v1/admin/signup", authH.Signup).Methods("POST")

	listH := &listHandler{store: d.Store}
	protected.HandleFunc("/v1/list", listH.List).Methods("GET")
	protected.HandleFunc("/v1/list", listH.Create).Methods("POST")
	protected.HandleFunc("/v1/list/{id}", listH.Get).Methods("GET")
	protected.HandleFunc("/v1/list/{id}", listH.Update).Methods("PUT")
	protected.HandleFunc("/v1/list/{id}", listH.Delete).Methods("DELETE")
	protected.HandleFunc("/v1/list/{id}/cidr", listH.GetCidrs).Methods("GET")
	protected.HandleFunc("/v1/list/{id}/cidr/add", listH.AddCidrs).Methods("POST")
	protected.HandleFunc("/v1/list/{id}/cidr/delete", listH.DeleteCidrs).Methods("POST")
	protected.HandleFunc("/v1/list/{id}/cidr/add/raw", listH.AddCidrsRaw).Methods("POST")
	protected.HandleFunc("/v1/list/{id}/cidr/delete/raw", listH.DeleteCidrsRaw).Methods("POST")

	cidrH := &cidrHandler{query: d.Query}
	protected.HandleFunc("/v1/cidr", cidrH.Get).Methods("GET")
	protected.HandleFunc("/v1/cidr/collapsed", cidrH.Collapsed).Methods("GET")
	protected.HandleFunc("/v1/cidr/collapsed/by-ip-version", cidrH.CollapsedByVersion).Methods("GET")

	return r
}
