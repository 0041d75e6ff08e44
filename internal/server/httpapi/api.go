// Package httpapi is the HTTP surface of the document store: tenant
// registration and sessions, plus tenant-scoped document collections under
// /api/v1/{kind}. All responses are JSON.
package httpapi

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mkaraca/dukkan/internal/logging"
	"github.com/mkaraca/dukkan/internal/server/documents"
	"github.com/mkaraca/dukkan/internal/server/tenants"
)

// validKinds are the collections the store accepts. Requests against any
// other {kind} path segment are rejected with 404.
var validKinds = map[string]bool{
	"customers":    true,
	"employees":    true,
	"offerings":    true,
	"appointments": true,
	"expenses":     true,
}

type API struct {
	tenants   *tenants.Service
	docs      documents.Repository
	jwtSecret []byte
	log       logging.Logger
}

func New(tenantService *tenants.Service, docs documents.Repository, jwtSecret []byte, log logging.Logger) *API {
	return &API{
		tenants:   tenantService,
		docs:      docs,
		jwtSecret: jwtSecret,
		log:       log,
	}
}

// Router assembles the chi router. Health, registration, sessions and
// metrics are public; the document collections require a bearer token.
func (a *API) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(Instrument)

	r.Get("/api/v1/health", a.health)
	r.Post("/api/v1/tenants", a.registerTenant)
	r.Post("/api/v1/sessions", a.createSession)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(a.withAuth)
		r.Put("/api/v1/{kind}/{id}", a.putDocument)
		r.Delete("/api/v1/{kind}/{id}", a.deleteDocument)
		r.Get("/api/v1/{kind}", a.listDocuments)
	})

	return r
}
