package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/pulsecrm/pulsecrm/internal/api/middleware"
	"github.com/pulsecrm/pulsecrm/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler http.HandlerFunc

	GetCustomer     http.HandlerFunc
	ListCustomers   http.HandlerFunc
	ListInsights    http.HandlerFunc
	ListPredictions http.HandlerFunc

	ScoreCustomer       http.HandlerFunc
	GenerateInsights    http.HandlerFunc
	GeneratePredictions http.HandlerFunc
	AnalyzeCustomer     http.HandlerFunc
	BatchAnalyze        http.HandlerFunc

	CreateKeyHandler http.HandlerFunc
	ListKeysHandler  http.HandlerFunc
	RevokeKeyHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public health check
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)

		// Reads
		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequireScope("read"))

			r.Get("/api/v1/customers", orNotImplemented(deps.ListCustomers))
			r.Get("/api/v1/customers/{customerID}", orNotImplemented(deps.GetCustomer))
			r.Get("/api/v1/customers/{customerID}/insights", orNotImplemented(deps.ListInsights))
			r.Get("/api/v1/customers/{customerID}/predictions", orNotImplemented(deps.ListPredictions))
		})

		// Pipeline runs
		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequireScope("analyze"))

			r.Post("/api/v1/customers/{customerID}/score", orNotImplemented(deps.ScoreCustomer))
			r.Post("/api/v1/customers/{customerID}/insights", orNotImplemented(deps.GenerateInsights))
			r.Post("/api/v1/customers/{customerID}/predictions", orNotImplemented(deps.GeneratePredictions))
			r.Post("/api/v1/customers/{customerID}/analyze", orNotImplemented(deps.AnalyzeCustomer))
			r.Post("/api/v1/analyze", orNotImplemented(deps.BatchAnalyze))
		})

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequireScope("admin"))

			r.Post("/api/v1/admin/keys", orNotImplemented(deps.CreateKeyHandler))
			r.Get("/api/v1/admin/keys", orNotImplemented(deps.ListKeysHandler))
			r.Delete("/api/v1/admin/keys/{keyID}", orNotImplemented(deps.RevokeKeyHandler))
		})
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
