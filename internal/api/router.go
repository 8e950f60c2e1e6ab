package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/joonhokim/stockpulse/internal/api/middleware"
	"github.com/joonhokim/stockpulse/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler      http.HandlerFunc
	AnalyzeHandler     http.HandlerFunc
	GetAnalysisHandler http.HandlerFunc
	StreamHandler      http.HandlerFunc
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

		r.Post("/api/v1/analyze", orNotImplemented(deps.AnalyzeHandler))
		r.Get("/api/v1/analyses/{analysisID}", orNotImplemented(deps.GetAnalysisHandler))
	})

	// The stream endpoint authenticates but skips rate limiting: a reconnecting
	// viewer must never be locked out of a run already in flight. It may also
	// be read by a differently-scoped caller than the one who created the
	// analysis, so it carries no ownership check.
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)

		r.Get("/api/v1/analyses/{analysisID}/stream", orNotImplemented(deps.StreamHandler))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented,
			response.CodeInternal, "Endpoint not yet implemented")
	}
}
