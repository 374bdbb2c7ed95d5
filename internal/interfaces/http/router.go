// Package http exposes the normalization engine over HTTP.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/OntoGround/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OntoGround/internal/interfaces/http/handlers"
	"github.com/turtacn/OntoGround/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies of the
// route tree. Nil handlers leave their routes unmounted.
type RouterConfig struct {
	NormalizeHandler *handlers.NormalizeHandler
	HealthHandler    *handlers.HealthHandler

	// MetricsHandler serves /metrics when non-nil.
	MetricsHandler http.Handler
	HTTPRecorder   middleware.HTTPRecorder

	MaxBodyBytes int64
	Logger       logging.Logger
}

// NewRouter constructs the route tree.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogging(cfg.Logger, cfg.HTTPRecorder, middleware.DefaultLoggingConfig()))

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.MaxBody(cfg.MaxBodyBytes))
		if h := cfg.NormalizeHandler; h != nil {
			api.Post("/normalize", h.Normalize)
			api.Post("/lookup", h.Lookup)
		}
	})

	return r
}

//Personal.AI order the ending
