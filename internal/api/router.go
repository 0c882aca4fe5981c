package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/recipher/administrato-notify/internal/auth"
	"github.com/recipher/administrato-notify/internal/queue"
)

// RouterDeps bundles the collaborators the HTTP surface needs.
type RouterDeps struct {
	Directory approvalDirectory
	DB        pinger
	Enqueuer  queue.Enqueuer
	DLQ       queue.DeadLetterQueue
	JWT       *auth.JWTService
	Log       zerolog.Logger
}

// NewRouter creates a chi.Mux with all routes, middleware, and handlers
// configured. DLQ is optional; when nil, the reprocess endpoint is not
// registered.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CorrelationIDMiddleware)
	r.Use(LoggingMiddleware(deps.Log))
	r.Use(RecoverMiddleware(deps.Log))

	// Health and metrics endpoints (no auth required)
	r.Get("/healthz", HealthzHandler())
	r.Get("/readyz", ReadyzHandler(deps.DB))
	r.Handle("/metrics", promhttp.Handler())

	// API routes (auth required)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.JWTAuth(deps.JWT))

		r.Post("/events", PublishEventHandler(deps.Enqueuer))
		r.Get("/sets/{setID}/status", SetStatusHandler(deps.Directory))

		if deps.DLQ != nil {
			r.Post("/dlq/reprocess", DLQReprocessHandler(deps.DLQ))
		}
	})

	return r
}
