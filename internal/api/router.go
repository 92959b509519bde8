package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// healthCheckTimeout bounds each sink health check.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		r.Route("/server", func(r chi.Router) {
			r.Get("/", s.handleServerStats)
			r.Post("/start", s.handleServerStart)
			r.Post("/stop", s.handleServerStop)
			r.Get("/urls", s.handleServerURLs)
		})

		r.Get("/events", s.handleListEvents)
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Running bool              `json:"running"`
	Sinks   map[string]string `json:"sinks,omitempty"`
}

// handleHealth reports "ok" or "degraded". The host itself is healthy even
// when the web server is stopped; degraded means a sink check failed.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Version: s.version,
		Running: s.supervisor.Stats().Running,
	}

	if len(s.health) > 0 {
		resp.Sinks = make(map[string]string, len(s.health))
		for name, checker := range s.health {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			err := checker.HealthCheck(ctx)
			cancel()
			if err != nil {
				resp.Sinks[name] = err.Error()
				resp.Status = "degraded"
				continue
			}
			resp.Sinks[name] = "ok"
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
