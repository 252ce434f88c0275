package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// healthResponse is the response body for GET /health.
type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.metricsMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Stored attachments
	if s.uploads.Dir != "" {
		prefix := strings.TrimRight(s.uploads.URLPrefix, "/")
		files := http.StripPrefix(prefix+"/", http.FileServer(http.Dir(s.uploads.Dir)))
		r.Handle(prefix+"/*", noDirListing(files))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Handle("/metrics", s.metrics.handler())

		// Credential endpoints
		r.Post("/auth/signup", s.dispatch(s.handleSignup, s.rateLimit))
		r.Post("/auth/login", s.dispatch(s.handleLogin, s.rateLimit))

		r.Get("/auth/me", s.dispatch(s.handleMe, s.requireAuth))
		r.Patch("/auth/status", s.dispatch(s.handleUpdateStatus, s.requireAuth))
		r.Post("/auth/ws-ticket", s.dispatch(s.handleWSTicket, s.requireAuth))

		r.Route("/resources", func(r chi.Router) {
			r.Get("/", s.dispatch(s.handleListResources, s.requireAuth))
			r.Post("/", s.dispatch(s.handleCreateResource, s.requireAuth))

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.dispatch(s.handleGetResource, s.requireAuth))
				r.Put("/", s.dispatch(s.handleUpdateResource, s.requireAuth))
				r.Delete("/", s.dispatch(s.handleDeleteResource, s.requireAuth))
			})
		})

		r.Get("/ws", s.dispatch(s.handleWebSocket, s.resolveTicket))
	})

	return r
}

// handleHealth reports liveness and store reachability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.HealthCheck(r.Context()); err != nil {
			s.logger.Warn("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Version: s.version})
			return
		}
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: s.version})
}

// noDirListing rejects directory paths so the file server only serves files.
func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
