package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
)

// healthCheckTimeout bounds each dependency check on GET /api/health.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)
		r.Get("/images/{key}", s.handleGetImage)

		r.Route("/devices", func(r chi.Router) {
			// Multipart uploads get their own, larger limit.
			r.With(limitBody(s.uploadLimit()), s.authMiddleware).Post("/addDevice", s.handleCreateDevice)

			r.Get("/events", s.handleWebSocket)

			r.Group(func(r chi.Router) {
				r.Use(limitBody(maxRequestBodySize))
				r.Get("/getDevice/{id}", s.handleGetDevice)
				r.Get("/getAllDevices", s.handleListDevices)

				r.Group(func(r chi.Router) {
					r.Use(s.authMiddleware)
					r.Get("/getOwnerDevices", s.handleListOwnerDevices)
					r.Put("/updateDevice/{id}", s.handleUpdateDevice)
					r.Delete("/deleteDevice/{id}", s.handleDeleteDevice)
				})
			})
		})

		r.Route("/auth", func(r chi.Router) {
			r.Use(limitBody(maxRequestBodySize))
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)

			r.Group(func(r chi.Router) {
				r.Use(s.authMiddleware)
				r.Get("/getUser", s.handleGetUser)
				r.Put("/updateUser", s.handleUpdateUser)
				r.Delete("/deleteUser", s.handleDeleteUser)
				r.Put("/updatePassword", s.handleChangePassword)
			})
		})

		r.With(s.authMiddleware).Get("/audit", s.handleListAuditLogs)
	})

	return r
}

// uploadLimit is the body cap for multipart device uploads.
func (s *Server) uploadLimit() int64 {
	if s.devCfg.MaxUploadBytes > 0 {
		return s.devCfg.MaxUploadBytes
	}
	return defaultMaxUploadBytes
}

// handleHealth checks every registered dependency and reports the results.
// Any failing dependency makes the response 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.health))
	for name := range s.health {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "ok"
	code := http.StatusOK
	components := make(map[string]string, len(names))
	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := s.health[name].HealthCheck(ctx)
		cancel()

		if err != nil {
			s.logger.Warn("health check failed", "component", name, "error", err)
			components[name] = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		components[name] = "ok"
	}

	writeJSON(w, code, map[string]any{
		"status":     status,
		"version":    s.version,
		"components": components,
	})
}
