// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/kiosk/internal/api/middleware"
)

// V1BaseURL prefixes every versioned API route.
const V1BaseURL = "/api/v1"

// commandRateLimit bounds the per-IP command rate; far above any gesture rate.
const commandRateLimit = 600

func (s *Server) routes() http.Handler {
	r := s.newRouter()
	s.registerPublicRoutes(r)

	r.Route(V1BaseURL, func(r chi.Router) {
		r.With(middleware.APIRateLimit(commandRateLimit, nil)).Post("/commands", s.handleCommand)
		r.With(s.unlockLimit).Post("/unlock", s.handleUnlock)
		r.Get("/state", s.handleState)
		r.Get("/audit", s.handleAudit)
		r.Get("/surface", s.handleSurface)
	})

	return r
}

func (s *Server) newRouter() chi.Router {
	return middleware.NewRouter(middleware.Ingress{
		AllowedOrigins: s.cfg.AllowedOrigins,
		TracingService: s.tracingService,
	})
}

func (s *Server) registerPublicRoutes(r chi.Router) {
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	if s.serveMetrics {
		r.Handle("/metrics", MetricsHandler())
	}
}
