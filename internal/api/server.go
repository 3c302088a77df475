// SPDX-License-Identifier: MIT

// Package api serves the kiosk HTTP ingress: commands, unlock, state,
// the renderer bridge socket and health endpoints.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/kiosk/internal/api/middleware"
	"github.com/ManuGH/kiosk/internal/audit"
	"github.com/ManuGH/kiosk/internal/config"
	"github.com/ManuGH/kiosk/internal/health"
	"github.com/ManuGH/kiosk/internal/session"
)

// Controller is the slice of the session controller the ingress drives.
type Controller interface {
	Submit(ctx context.Context, cmd session.Command) (session.Snapshot, error)
	Snapshot() session.Snapshot
}

// AuditReader lists recent audit events, newest first.
type AuditReader interface {
	Recent(ctx context.Context, limit int) ([]audit.Event, error)
}

// Deps are the collaborators of the ingress. Surface and Audit are optional.
type Deps struct {
	Controller Controller
	Health     *health.Manager
	Surface    http.Handler
	Audit      AuditReader
	// ServeMetrics mounts /metrics on this router (no separate metrics listener).
	ServeMetrics bool
	// TracingService enables otelhttp server spans when non-empty.
	TracingService string
}

// Server holds the routing state of the ingress.
type Server struct {
	cfg         config.ServerSettings
	ctl         Controller
	health      *health.Manager
	surface     http.Handler
	audit       AuditReader
	unlockLimit func(http.Handler) http.Handler

	serveMetrics   bool
	tracingService string
	submitTimeout  time.Duration
}

// New builds the ingress for the given server settings.
func New(cfg config.ServerSettings, deps Deps) *Server {
	return &Server{
		cfg:            cfg,
		ctl:            deps.Controller,
		health:         deps.Health,
		surface:        deps.Surface,
		audit:          deps.Audit,
		unlockLimit:    middleware.UnlockRateLimit(),
		serveMetrics:   deps.ServeMetrics,
		tracingService: deps.TracingService,
		submitTimeout:  5 * time.Second,
	}
}

// Handler returns the routed handler with the middleware stack applied.
func (s *Server) Handler() http.Handler {
	return s.routes()
}

// MetricsHandler serves the default Prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
