// SPDX-License-Identifier: MIT

// Package middleware provides the HTTP ingress middleware stack of the kiosk daemon.
package middleware

import (
	"github.com/go-chi/chi/v5"

	klog "github.com/ManuGH/kiosk/internal/log"
)

// Ingress is the browser-facing policy of the control API. The renderer and
// operator panels run in browsers; the gesture bridge and kioskctl do not.
type Ingress struct {
	// AllowedOrigins may drive the API cross-origin. "*" allows every origin.
	AllowedOrigins []string

	// CSP overrides DefaultCSP
	CSP string

	// TracingService names server spans; empty disables tracing
	TracingService string

	// Quiet drops the access log
	Quiet bool
}

// NewRouter returns a chi router carrying the ingress stack, outermost first:
// Recoverer, RequestID, CORS, CSRF, security headers, metrics, tracing, access log.
// Rate limits are per route.
func NewRouter(in Ingress) *chi.Mux {
	r := chi.NewRouter()
	r.Use(
		Recoverer,
		RequestID,
		CORS(in.AllowedOrigins),
		CSRFProtection(in.AllowedOrigins),
		SecurityHeaders(in.CSP),
		Metrics(),
	)
	if in.TracingService != "" {
		// After RequestID so spans can carry the correlation id.
		r.Use(OTelHTTP(in.TracingService))
	}
	if !in.Quiet {
		r.Use(klog.Middleware())
	}
	return r
}
