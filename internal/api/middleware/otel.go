// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RequestIDKey tags ingress spans with the X-Request-ID the response carries.
const RequestIDKey = "kiosk.request_id"

// OTelHTTP opens a server span per API request, continuing any W3C trace
// context the caller sent. Health checks, scrapes and the renderer socket are not traced.
func OTelHTTP(serviceName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		tagged := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := w.Header().Get(HeaderRequestID); id != "" {
				trace.SpanFromContext(r.Context()).SetAttributes(attribute.String(RequestIDKey, id))
			}
			next.ServeHTTP(w, r)
		})
		return otelhttp.NewHandler(tagged, serviceName,
			otelhttp.WithFilter(traced),
			otelhttp.WithSpanNameFormatter(spanName),
		)
	}
}

func traced(r *http.Request) bool {
	switch r.URL.Path {
	case "/healthz", "/readyz", "/metrics", "/api/v1/surface":
		return false
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// spanName is "POST /api/v1/commands". Queries (audit limits) are dropped.
func spanName(_ string, r *http.Request) string {
	return r.Method + " " + r.URL.Path
}
