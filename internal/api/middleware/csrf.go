// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"net/url"
	"strings"
)

// CSRFProtection rejects state-changing requests (POST, PUT, DELETE, PATCH)
// that a browser sent from a foreign origin. It validates the Origin header
// and falls back to Referer. Requests without either header come from
// non-browser clients (the gesture bridge, kioskctl) and are allowed.
//
//	r.Use(middleware.CSRFProtection(allowedOrigins))
func CSRFProtection(allowedOrigins []string) func(http.Handler) http.Handler {
	originsMap := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		originsMap[origin] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPut &&
				r.Method != http.MethodDelete && r.Method != http.MethodPatch {
				next.ServeHTTP(w, r)
				return
			}

			requestOrigin := getRequestOrigin(r)
			if requestOrigin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !isOriginAllowed(requestOrigin, originsMap, r) {
				writeJSONError(w, http.StatusForbidden, "cross_origin_rejected", "Cross-origin request not allowed")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getRequestOrigin extracts the origin from the request.
// It checks Origin header first, then falls back to Referer.
func getRequestOrigin(r *http.Request) string {
	origin := r.Header.Get("Origin")
	if origin != "" {
		return strings.TrimSuffix(origin, "/")
	}

	referer := r.Header.Get("Referer")
	if referer == "" {
		return ""
	}

	refererURL, err := url.Parse(referer)
	if err != nil || refererURL.Host == "" {
		// An unparsable referer still proves a browser context.
		return "null"
	}

	return strings.TrimSuffix(refererURL.Scheme+"://"+refererURL.Host, "/")
}

// isOriginAllowed reports whether the origin is configured or same-origin.
func isOriginAllowed(requestOrigin string, allowedOrigins map[string]bool, r *http.Request) bool {
	if allowedOrigins["*"] || allowedOrigins[requestOrigin] {
		return true
	}
	return isSameOrigin(requestOrigin, r)
}

// isSameOrigin checks if the request origin matches the request's target origin.
func isSameOrigin(requestOrigin string, r *http.Request) bool {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	host := r.Host
	if host == "" {
		return false
	}

	return requestOrigin == scheme+"://"+host
}
