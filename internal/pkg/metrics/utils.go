package metrics

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// GetRoutePath extracts the route pattern from the request context
// This helps group metrics by route pattern rather than specific values
func GetRoutePath(r *http.Request) string {
	// Try to get the route pattern from chi router context
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}

	return NormalizePath(r.URL.Path)
}

// NormalizePath normalizes URL paths to reduce cardinality in metrics
// This prevents metrics explosion from dynamic path segments
func NormalizePath(path string) string {
	if path == "" || path == "/" {
		return "/"
	}

	switch {
	case path == "/health":
		return "/health"
	case path == "/ready":
		return "/ready"
	case path == "/metrics":
		return "/metrics"
	case path == "/shorten":
		return "/shorten"
	case path == "/stats":
		return "/stats"
	case strings.HasPrefix(path, "/stats/"):
		return "/stats/{code}"
	case strings.HasPrefix(path, "/swagger"):
		return "/swagger/*"
	default:
		// Path like "/abc123" is a short code redirect
		segments := strings.Split(strings.Trim(path, "/"), "/")
		if len(segments) == 1 && segments[0] != "" {
			return "/{code}"
		}
	}

	return path
}

// FormatStatusCode converts an integer status code to string
func FormatStatusCode(statusCode int) string {
	return strconv.Itoa(statusCode)
}
