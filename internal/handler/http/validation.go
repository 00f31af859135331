package http

import (
	"net/http"

	"bayarea-dashboard/internal/handler/http/respond"
)

const (
	maxPathLength  = 2048
	maxQueryLength = 2048
)

// InputValidation rejects oversized URLs and any method other than GET,
// HEAD or OPTIONS. The API is read-only.
func InputValidation() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
			default:
				w.Header().Set("Allow", "GET, HEAD, OPTIONS")
				respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			if len(r.URL.Path) > maxPathLength || len(r.URL.RawQuery) > maxQueryLength {
				respond.Error(w, http.StatusRequestURITooLong, "URI too long")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
