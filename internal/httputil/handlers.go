package httputil

import (
	"net/http"
)

// HealthCheck is a simple healthcheck handler that responds to GET and HEAD
// http requests.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		_, _ = w.Write([]byte(http.StatusText(http.StatusOK)))
	}
}

// Redirect wraps the std lib's redirect method and marks the response as
// uncacheable.
func Redirect(w http.ResponseWriter, r *http.Request, url string, code int) {
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, url, code)
}
