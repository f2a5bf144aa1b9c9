// Package httputil provides HTTP helpers shared by the web frontend and the
// outbound clients.
package httputil

import (
	"encoding/json"
	"mime"
	"net/http"
	"strings"
)

// StatusText returns the text for an HTTP status code, falling back to the
// code itself for unknown codes.
func StatusText(code int) string {
	if txt := http.StatusText(code); txt != "" {
		return txt
	}
	return http.StatusText(http.StatusInternalServerError)
}

// WantsJSON reports whether the client asked for a JSON response.
func WantsJSON(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mt == "application/json" {
			return true
		}
	}
	return false
}

// RenderJSON writes v as a JSON response with the given status code.
func RenderJSON(w http.ResponseWriter, code int, v any) {
	bs, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(bs)
}
