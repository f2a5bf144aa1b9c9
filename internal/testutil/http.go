package testutil

import (
	"net/http"
	"strings"
)

// BearerToken returns the bearer token in the Authorization header of r, or
// the empty string.
func BearerToken(r *http.Request) string {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return token
}
