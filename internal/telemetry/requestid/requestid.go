// Package requestid carries a per-request identifier across inbound and
// outbound HTTP calls.
package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const headerName = "X-Request-Id"

type contextKey struct{}

// New creates a new request id.
func New() string {
	return uuid.NewString()
}

// WithValue returns a copy of ctx carrying requestID.
func WithValue(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKey{}, requestID)
}

// FromContext returns the request id stored in ctx, or an empty string.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// FromHTTPHeader returns the request id in the HTTP header. If no request id exists,
// an empty string is returned.
func FromHTTPHeader(hdr http.Header) string {
	return hdr.Get(headerName)
}

type transport struct {
	base http.RoundTripper
}

// NewRoundTripper creates a new RoundTripper which adds the request id to the
// outgoing headers. Requests without an id in their context get a fresh one.
func NewRoundTripper(base http.RoundTripper) http.RoundTripper {
	return &transport{base: base}
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(headerName) != "" {
		return t.base.RoundTrip(req)
	}
	requestID := FromContext(req.Context())
	if requestID == "" {
		requestID = New()
	}
	req = req.Clone(req.Context())
	req.Header.Set(headerName, requestID)
	return t.base.RoundTrip(req)
}

// HTTPMiddleware creates a new http middleware that populates the request id
// and echoes it on the response.
func HTTPMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := FromHTTPHeader(r.Header)
			if requestID == "" {
				requestID = New()
			}
			w.Header().Set(headerName, requestID)
			next.ServeHTTP(w, r.WithContext(WithValue(r.Context(), requestID)))
		})
	}
}
