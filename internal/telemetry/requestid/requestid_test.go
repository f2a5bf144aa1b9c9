package requestid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	id := New()
	ctx := WithValue(context.Background(), id)
	assert.Equal(t, id, FromContext(ctx))
	assert.Empty(t, FromContext(context.Background()))
}

func TestNewRoundTripper(t *testing.T) {
	got := make(chan string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got <- r.Header.Get(headerName)
	}))
	t.Cleanup(srv.Close)

	client := &http.Client{Transport: NewRoundTripper(http.DefaultTransport)}

	req, err := http.NewRequestWithContext(WithValue(t.Context(), "abc"), http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	res, err := client.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Empty(t, req.Header.Get(headerName), "caller's request should not be modified")

	req, err = http.NewRequestWithContext(t.Context(), http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	res, err = client.Do(req)
	require.NoError(t, err)
	res.Body.Close()

	assert.Equal(t, "abc", <-got)
	_, err = uuid.Parse(<-got)
	assert.NoError(t, err, "a fresh id should be generated")
}

func TestHTTPMiddleware(t *testing.T) {
	var seen string
	h := HTTPMiddleware()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(headerName, "inbound-id")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, "inbound-id", seen)
	assert.Equal(t, "inbound-id", w.Header().Get(headerName))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(headerName))
}
