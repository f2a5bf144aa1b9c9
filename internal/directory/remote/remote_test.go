package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/pomerium/teamdash/internal/directory"
	"github.com/pomerium/teamdash/internal/httputil"
	"github.com/pomerium/teamdash/internal/testutil"
)

type M = map[string]any

func newMockAPI(t *testing.T) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Route("/api", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if testutil.BearerToken(r) != "abc" {
					http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
					return
				}
				next.ServeHTTP(w, r)
			})
		})
		r.Get("/users", func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode([]M{
				{"id": 1, "name": "Leanne Graham", "username": "Bret", "email": "Sincere@april.biz",
					"address": M{"street": "Kulas Light", "city": "Gwenborough"}},
				{"id": 2, "name": "Ervin Howell", "username": "Antonette", "email": "Shanna@melissa.tv"},
			})
		})
	})
	return r
}

func newProvider(t *testing.T, token string, options ...Option) *Provider {
	srv := httptest.NewServer(newMockAPI(t))
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL + "/api")
	require.NoError(t, err)

	return New(append([]Option{
		WithURL(u),
		WithHTTPClient(&http.Client{Transport: bearer{token: token}}),
	}, options...)...)
}

type bearer struct{ token string }

func (b bearer) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+b.token)
	return http.DefaultTransport.RoundTrip(req)
}

func TestProvider_Members(t *testing.T) {
	t.Parallel()

	members, err := newProvider(t, "abc").Members(t.Context())
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff([]directory.Member{
		{ID: 1, Name: "Leanne Graham", Username: "Bret", Email: "Sincere@april.biz", City: "Gwenborough"},
		{ID: 2, Name: "Ervin Howell", Username: "Antonette", Email: "Shanna@melissa.tv"},
	}, members))
	assert.Equal(t, directory.DefaultLocation, members[1].Location())
}

func TestProvider_Unauthorized(t *testing.T) {
	t.Parallel()

	_, err := newProvider(t, "stale").Members(t.Context())
	var httpErr *httputil.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Status)
}

func TestProvider_RateLimit(t *testing.T) {
	t.Parallel()

	p := newProvider(t, "abc", WithQPS(0.5))
	_, err := p.Members(t.Context())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()
	_, err = p.Members(ctx)
	assert.ErrorContains(t, err, "remote: rate limit")
}

func TestNew_DefaultQPS(t *testing.T) {
	t.Parallel()

	assert.Equal(t, rate.Limit(defaultQPS), New().limiter.Limit())
	assert.Equal(t, rate.Limit(defaultQPS), New(WithQPS(-1)).limiter.Limit())
	assert.Equal(t, 1, New(WithQPS(0.5)).limiter.Burst())
}
