package authenticateflow

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pomerium/teamdash/internal/authclient"
	"github.com/pomerium/teamdash/internal/kv/memory"
	"github.com/pomerium/teamdash/internal/sessions"
)

func newMockAuthAPI(t *testing.T) *httptest.Server {
	r := chi.NewRouter()
	r.Post("/api/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["email"] == "alex@design.co" && body["password"] == "secret" {
			_ = json.NewEncoder(w).Encode(map[string]string{"token": "real-token"})
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "user not found"})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func authClient(t *testing.T, rawURL string) *authclient.AuthClient {
	u, err := url.Parse(rawURL + "/api/login")
	require.NoError(t, err)
	return authclient.New(authclient.WithURL(u))
}

// offlineURL returns the address of a server that is no longer listening.
func offlineURL(t *testing.T) string {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	return srv.URL
}

func storedToken(t *testing.T, store *sessions.Store) string {
	token, err := store.Get(t.Context())
	if sessions.IsNoSession(err) {
		return ""
	}
	require.NoError(t, err)
	return token
}

func TestSignIn(t *testing.T) {
	t.Parallel()

	store := sessions.NewStore(memory.New())
	var hooks int
	flow := New(authClient(t, newMockAuthAPI(t).URL), store, OnSignIn(func() { hooks++ }))

	require.NoError(t, flow.SignIn(t.Context(), "  Alex@Design.CO ", "secret", nil))
	assert.Equal(t, "real-token", storedToken(t, store))
	assert.Equal(t, 1, hooks)

	require.NoError(t, flow.SignOut(t.Context()))
	assert.Empty(t, storedToken(t, store))
}

func TestSignIn_Rejected(t *testing.T) {
	t.Parallel()

	srv := newMockAuthAPI(t)
	for _, tc := range []struct {
		name     string
		email    string
		password string
		options  []Option
	}{
		{"wrong password", "alex@design.co", "nope", nil},
		{"demo pair without fallback", DemoEmail, DemoPassword, nil},
		{"non-demo pair with fallback", "alex@design.co", "nope", []Option{WithDemoFallback(true, 0)}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store := sessions.NewStore(memory.New())
			flow := New(authClient(t, srv.URL), store, tc.options...)

			err := flow.SignIn(t.Context(), tc.email, tc.password, func(string) {
				t.Error("no status should be reported")
			})
			assert.ErrorIs(t, err, authclient.ErrInvalidCredentials)
			assert.Equal(t, "Invalid credentials. Please try again.", Message(err))
			assert.Empty(t, storedToken(t, store))
		})
	}
}

func TestSignIn_NetworkUnavailable(t *testing.T) {
	t.Parallel()

	store := sessions.NewStore(memory.New())
	flow := New(authClient(t, offlineURL(t)), store)

	err := flow.SignIn(t.Context(), DemoEmail, DemoPassword, nil)
	assert.ErrorIs(t, err, authclient.ErrNetworkUnavailable)
	assert.Equal(t, "Network unavailable.", Message(err))
	assert.Empty(t, storedToken(t, store))
}

func TestSignIn_DemoFallback(t *testing.T) {
	t.Parallel()

	store := sessions.NewStore(memory.New())
	var waited []time.Duration
	var statuses []string
	flow := New(authClient(t, offlineURL(t)), store,
		WithDemoFallback(true, DefaultDemoDelay),
		WithAfter(func(d time.Duration) <-chan time.Time {
			waited = append(waited, d)
			ch := make(chan time.Time, 1)
			ch <- time.Time{}
			return ch
		}))

	require.NoError(t, flow.SignIn(t.Context(), " EVE.HOLT@reqres.in", DemoPassword, func(s string) {
		statuses = append(statuses, s)
	}))
	assert.Equal(t, []string{"Connecting to offline fallback..."}, statuses)
	assert.Equal(t, []time.Duration{1500 * time.Millisecond}, waited)
	assert.Equal(t, "mock-token-12345", storedToken(t, store))
}

func TestSignIn_DemoFallbackCanceled(t *testing.T) {
	t.Parallel()

	store := sessions.NewStore(memory.New())
	ctx, cancel := context.WithCancel(t.Context())
	flow := New(authClient(t, offlineURL(t)), store,
		WithDemoFallback(true, DefaultDemoDelay),
		WithAfter(func(time.Duration) <-chan time.Time {
			cancel()
			return make(chan time.Time)
		}))

	err := flow.SignIn(ctx, DemoEmail, DemoPassword, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, storedToken(t, store))
}

type failingStore struct{}

func (failingStore) Set(context.Context, string, time.Duration) error {
	return &sessions.StorageError{Op: "set", Err: errors.New("read-only file system")}
}
func (failingStore) Clear(context.Context) error { return nil }

func TestSignIn_StorageFailure(t *testing.T) {
	t.Parallel()

	var hooks int
	flow := New(authClient(t, newMockAuthAPI(t).URL), failingStore{}, OnSignIn(func() { hooks++ }))

	err := flow.SignIn(t.Context(), "alex@design.co", "secret", nil)
	var storageErr *sessions.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, MessageStorageUnavailable, Message(err))
	assert.Zero(t, hooks)
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "eve.holt@reqres.in", NormalizeEmail("\t Eve.Holt@ReqRes.in \n"))
	assert.Empty(t, Message(nil))
}
