package authclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type M = map[string]any

func newMockAPI(t *testing.T) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/api/login", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(M{"error": "bad json"})
			return
		}
		switch {
		case body.Email == "eve.holt@reqres.in" && body.Password == "cityslicka":
			_ = json.NewEncoder(w).Encode(M{"token": "QpwL5tke4Pnpja7X4"})
		case body.Email == "no-token@example.com":
			_ = json.NewEncoder(w).Encode(M{"id": 4})
		case body.Email == "silent@example.com":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(M{"error": "user not found"})
		}
	})
	return r
}

func newTestClient(t *testing.T) *AuthClient {
	srv := httptest.NewServer(newMockAPI(t))
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL + "/api/login")
	require.NoError(t, err)
	return New(WithURL(u), WithHTTPClient(srv.Client()))
}

func TestSignIn(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)

	token, err := client.SignIn(t.Context(), "eve.holt@reqres.in", "cityslicka")
	require.NoError(t, err)
	assert.Equal(t, "QpwL5tke4Pnpja7X4", token)
}

func TestSignIn_Rejected(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)

	for _, tc := range []struct {
		email      string
		wantStatus int
		wantMsg    string
	}{
		{"someone@example.com", http.StatusBadRequest, "user not found"},
		{"silent@example.com", http.StatusUnauthorized, "Invalid credentials"},
		{"no-token@example.com", http.StatusOK, "response did not contain a token"},
	} {
		_, err := client.SignIn(t.Context(), tc.email, "pw")
		var rejected *RejectedError
		require.ErrorAs(t, err, &rejected, tc.email)
		assert.Equal(t, tc.wantStatus, rejected.Status)
		assert.Equal(t, tc.wantMsg, rejected.Message)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.NotErrorIs(t, err, ErrNetworkUnavailable)
	}
}

func TestSignIn_NetworkUnavailable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	u, err := url.Parse(srv.URL + "/api/login")
	require.NoError(t, err)
	srv.Close()

	_, err = New(WithURL(u)).SignIn(t.Context(), "eve.holt@reqres.in", "cityslicka")
	assert.ErrorIs(t, err, ErrNetworkUnavailable)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignIn_Canceled(t *testing.T) {
	t.Parallel()

	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-r.Context().Done():
		case <-done:
		}
	}))
	t.Cleanup(srv.Close)
	// runs before srv.Close
	t.Cleanup(func() { close(done) })
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()
	_, err = New(WithURL(u)).SignIn(ctx, "a@b.c", "pw")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
