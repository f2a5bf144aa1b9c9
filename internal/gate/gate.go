// Package gate attaches the stored session token to outbound API requests
// and sends the user back to the login page when the API rejects it.
package gate

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pomerium/teamdash/internal/log"
	"github.com/pomerium/teamdash/internal/sessions"
	"github.com/pomerium/teamdash/internal/telemetry/metrics"
	"github.com/pomerium/teamdash/internal/tripper"
)

// DefaultLoginPath is where rejected users are sent.
const DefaultLoginPath = "/login"

// TokenSource provides and discards the current session token.
type TokenSource interface {
	// Get returns the current token, or an error satisfying
	// sessions.IsNoSession when there is none.
	Get(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

type config struct {
	loginPath string
}

// An Option customizes the gate.
type Option func(*config)

// WithLoginPath sets where rejected users are sent.
func WithLoginPath(path string) Option {
	return func(cfg *config) {
		cfg.loginPath = path
	}
}

func getConfig(options ...Option) *config {
	cfg := &config{loginPath: DefaultLoginPath}
	for _, o := range options {
		o(cfg)
	}
	return cfg
}

type gate struct {
	cfg    *config
	tokens TokenSource
	nav    Navigator
	next   http.RoundTripper
}

// New returns a tripper.Constructor for the gate.
//
// Before each request the current token, if any, is sent as a Bearer
// credential. Without a token the request is sent unauthenticated. When a
// response has status 401 the session is cleared and nav is asked to go to
// the login page. The response itself is returned unchanged and the request
// is never retried.
func New(tokens TokenSource, nav Navigator, options ...Option) tripper.Constructor {
	cfg := getConfig(options...)
	return func(next http.RoundTripper) http.RoundTripper {
		if next == nil {
			next = http.DefaultTransport
		}
		return &gate{cfg: cfg, tokens: tokens, nav: nav, next: next}
	}
}

func (g *gate) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	token, err := g.tokens.Get(ctx)
	switch {
	case err == nil:
		req = req.Clone(ctx)
		req.Header.Set("Authorization", "Bearer "+token)
	case sessions.IsNoSession(err):
	default:
		return nil, fmt.Errorf("gate: failed to read session: %w", err)
	}

	res, err := g.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode == http.StatusUnauthorized {
		g.reject(ctx, req)
	}
	return res, nil
}

func (g *gate) reject(ctx context.Context, req *http.Request) {
	log.Warn(ctx).
		Str("method", req.Method).
		Str("url", req.URL.Redacted()).
		Msg("gate: unauthorized access, token invalid or expired")
	metrics.RecordGateUnauthorized()

	if err := g.tokens.Clear(ctx); err != nil {
		log.Error(ctx).Err(err).Msg("gate: failed to clear session")
	}
	g.nav.Navigate(ctx, g.cfg.loginPath)
}
