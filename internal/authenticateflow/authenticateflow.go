// Package authenticateflow implements signing in and out: exchanging
// credentials for a token, storing the session and turning failures into
// messages for the user.
package authenticateflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/pomerium/teamdash/internal/authclient"
	"github.com/pomerium/teamdash/internal/log"
	"github.com/pomerium/teamdash/internal/sessions"
	"github.com/pomerium/teamdash/internal/telemetry/metrics"
)

// Demo credentials accepted by the offline fallback.
const (
	DemoEmail    = "eve.holt@reqres.in"
	DemoPassword = "cityslicka"
	DemoToken    = "mock-token-12345"
)

// DefaultDemoDelay is how long the offline fallback waits before signing in.
const DefaultDemoDelay = 1500 * time.Millisecond

// Messages shown to the user.
const (
	MessageInvalidCredentials = "Invalid credentials. Please try again."
	MessageNetworkUnavailable = "Network unavailable."
	MessageStorageUnavailable = "Unable to save the session."
	StatusOfflineFallback     = "Connecting to offline fallback..."
)

// A SignInClient exchanges credentials for a token.
type SignInClient interface {
	SignIn(ctx context.Context, email, password string) (string, error)
}

// A SessionStore keeps the signed-in session.
type SessionStore interface {
	Set(ctx context.Context, token string, ttl time.Duration) error
	Clear(ctx context.Context) error
}

// Flow signs users in and out.
type Flow struct {
	client SignInClient
	store  SessionStore
	cfg    *config
}

// New creates a new Flow.
func New(client SignInClient, store SessionStore, options ...Option) *Flow {
	return &Flow{
		client: client,
		store:  store,
		cfg:    getConfig(options...),
	}
}

// NormalizeEmail trims surrounding whitespace and lower-cases email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignIn exchanges the credentials for a token and stores it.
//
// When the demo fallback is enabled and the demo credentials were given,
// any failure to reach or convince the endpoint is replaced by a local
// sign-in with DemoToken after the configured delay. onStatus, if not nil,
// receives progress messages.
func (f *Flow) SignIn(ctx context.Context, email, password string, onStatus func(string)) error {
	email = NormalizeEmail(email)

	token, err := f.client.SignIn(ctx, email, password)
	if err == nil {
		if err := f.complete(ctx, token); err != nil {
			metrics.RecordSignIn(metrics.SignInFailed)
			return err
		}
		metrics.RecordSignIn(metrics.SignInSuccess)
		log.Info(ctx).Str("email", email).Msg("authenticateflow: signed in")
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	if f.cfg.demoFallback && email == DemoEmail && password == DemoPassword {
		log.Warn(ctx).Err(err).Msg("authenticateflow: sign-in failed, using offline fallback")
		if onStatus != nil {
			onStatus(StatusOfflineFallback)
		}
		select {
		case <-f.cfg.after(f.cfg.demoDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if err := f.complete(ctx, DemoToken); err != nil {
			metrics.RecordSignIn(metrics.SignInFailed)
			return err
		}
		metrics.RecordSignIn(metrics.SignInFallback)
		return nil
	}

	switch {
	case errors.Is(err, authclient.ErrNetworkUnavailable):
		metrics.RecordSignIn(metrics.SignInNetwork)
	case errors.Is(err, authclient.ErrInvalidCredentials):
		metrics.RecordSignIn(metrics.SignInRejected)
	default:
		metrics.RecordSignIn(metrics.SignInFailed)
	}
	log.Info(ctx).Err(err).Str("email", email).Msg("authenticateflow: sign-in failed")
	return err
}

func (f *Flow) complete(ctx context.Context, token string) error {
	if err := f.store.Set(ctx, token, f.cfg.sessionTTL); err != nil {
		return err
	}
	for _, fn := range f.cfg.onSignIn {
		fn()
	}
	return nil
}

// SignOut removes the stored session.
func (f *Flow) SignOut(ctx context.Context) error {
	if err := f.store.Clear(ctx); err != nil {
		return err
	}
	log.Info(ctx).Msg("authenticateflow: signed out")
	return nil
}

// Message returns the text to show the user for a SignIn error.
func Message(err error) string {
	var storageErr *sessions.StorageError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, authclient.ErrNetworkUnavailable):
		return MessageNetworkUnavailable
	case errors.As(err, &storageErr):
		return MessageStorageUnavailable
	default:
		return MessageInvalidCredentials
	}
}
