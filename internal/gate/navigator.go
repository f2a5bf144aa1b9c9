package gate

import (
	"context"
	"sync/atomic"

	"github.com/pomerium/teamdash/internal/log"
)

//go:generate go run go.uber.org/mock/mockgen -destination ./mock_gate/mock_gate.go . Navigator

// A Navigator sends the user to another place in the application, such as
// the login page.
type Navigator interface {
	Navigate(ctx context.Context, target string)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(ctx context.Context, target string)

// Navigate calls f(ctx, target).
func (f NavigatorFunc) Navigate(ctx context.Context, target string) {
	f(ctx, target)
}

// Once passes the first navigation through to the wrapped Navigator and
// drops the rest until Reset is called.
type Once struct {
	next  Navigator
	fired atomic.Bool
}

// NewOnce wraps next.
func NewOnce(next Navigator) *Once {
	return &Once{next: next}
}

// Navigate implements Navigator.
func (o *Once) Navigate(ctx context.Context, target string) {
	if !o.fired.CompareAndSwap(false, true) {
		log.Debug(ctx).Str("target", target).Msg("gate: navigation already in progress")
		return
	}
	o.next.Navigate(ctx, target)
}

// Fired reports whether a navigation happened since the last Reset.
func (o *Once) Fired() bool {
	return o.fired.Load()
}

// Reset re-arms o, typically after a successful sign-in.
func (o *Once) Reset() {
	o.fired.Store(false)
}
