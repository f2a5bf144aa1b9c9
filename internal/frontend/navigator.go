package frontend

import (
	"context"
	"sync"

	"github.com/pomerium/teamdash/internal/gate"
)

type navigationKey struct{}

type navigation struct {
	mu     sync.Mutex
	target string
}

// withNavigation returns a context that records navigations requested
// while serving a single request.
func withNavigation(ctx context.Context) context.Context {
	return context.WithValue(ctx, navigationKey{}, &navigation{})
}

// navigationTarget returns the last target recorded in ctx.
func navigationTarget(ctx context.Context) string {
	nav, ok := ctx.Value(navigationKey{}).(*navigation)
	if !ok {
		return ""
	}
	nav.mu.Lock()
	defer nav.mu.Unlock()
	return nav.target
}

// Navigator returns a gate.Navigator that records the target on the
// request being served. The handler turns it into a redirect once the
// outbound calls are done. Navigations outside a request are ignored.
func Navigator() gate.Navigator {
	return gate.NavigatorFunc(func(ctx context.Context, target string) {
		nav, ok := ctx.Value(navigationKey{}).(*navigation)
		if !ok {
			return
		}
		nav.mu.Lock()
		nav.target = target
		nav.mu.Unlock()
	})
}
