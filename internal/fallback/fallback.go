// Package fallback degrades a failed fetch to locally available content.
package fallback

import (
	"context"

	"github.com/pomerium/teamdash/internal/log"
)

// Fetch returns the result of primary. If primary fails the failure is
// logged and the result of local is returned instead, so Fetch never fails.
func Fetch[T any](ctx context.Context, primary func(context.Context) (T, error), local func() T) T {
	v, err := primary(ctx)
	if err == nil {
		return v
	}
	log.Warn(ctx).Err(err).Msg("fallback: fetch failed, using local content")
	return local()
}
