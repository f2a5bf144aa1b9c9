package fallback_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pomerium/teamdash/internal/fallback"
	"github.com/pomerium/teamdash/internal/testutil"
)

func TestFetch(t *testing.T) {
	logs := testutil.CaptureLogs(t)

	var localCalls int
	local := func() []string {
		localCalls++
		return []string{"local"}
	}

	got := fallback.Fetch(t.Context(), func(context.Context) ([]string, error) {
		return []string{"remote"}, nil
	}, local)
	assert.Equal(t, []string{"remote"}, got)
	assert.Zero(t, localCalls)
	assert.Empty(t, logs.String())

	got = fallback.Fetch(t.Context(), func(context.Context) ([]string, error) {
		return nil, errors.New("503 Service Unavailable")
	}, local)
	assert.Equal(t, []string{"local"}, got)
	assert.Equal(t, 1, localCalls)
	assert.Contains(t, logs.String(), "503 Service Unavailable")
	assert.Contains(t, logs.String(), `"level":"warn"`)
}

func TestFetch_PassesContext(t *testing.T) {
	t.Parallel()

	type key struct{}
	ctx := context.WithValue(t.Context(), key{}, "v")
	got := fallback.Fetch(ctx, func(ctx context.Context) (string, error) {
		return ctx.Value(key{}).(string), nil
	}, func() string { return "" })
	assert.Equal(t, "v", got)
}
