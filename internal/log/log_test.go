package log_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/pomerium/teamdash/internal/log"
)

func TestContextLogger(t *testing.T) {
	var global, scoped bytes.Buffer

	original := log.Logger()
	t.Cleanup(func() { log.SetLogger(original) })
	l := zerolog.New(&global)
	log.SetLogger(&l)

	log.Info(context.Background()).Msg("to global")
	assert.Equal(t, `{"level":"info","message":"to global"}`+"\n", global.String())

	sl := zerolog.New(&scoped)
	ctx := sl.WithContext(context.Background())
	ctx = log.WithContext(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Str("component", "gate")
	})
	log.Warn(ctx).Msg("to scoped")
	assert.Equal(t, `{"level":"warn","component":"gate","message":"to scoped"}`+"\n", scoped.String())
}
