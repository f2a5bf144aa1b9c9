// Package testutil contains helpers shared by the teamdash tests.
package testutil

import (
	"bytes"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pomerium/teamdash/internal/log"
)

// SetLogger sets the given logger as the global logger for the remainder of
// the current test. Because the logger is global, this must not be called from
// parallel tests.
func SetLogger(t testing.TB, logger *zerolog.Logger) {
	t.Helper()

	original := log.Logger()
	t.Cleanup(func() { log.SetLogger(original) })
	log.SetLogger(logger)
}

// LogBuffer is a goroutine-safe buffer for captured log output.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// CaptureLogs installs a global logger writing JSON lines into the returned
// buffer for the remainder of the test.
func CaptureLogs(t testing.TB) *LogBuffer {
	t.Helper()

	buf := new(LogBuffer)
	l := zerolog.New(buf).Level(zerolog.DebugLevel)
	SetLogger(t, &l)
	return buf
}
