// Package pebbleutil opens pebble databases with teamdash's defaults.
package pebbleutil

import (
	"context"
	"fmt"
	"os"

	"github.com/cockroachdb/pebble/v2"
	"github.com/cockroachdb/pebble/v2/vfs"

	"github.com/pomerium/teamdash/internal/log"
)

// Open opens a pebble database in dirname. Files are created 0600 and
// directories 0700, and pebble's own logging is routed through zerolog.
func Open(dirname string, options *pebble.Options) (*pebble.DB, error) {
	if options == nil {
		options = new(pebble.Options)
	}
	options.LoggerAndTracer = pebbleLogger{}
	if options.FS == nil {
		options.FS = secureFS{FS: vfs.Default}
	}
	db, err := pebble.Open(dirname, options)
	if err != nil {
		return nil, fmt.Errorf("pebbleutil: failed to open %q: %w", dirname, err)
	}
	return db, nil
}

// OpenMemory opens a pebble database backed by an in-memory filesystem.
func OpenMemory(options *pebble.Options) (*pebble.DB, error) {
	if options == nil {
		options = new(pebble.Options)
	}
	options.FS = vfs.NewMem()
	return Open("", options)
}

type pebbleLogger struct{}

func (pebbleLogger) Infof(format string, args ...any) {
	log.Debug(context.Background()).Str("component", "pebble").Msgf(format, args...)
}

func (pebbleLogger) Errorf(format string, args ...any) {
	log.Error(context.Background()).Str("component", "pebble").Msgf(format, args...)
}

func (pebbleLogger) Fatalf(format string, args ...any) {
	log.Fatal().Str("component", "pebble").Msgf(format, args...)
}

func (pebbleLogger) Eventf(_ context.Context, _ string, _ ...any) {}
func (pebbleLogger) IsTracingEnabled(_ context.Context) bool      { return false }

// secureFS restricts files to 0600 and directories to 0700.
type secureFS struct{ vfs.FS }

func (s secureFS) Create(name string, category vfs.DiskWriteCategory) (vfs.File, error) {
	f, err := s.FS.Create(name, category)
	if err != nil {
		return nil, fmt.Errorf("create %q: %w", name, err)
	}
	if err := os.Chmod(name, 0o600); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return nil, fmt.Errorf("chmod %q: %w", name, err)
	}
	return f, nil
}

func (s secureFS) MkdirAll(path string, _ os.FileMode) error {
	return s.FS.MkdirAll(path, 0o700)
}

func (s secureFS) ReuseForWrite(name, oldname string, category vfs.DiskWriteCategory) (vfs.File, error) {
	f, err := s.FS.ReuseForWrite(name, oldname, category)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(name, 0o600); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("chmod %q: %w", name, err)
	}
	return f, nil
}
