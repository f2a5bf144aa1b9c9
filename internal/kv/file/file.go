// Package file contains a kv.Store persisted as a single JSON document.
//
// The document is re-read on every access and replaced atomically on every
// write, so several processes may share one file. An advisory lock on a
// sibling ".lock" file serializes writers across processes.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/pomerium/teamdash/internal/fileutil"
	"github.com/pomerium/teamdash/internal/kv"
	"github.com/pomerium/teamdash/internal/log"
)

var _ kv.Store = (*Store)(nil)

// Name is the storage backend name.
const Name = "file"

// Store is a kv.Store backed by a JSON file.
type Store struct {
	path string
	lock *flock.Flock

	mu     sync.Mutex
	closed bool
}

// New creates a Store at path. The file is created on the first write.
func New(path string) *Store {
	return &Store{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the document path.
func (s *Store) Path() string {
	return s.path
}

// Get implements kv.Store.
func (s *Store) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, kv.ErrClosed
	}
	if err := s.ensureDir(); err != nil {
		return nil, err
	}
	if err := s.lock.RLock(); err != nil {
		return nil, fmt.Errorf("file: failed to acquire read lock: %w", err)
	}
	defer s.unlock(ctx)

	doc, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := doc[k]; ok {
			out[k] = []byte(v)
		}
	}
	return out, nil
}

// Apply implements kv.Store.
func (s *Store) Apply(ctx context.Context, b *kv.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return kv.ErrClosed
	}
	if err := s.ensureDir(); err != nil {
		return err
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("file: failed to acquire write lock: %w", err)
	}
	defer s.unlock(ctx)

	doc, err := s.read(ctx)
	if err != nil {
		return err
	}
	err = kv.CheckExpectations(b, func(key string) ([]byte, bool, error) {
		v, ok := doc[key]
		return []byte(v), ok, nil
	})
	if err != nil {
		return err
	}
	for _, op := range b.Ops() {
		switch op.Kind {
		case kv.OpSet:
			doc[op.Key] = string(op.Value)
		case kv.OpDelete:
			delete(doc, op.Key)
		}
	}

	bs, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("file: failed to encode document: %w", err)
	}
	return fileutil.WriteFileAtomically(s.path, bs, 0o600)
}

// Close implements kv.Store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return s.lock.Close()
}

func (s *Store) ensureDir() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("file: failed to create directory: %w", err)
	}
	return nil
}

// read loads the document. A missing file is an empty document. A file that
// cannot be decoded is logged and treated as empty so the next write
// replaces it.
func (s *Store) read(ctx context.Context) (map[string]string, error) {
	doc := make(map[string]string)
	bs, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	} else if err != nil {
		return nil, fmt.Errorf("file: failed to read %s: %w", s.path, err)
	}
	if len(bs) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(bs, &doc); err != nil {
		log.Warn(ctx).Err(err).Str("path", s.path).Msg("file: ignoring unreadable session document")
		return make(map[string]string), nil
	}
	return doc, nil
}

func (s *Store) unlock(ctx context.Context) {
	if err := s.lock.Unlock(); err != nil {
		log.Error(ctx).Err(err).Str("path", s.path).Msg("file: failed to release lock")
	}
}
