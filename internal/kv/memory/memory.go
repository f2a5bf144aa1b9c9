// Package memory contains a kv.Store that lives only as long as the process.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/pomerium/teamdash/internal/kv"
)

var _ kv.Store = (*Store)(nil)

// Name is the storage backend name.
const Name = "memory"

// Store is an in-memory kv.Store.
type Store struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

// New creates a new, empty Store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Get implements kv.Store.
func (s *Store) Get(_ context.Context, keys ...string) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, kv.ErrClosed
	}
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := s.data[k]; ok {
			out[k] = slices.Clone(v)
		}
	}
	return out, nil
}

// Apply implements kv.Store.
func (s *Store) Apply(_ context.Context, b *kv.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return kv.ErrClosed
	}
	err := kv.CheckExpectations(b, func(key string) ([]byte, bool, error) {
		v, ok := s.data[key]
		return v, ok, nil
	})
	if err != nil {
		return err
	}
	for _, op := range b.Ops() {
		switch op.Kind {
		case kv.OpSet:
			s.data[op.Key] = slices.Clone(op.Value)
		case kv.OpDelete:
			delete(s.data, op.Key)
		}
	}
	return nil
}

// Close implements kv.Store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.data = nil
	return nil
}
