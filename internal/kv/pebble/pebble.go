// Package pebble contains a kv.Store backed by a pebble database.
package pebble

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/cockroachdb/pebble/v2"

	"github.com/pomerium/teamdash/internal/kv"
	"github.com/pomerium/teamdash/pkg/pebbleutil"
)

var _ kv.Store = (*Store)(nil)

// Name is the storage backend name.
const Name = "pebble"

// Store is a kv.Store backed by pebble. Pebble holds an exclusive lock on
// its directory, so only one process may open a Store at a time.
type Store struct {
	mu sync.RWMutex
	db *pebble.DB
}

// Open opens or creates a Store in the directory dirname.
func Open(dirname string) (*Store, error) {
	db, err := pebbleutil.Open(dirname, nil)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

// OpenMemory opens a Store that keeps its data in memory.
func OpenMemory() (*Store, error) {
	db, err := pebbleutil.OpenMemory(nil)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

// New wraps an already opened database. The Store owns db from then on.
func New(db *pebble.DB) *Store {
	return &Store{db: db}
}

// Get implements kv.Store.
func (s *Store) Get(_ context.Context, keys ...string) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, kv.ErrClosed
	}

	snapshot := s.db.NewSnapshot()
	defer snapshot.Close()

	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		v, closer, err := snapshot.Get([]byte(k))
		if errors.Is(err, pebble.ErrNotFound) {
			continue
		} else if err != nil {
			return nil, fmt.Errorf("pebble: failed to get %q: %w", k, err)
		}
		out[k] = slices.Clone(v)
		_ = closer.Close()
	}
	return out, nil
}

// Apply implements kv.Store. Batches are serialized so that expectations
// and writes see the same state.
func (s *Store) Apply(_ context.Context, b *kv.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return kv.ErrClosed
	}

	err := kv.CheckExpectations(b, func(key string) ([]byte, bool, error) {
		v, closer, err := s.db.Get([]byte(key))
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, false, nil
		} else if err != nil {
			return nil, false, fmt.Errorf("pebble: failed to get %q: %w", key, err)
		}
		defer closer.Close()
		return slices.Clone(v), true, nil
	})
	if err != nil {
		return err
	}

	batch := s.db.NewBatch()
	defer batch.Close()

	for _, op := range b.Ops() {
		var err error
		switch op.Kind {
		case kv.OpSet:
			err = batch.Set([]byte(op.Key), op.Value, nil)
		case kv.OpDelete:
			err = batch.Delete([]byte(op.Key), nil)
		}
		if err != nil {
			return fmt.Errorf("pebble: failed to build batch: %w", err)
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("pebble: failed to commit batch: %w", err)
	}
	return nil
}

// Close implements kv.Store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
