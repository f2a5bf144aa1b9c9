// Package kv defines the durable key-value storage that session state is
// persisted in.
package kv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by a Store that has been closed.
	ErrClosed = errors.New("kv: store is closed")
	// ErrConflict is returned by Apply when an expectation in the batch does
	// not hold. Nothing in the batch is applied.
	ErrConflict = errors.New("kv: conditional write conflict")
)

// Store is a string-keyed byte store.
type Store interface {
	// Get reads keys from a single consistent view of the store. Missing
	// keys are absent from the returned map.
	Get(ctx context.Context, keys ...string) (map[string][]byte, error)
	// Apply commits every operation in b atomically. Deleting a missing
	// key is not an error. Expectations are checked against the stored
	// values under the same lock as the writes.
	Apply(ctx context.Context, b *Batch) error
	// Close releases the store's resources.
	Close() error
}

// OpKind is the kind of a batch operation.
type OpKind int

const (
	OpSet OpKind = iota
	OpDelete
	OpExpect
	OpExpectAbsent
)

// Op is a single operation in a Batch.
type Op struct {
	Kind  OpKind
	Key   string
	Value []byte
}

// A Batch collects Set and Delete operations that are applied together,
// optionally guarded by expectations on the current values.
type Batch struct {
	ops []Op
}

// NewBatch returns an empty Batch.
func NewBatch() *Batch {
	return new(Batch)
}

// Set adds a Set operation and returns b.
func (b *Batch) Set(key string, value []byte) *Batch {
	b.ops = append(b.ops, Op{Kind: OpSet, Key: key, Value: value})
	return b
}

// Delete adds a Delete operation for each key and returns b.
func (b *Batch) Delete(keys ...string) *Batch {
	for _, key := range keys {
		b.ops = append(b.ops, Op{Kind: OpDelete, Key: key})
	}
	return b
}

// Expect makes the batch fail with ErrConflict unless key currently holds
// value.
func (b *Batch) Expect(key string, value []byte) *Batch {
	b.ops = append(b.ops, Op{Kind: OpExpect, Key: key, Value: value})
	return b
}

// ExpectAbsent makes the batch fail with ErrConflict if key is present.
func (b *Batch) ExpectAbsent(key string) *Batch {
	b.ops = append(b.ops, Op{Kind: OpExpectAbsent, Key: key})
	return b
}

// Ops returns the operations in the order they were added.
func (b *Batch) Ops() []Op {
	return b.ops
}

// Len returns the number of operations.
func (b *Batch) Len() int {
	return len(b.ops)
}

// CheckExpectations verifies every expectation in b using lookup, which
// reports the current value of a key and whether it is present. Store
// implementations call it while holding their write lock.
func CheckExpectations(b *Batch, lookup func(key string) ([]byte, bool, error)) error {
	for _, op := range b.ops {
		if op.Kind != OpExpect && op.Kind != OpExpectAbsent {
			continue
		}
		v, ok, err := lookup(op.Key)
		if err != nil {
			return err
		}
		switch {
		case op.Kind == OpExpectAbsent && ok:
			return fmt.Errorf("%w: %q is present", ErrConflict, op.Key)
		case op.Kind == OpExpect && !ok:
			return fmt.Errorf("%w: %q is missing", ErrConflict, op.Key)
		case op.Kind == OpExpect && !bytes.Equal(v, op.Value):
			return fmt.Errorf("%w: %q has changed", ErrConflict, op.Key)
		}
	}
	return nil
}
