// Package sessions persists the bearer token that authenticates the user
// against the remote API, along with its expiry.
package sessions

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/pomerium/teamdash/internal/kv"
	"github.com/pomerium/teamdash/internal/log"
)

// Storage keys.
const (
	TokenKey  = "auth_token"
	ExpiryKey = "auth_token_expiry"
)

// DefaultTTL is how long a newly stored session stays valid.
const DefaultTTL = time.Hour

// maxDiscardAttempts bounds how often Load re-reads when another writer
// replaces the session it is about to discard.
const maxDiscardAttempts = 3

// Session is a stored bearer token.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// Valid reports whether the session is still usable at now.
func (s *Session) Valid(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// An Option customizes a Store.
type Option func(*Store)

// WithClock sets the function used to read the current time.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store reads and writes the session in a kv.Store. Reading an expired or
// malformed session removes it, so a stale token is never returned.
type Store struct {
	kv  kv.Store
	now func() time.Time

	mu sync.Mutex
}

// NewStore creates a new Store.
func NewStore(kvs kv.Store, options ...Option) *Store {
	s := &Store{kv: kvs, now: time.Now}
	for _, o := range options {
		o(s)
	}
	return s
}

// Set stores token with an expiry of now+ttl, replacing any previous
// session. A ttl that is not positive stores an already expired session.
func (s *Store) Set(ctx context.Context, token string, ttl time.Duration) error {
	expiresAt := s.now().Add(ttl)
	// round up so a positive ttl never reads back as expired
	ms := expiresAt.UnixMilli()
	if time.UnixMilli(ms).Before(expiresAt) {
		ms++
	}
	b := kv.NewBatch().
		Set(TokenKey, []byte(token)).
		Set(ExpiryKey, []byte(strconv.FormatInt(ms, 10)))

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Apply(ctx, b); err != nil {
		return &StorageError{Op: "set", Err: err}
	}
	log.Debug(ctx).Time("expires-at", expiresAt).Msg("sessions: stored session")
	return nil
}

// Load returns the current session.
//
// It returns ErrNoSessionFound when no token is stored, ErrExpired when the
// stored session has expired and ErrMalformed when the expiry is missing or
// unreadable. Leftover state is cleared before any of these is returned,
// unless another writer replaced it first, in which case Load reads again.
func (s *Store) Load(ctx context.Context) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	for range maxDiscardAttempts {
		var values map[string][]byte
		values, err = s.kv.Get(ctx, TokenKey, ExpiryKey)
		if err != nil {
			return nil, &StorageError{Op: "load", Err: err}
		}
		session, reason := s.check(values)
		if reason == nil {
			return session, nil
		}
		if len(values) == 0 {
			return nil, reason
		}
		err = s.discardLocked(ctx, values, reason)
		if !errors.Is(err, kv.ErrConflict) {
			return nil, err
		}
		log.Debug(ctx).Err(err).Msg("sessions: session changed while discarding, reloading")
	}
	return nil, &StorageError{Op: "clear", Err: err}
}

// check validates the stored values. It returns the reason the values are
// unusable, or nil.
func (s *Store) check(values map[string][]byte) (*Session, error) {
	token := values[TokenKey]
	rawExpiry, hasExpiry := values[ExpiryKey]

	if len(token) == 0 {
		// nothing stored, stray expiry or empty token
		return nil, ErrNoSessionFound
	}
	if !hasExpiry {
		return nil, ErrMalformed
	}
	ms, err := strconv.ParseInt(string(rawExpiry), 10, 64)
	if err != nil {
		return nil, ErrMalformed
	}

	session := &Session{Token: string(token), ExpiresAt: time.UnixMilli(ms)}
	if !session.Valid(s.now()) {
		return nil, ErrExpired
	}
	return session, nil
}

// Get returns the current token. It fails like Load.
func (s *Store) Get(ctx context.Context) (string, error) {
	session, err := s.Load(ctx)
	if err != nil {
		return "", err
	}
	return session.Token, nil
}

// IsValid reports whether a usable session exists. Storage failures count
// as no session.
func (s *Store) IsValid(ctx context.Context) bool {
	_, err := s.Load(ctx)
	if err != nil && !IsNoSession(err) {
		log.Error(ctx).Err(err).Msg("sessions: failed to load session")
	}
	return err == nil
}

// Clear removes the stored session. Clearing when nothing is stored is not
// an error.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.clearLocked(ctx)
}

func (s *Store) clearLocked(ctx context.Context) error {
	if err := s.kv.Apply(ctx, kv.NewBatch().Delete(TokenKey, ExpiryKey)); err != nil {
		return &StorageError{Op: "clear", Err: err}
	}
	return nil
}

// discardLocked clears the values that were read and returns reason. The
// clear only happens if the stored values are still the ones that were read;
// otherwise it returns an error wrapping kv.ErrConflict. Any other storage
// failure is returned as a StorageError.
func (s *Store) discardLocked(ctx context.Context, values map[string][]byte, reason error) error {
	log.Debug(ctx).Err(reason).Msg("sessions: discarding stored session")
	b := kv.NewBatch()
	for _, key := range []string{TokenKey, ExpiryKey} {
		if v, ok := values[key]; ok {
			b.Expect(key, v)
		} else {
			b.ExpectAbsent(key)
		}
	}
	b.Delete(TokenKey, ExpiryKey)

	err := s.kv.Apply(ctx, b)
	if errors.Is(err, kv.ErrConflict) {
		return err
	} else if err != nil {
		return &StorageError{Op: "clear", Err: err}
	}
	return reason
}
