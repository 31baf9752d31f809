package entity

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/sdctrack/pkg/types"
)

// Store owns the backend and the lock tables shared by every Table bound to
// it. Bind all descriptors of a process to one Store so that tables for the
// same entity share cell locks. When the backend implements types.KeyLocker,
// each lock is also taken in the backend, which serializes Stores in
// different processes.
type Store struct {
	backend types.Backend
	locker  types.KeyLocker // nil for single-process backends
	cells   *keyLocks       // keyed by cellKey
	seeds   *keyLocks       // keyed by seedKey
	logger  *slog.Logger
	newID   func() string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for integrity faults, seeding, and
// orphan collection.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIDGenerator replaces the UUID v7 generator used when a created state
// has no id.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewStore wraps an attached backend.
func NewStore(backend types.Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		cells:   newKeyLocks(),
		seeds:   newKeyLocks(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID:   newUUID,
	}
	if locker, ok := backend.(types.KeyLocker); ok {
		s.locker = locker
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend returns the underlying key space.
func (s *Store) Backend() types.Backend {
	return s.backend
}

// Logger returns the store logger.
func (s *Store) Logger() *slog.Logger {
	return s.logger
}

// newUUID generates a UUID v7 string, falling back to v4.
func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// Lock holds key until the returned function is called. It uses the same
// lock tables as the cells, so callers can serialize work that spans
// several ids, such as a uniqueness check followed by a create.
func (s *Store) Lock(ctx context.Context, key string) (func(), error) {
	return s.lock(ctx, s.cells, "app/"+key)
}

// lock takes key in locks and then in the backend locker, if any.
func (s *Store) lock(ctx context.Context, locks *keyLocks, key string) (func(), error) {
	unlock := locks.lock(key)
	if s.locker == nil {
		return unlock, nil
	}

	release, err := s.locker.LockKey(ctx, key)
	if err != nil {
		unlock()
		return nil, fmt.Errorf("locking %s: %w", key, err)
	}
	return func() {
		if err := release(); err != nil {
			s.logger.Warn("releasing backend lock", "key", key, "error", err)
		}
		unlock()
	}, nil
}

func cellKey(entity, id string) string {
	return "state/" + entity + "/" + id
}

func seedKey(index string) string {
	return "seed/" + index
}
