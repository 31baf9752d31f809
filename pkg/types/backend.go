package types

import "context"

// StateStore persists one JSON state blob per (entity, id) pair.
// Implementations do not serialize callers; per-id isolation is the
// responsibility of the entity layer above, helped by KeyLocker on shared
// backends.
type StateStore interface {
	// GetState returns the stored blob and true, or nil and false when
	// nothing is stored under (entity, id).
	GetState(ctx context.Context, entity, id string) ([]byte, bool, error)

	// PutState overwrites the blob stored under (entity, id).
	PutState(ctx context.Context, entity, id string, state []byte) error

	// DeleteState removes the blob and reports whether one existed.
	DeleteState(ctx context.Context, entity, id string) (bool, error)

	// StateIDs returns every id with a stored blob for entity, in no
	// particular order.
	StateIDs(ctx context.Context, entity string) ([]string, error)
}

// IndexStore persists ordered, duplicate-free id lists keyed by index name.
// Each method is atomic on its own.
type IndexStore interface {
	// IndexList returns ids in insertion order.
	IndexList(ctx context.Context, index string) ([]string, error)

	// IndexAdd appends id unless it is already present.
	IndexAdd(ctx context.Context, index, id string) error

	// IndexRemove removes id if present.
	IndexRemove(ctx context.Context, index, id string) error

	// IndexCount returns the number of ids in the index.
	IndexCount(ctx context.Context, index string) (int, error)
}

// Backend is the persisted key space behind the entity store. Callers
// attach to a backend, use it, and detach when done.
type Backend interface {
	StateStore
	IndexStore

	// Attach connects the backend described by config. Returns
	// ErrAlreadyAttached if called while attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent. After Detach, other
	// operations return ErrDetached.
	Detach() error
}

// KeyLocker is implemented by backends that several processes share. The
// entity layer takes a backend lock around every per-id operation so that
// processes cannot interleave read-modify-write cycles on one id.
type KeyLocker interface {
	// LockKey blocks until key is held or ctx is done, and returns the
	// function that releases it.
	LockKey(ctx context.Context, key string) (release func() error, err error)
}
