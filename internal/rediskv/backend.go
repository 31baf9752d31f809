// Package rediskv implements the Redis backend for the sdctrack storage core.
// States are JSON strings, indexes are sorted sets scored by a per-index
// sequence counter so listing follows insertion order.
package rediskv

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/mesh-intelligence/sdctrack/pkg/types"
)

// Compile-time interface check.
var _ types.Backend = (*Backend)(nil)

// indexAddScript appends ARGV[1] to the index unless it is already a member.
var indexAddScript = redis.NewScript(`
if redis.call('ZSCORE', KEYS[1], ARGV[1]) then
  return 0
end
local seq = redis.call('INCR', KEYS[2])
redis.call('ZADD', KEYS[1], seq, ARGV[1])
return 1
`)

// Backend implements types.Backend on a Redis server.
// It is safe for concurrent use.
type Backend struct {
	mu        sync.RWMutex
	rdb       *redis.Client
	namespace string
}

// NewBackend creates a new Redis backend. Call Attach to connect.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach connects to the server in config.Redis and verifies it answers.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.rdb != nil {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Redis.Addr,
		Password: config.Redis.Password,
		DB:       config.Redis.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		rdb.Close()
		return fmt.Errorf("failed to connect to Redis at %s: %w", config.Redis.Addr, err)
	}

	b.rdb = rdb
	b.namespace = config.Redis.GetNamespace()
	return nil
}

// Detach closes the Redis connection. Idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.rdb == nil {
		return nil
	}
	err := b.rdb.Close()
	b.rdb = nil
	return err
}

// client returns the live client or ErrDetached.
func (b *Backend) client() (*redis.Client, string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.rdb == nil {
		return nil, "", types.ErrDetached
	}
	return b.rdb, b.namespace, nil
}

// GetState returns the JSON stored under (entity, id).
func (b *Backend) GetState(ctx context.Context, entity, id string) ([]byte, bool, error) {
	rdb, ns, err := b.client()
	if err != nil {
		return nil, false, err
	}

	data, err := rdb.Get(ctx, StateKey(ns, entity, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read state %s/%s: %w", entity, id, err)
	}
	return data, true, nil
}

// PutState writes the state and records its id in one MULTI/EXEC.
func (b *Backend) PutState(ctx context.Context, entity, id string, state []byte) error {
	rdb, ns, err := b.client()
	if err != nil {
		return err
	}

	_, err = rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, StateKey(ns, entity, id), state, 0)
		pipe.SAdd(ctx, StateSetKey(ns, entity), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write state %s/%s: %w", entity, id, err)
	}
	return nil
}

// DeleteState removes the state and its id in one MULTI/EXEC.
func (b *Backend) DeleteState(ctx context.Context, entity, id string) (bool, error) {
	rdb, ns, err := b.client()
	if err != nil {
		return false, err
	}

	var del *redis.IntCmd
	_, err = rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, StateKey(ns, entity, id))
		pipe.SRem(ctx, StateSetKey(ns, entity), id)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete state %s/%s: %w", entity, id, err)
	}
	return del.Val() > 0, nil
}

// StateIDs returns every stored id for entity, sorted.
func (b *Backend) StateIDs(ctx context.Context, entity string) ([]string, error) {
	rdb, ns, err := b.client()
	if err != nil {
		return nil, err
	}

	ids, err := rdb.SMembers(ctx, StateSetKey(ns, entity)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list state ids for %s: %w", entity, err)
	}
	sort.Strings(ids)
	return ids, nil
}

// IndexList returns the members of index in insertion order.
func (b *Backend) IndexList(ctx context.Context, index string) ([]string, error) {
	rdb, ns, err := b.client()
	if err != nil {
		return nil, err
	}

	ids, err := rdb.ZRange(ctx, IndexKey(ns, index), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list index %s: %w", index, err)
	}
	return ids, nil
}

// IndexAdd appends id to index unless it is already a member.
func (b *Backend) IndexAdd(ctx context.Context, index, id string) error {
	rdb, ns, err := b.client()
	if err != nil {
		return err
	}

	keys := []string{IndexKey(ns, index), IndexSeqKey(ns, index)}
	if err := indexAddScript.Run(ctx, rdb, keys, id).Err(); err != nil {
		return fmt.Errorf("failed to add %s to index %s: %w", id, index, err)
	}
	return nil
}

// IndexRemove removes id from index if present.
func (b *Backend) IndexRemove(ctx context.Context, index, id string) error {
	rdb, ns, err := b.client()
	if err != nil {
		return err
	}

	if err := rdb.ZRem(ctx, IndexKey(ns, index), id).Err(); err != nil {
		return fmt.Errorf("failed to remove %s from index %s: %w", id, index, err)
	}
	return nil
}

// IndexCount returns the cardinality of index.
func (b *Backend) IndexCount(ctx context.Context, index string) (int, error) {
	rdb, ns, err := b.client()
	if err != nil {
		return 0, err
	}

	n, err := rdb.ZCard(ctx, IndexKey(ns, index)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count index %s: %w", index, err)
	}
	return int(n), nil
}
