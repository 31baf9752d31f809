package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/sdctrack/pkg/types"
)

// GetState returns the blob stored under (entity, id).
func (b *Backend) GetState(ctx context.Context, entity, id string) ([]byte, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, false, types.ErrDetached
	}

	var state string
	err := b.db.QueryRowContext(ctx,
		"SELECT state FROM entity_states WHERE entity = ? AND entity_id = ?",
		entity, id,
	).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("getting state %s/%s: %w", entity, id, err)
	}
	return []byte(state), true, nil
}

// PutState inserts or replaces the blob stored under (entity, id) and
// persists states.jsonl according to the sync strategy.
func (b *Backend) PutState(ctx context.Context, entity, id string, state []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrDetached
	}

	_, err := b.db.ExecContext(ctx,
		`INSERT INTO entity_states (entity, entity_id, state, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (entity, entity_id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		entity, id, string(state), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("putting state %s/%s: %w", entity, id, err)
	}

	if err := b.persist(statesJSONL); err != nil {
		return fmt.Errorf("persisting %s: %w", statesJSONL, err)
	}
	return nil
}

// DeleteState removes the blob stored under (entity, id).
func (b *Backend) DeleteState(ctx context.Context, entity, id string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return false, types.ErrDetached
	}

	res, err := b.db.ExecContext(ctx,
		"DELETE FROM entity_states WHERE entity = ? AND entity_id = ?",
		entity, id,
	)
	if err != nil {
		return false, fmt.Errorf("deleting state %s/%s: %w", entity, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting state %s/%s: %w", entity, id, err)
	}
	if n == 0 {
		return false, nil
	}

	if err := b.persist(statesJSONL); err != nil {
		return true, fmt.Errorf("persisting %s: %w", statesJSONL, err)
	}
	return true, nil
}

// StateIDs returns every stored id for entity, sorted.
func (b *Backend) StateIDs(ctx context.Context, entity string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}

	rows, err := b.db.QueryContext(ctx,
		"SELECT entity_id FROM entity_states WHERE entity = ? ORDER BY entity_id",
		entity,
	)
	if err != nil {
		return nil, fmt.Errorf("listing state ids for %s: %w", entity, err)
	}
	return scanIDs(rows)
}

// scanIDs drains rows holding a single text column.
func scanIDs(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ids: %w", err)
	}
	return ids, nil
}
