package sqlite

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/sdctrack/pkg/types"
)

// IndexList returns the ids of index in insertion order.
func (b *Backend) IndexList(ctx context.Context, index string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}

	rows, err := b.db.QueryContext(ctx,
		"SELECT entity_id FROM index_entries WHERE index_name = ? ORDER BY seq",
		index,
	)
	if err != nil {
		return nil, fmt.Errorf("listing index %s: %w", index, err)
	}
	return scanIDs(rows)
}

// IndexAdd appends id to index unless present. The sequence number and the
// insert are computed in one statement.
func (b *Backend) IndexAdd(ctx context.Context, index, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrDetached
	}

	res, err := b.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO index_entries (index_name, entity_id, seq)
		 SELECT ?, ?, COALESCE(MAX(seq), 0) + 1 FROM index_entries WHERE index_name = ?`,
		index, id, index,
	)
	if err != nil {
		return fmt.Errorf("adding %s to index %s: %w", id, index, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil
	}

	if err := b.persist(indexesJSONL); err != nil {
		return fmt.Errorf("persisting %s: %w", indexesJSONL, err)
	}
	return nil
}

// IndexRemove removes id from index if present.
func (b *Backend) IndexRemove(ctx context.Context, index, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrDetached
	}

	res, err := b.db.ExecContext(ctx,
		"DELETE FROM index_entries WHERE index_name = ? AND entity_id = ?",
		index, id,
	)
	if err != nil {
		return fmt.Errorf("removing %s from index %s: %w", id, index, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil
	}

	if err := b.persist(indexesJSONL); err != nil {
		return fmt.Errorf("persisting %s: %w", indexesJSONL, err)
	}
	return nil
}

// IndexCount returns the number of ids in index.
func (b *Backend) IndexCount(ctx context.Context, index string) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return 0, types.ErrDetached
	}

	var count int
	err := b.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM index_entries WHERE index_name = ?",
		index,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting index %s: %w", index, err)
	}
	return count, nil
}
