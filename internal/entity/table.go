package entity

import (
	"context"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/sdctrack/pkg/types"
)

// Page is the result of Table.List.
type Page[T any] struct {
	Items []T `json:"items"`
}

// Table is an indexed entity type: a Descriptor bound to a Store. It is the
// CRUD surface callers use; it keeps the index and the stored states in step.
type Table[T any] struct {
	store   *Store
	desc    Descriptor[T]
	index   *Index
	initial []byte // Initial encoded once with an empty id
}

// Bind validates d and returns its Table on s.
func Bind[T any](s *Store, d Descriptor[T]) (*Table[T], error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	initial, err := encodeState(d.Initial, "")
	if err != nil {
		return nil, fmt.Errorf("descriptor %s initial state: %w", d.Name, err)
	}
	return &Table[T]{
		store:   s,
		desc:    d,
		index:   NewIndex(s.backend, d.IndexName),
		initial: initial,
	}, nil
}

// MustBind is Bind for descriptors known to be valid at init time.
func MustBind[T any](s *Store, d Descriptor[T]) *Table[T] {
	t, err := Bind(s, d)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the state namespace.
func (t *Table[T]) Name() string { return t.desc.Name }

// Descriptor returns the table's descriptor.
func (t *Table[T]) Descriptor() Descriptor[T] { return t.desc }

// Index returns the table's index.
func (t *Table[T]) Index() *Index { return t.index }

// Cell returns the storage unit for id.
func (t *Table[T]) Cell(id string) *Cell[T] {
	return &Cell[T]{table: t, id: id}
}

// initialData returns the encoded initial state carrying id.
func (t *Table[T]) initialData(id string) ([]byte, error) {
	obj, err := decodeObject(t.initial)
	if err != nil {
		return nil, err
	}
	return encodeObject(obj, id)
}

// initialFor returns a copy of the initial state carrying id.
func (t *Table[T]) initialFor(id string) (T, error) {
	data, err := t.initialData(id)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeState[T](data)
}

// Create stores state under its id, generating a UUID v7 when the id is
// empty, and adds the id to the index. The state is written before the index
// entry. Returns ErrConflict if the id is both stored and indexed. A state
// stored under an unindexed id, left by an interrupted create, is
// overwritten and indexed, so retrying a create is safe.
func (t *Table[T]) Create(ctx context.Context, state T) (T, error) {
	var zero T

	id, err := stateID(state)
	if err != nil {
		return zero, err
	}
	if id == "" {
		id = t.store.newID()
	}
	if err := validateID(id); err != nil {
		return zero, err
	}

	c := t.Cell(id)
	unlock, err := c.lock(ctx)
	if err != nil {
		return zero, err
	}
	defer unlock()

	return t.create(ctx, c, state)
}

// create runs under the cell lock.
func (t *Table[T]) create(ctx context.Context, c *Cell[T], state T) (T, error) {
	var zero T

	_, exists, err := c.raw(ctx)
	if err != nil {
		return zero, err
	}
	listed, err := t.index.Contains(ctx, c.id)
	if err != nil {
		return zero, err
	}
	switch {
	case exists && listed:
		return zero, fmt.Errorf("%w: %s/%s", types.ErrConflict, t.desc.Name, c.id)
	case exists:
		t.store.logger.Warn("replacing unindexed state on create",
			"entity", t.desc.Name, "id", c.id)
	case listed:
		t.store.logger.Warn("restoring state for indexed id on create",
			"entity", t.desc.Name, "id", c.id)
	}

	saved, err := c.save(ctx, state)
	if err != nil {
		return zero, err
	}
	if err := t.index.Add(ctx, c.id); err != nil {
		return zero, fmt.Errorf("indexing %s/%s: %w", t.desc.Name, c.id, err)
	}
	return saved, nil
}

// Get returns the state stored under id, or ErrNotFound.
func (t *Table[T]) Get(ctx context.Context, id string) (T, error) {
	c := t.Cell(id)
	unlock, err := c.lock(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	defer unlock()

	state, ok, err := c.load(ctx)
	if err != nil {
		return state, err
	}
	if !ok {
		var zero T
		return zero, t.notFound(id)
	}
	return state, nil
}

// Exists reports whether a state is stored under id.
func (t *Table[T]) Exists(ctx context.Context, id string) (bool, error) {
	return t.Cell(id).Exists(ctx)
}

// List reads the index and returns each listed state in index order. Ids
// whose state is missing or does not decode are skipped, logged, and
// reported through an *types.IntegrityError returned alongside the page.
func (t *Table[T]) List(ctx context.Context) (Page[T], error) {
	page := Page[T]{Items: []T{}}

	ids, err := t.index.List(ctx)
	if err != nil {
		return page, err
	}

	var missing []string
	for _, id := range ids {
		c := t.Cell(id)
		unlock, err := c.lock(ctx)
		if err != nil {
			return page, err
		}
		state, ok, err := c.load(ctx)
		unlock()
		var de *decodeError
		if errors.As(err, &de) {
			t.store.logger.Warn("indexed state does not decode",
				"entity", t.desc.Name, "id", id, "error", de.err)
			missing = append(missing, id)
			continue
		}
		if err != nil {
			return page, err
		}
		if !ok {
			missing = append(missing, id)
			continue
		}
		page.Items = append(page.Items, state)
	}

	if len(missing) > 0 {
		t.store.logger.Warn("index lists ids without state",
			"entity", t.desc.Name, "index", t.desc.IndexName, "ids", missing)
		return page, &types.IntegrityError{Index: t.desc.IndexName, IDs: missing}
	}
	return page, nil
}

// Count returns the number of indexed ids.
func (t *Table[T]) Count(ctx context.Context) (int, error) {
	return t.index.Count(ctx)
}

// Save replaces the state stored under id. Returns ErrNotFound if absent.
func (t *Table[T]) Save(ctx context.Context, id string, state T) (T, error) {
	return t.update(ctx, id, func(c *Cell[T]) (T, error) { return c.save(ctx, state) })
}

// Patch overwrites the fields named in partial. Returns ErrNotFound if
// absent.
func (t *Table[T]) Patch(ctx context.Context, id string, partial map[string]any) (T, error) {
	return t.update(ctx, id, func(c *Cell[T]) (T, error) { return c.patch(ctx, partial) })
}

// Mutate applies fn to the stored state. Returns ErrNotFound if absent.
func (t *Table[T]) Mutate(ctx context.Context, id string, fn func(T) (T, error)) (T, error) {
	return t.update(ctx, id, func(c *Cell[T]) (T, error) { return c.mutate(ctx, fn) })
}

// update checks existence and applies op under one hold of the cell lock,
// so a concurrent delete cannot be undone by a late write.
func (t *Table[T]) update(ctx context.Context, id string, op func(*Cell[T]) (T, error)) (T, error) {
	var zero T

	c := t.Cell(id)
	unlock, err := c.lock(ctx)
	if err != nil {
		return zero, err
	}
	defer unlock()

	_, ok, err := c.raw(ctx)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, t.notFound(id)
	}
	return op(c)
}

// Delete removes id from the index and then deletes its state. Returns
// whether a state was removed; deleting an unknown id returns false and
// changes nothing.
func (t *Table[T]) Delete(ctx context.Context, id string) (bool, error) {
	c := t.Cell(id)
	unlock, err := c.lock(ctx)
	if err != nil {
		return false, err
	}
	defer unlock()

	if err := t.index.Remove(ctx, id); err != nil {
		return false, fmt.Errorf("unindexing %s/%s: %w", t.desc.Name, id, err)
	}
	return t.store.backend.DeleteState(ctx, t.desc.Name, id)
}

// EnsureSeed creates every seed row when the index is empty and returns how
// many rows it created. Calls for the same index are serialized, so repeated
// calls never seed twice. A seed id that already has an orphan state is
// adopted into the index instead of overwritten.
func (t *Table[T]) EnsureSeed(ctx context.Context) (int, error) {
	if len(t.desc.Seed) == 0 {
		return 0, nil
	}

	unlock, err := t.store.lock(ctx, t.store.seeds, seedKey(t.desc.IndexName))
	if err != nil {
		return 0, err
	}
	defer unlock()

	count, err := t.index.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	seeded := 0
	for _, row := range t.desc.Seed {
		id, err := stateID(row)
		if err != nil {
			return seeded, err
		}
		if id == "" {
			id = t.store.newID()
		}

		if err := t.seedRow(ctx, id, row); err != nil {
			return seeded, fmt.Errorf("seeding %s/%s: %w", t.desc.Name, id, err)
		}
		seeded++
	}

	t.store.logger.Info("seeded entity type",
		"entity", t.desc.Name, "index", t.desc.IndexName, "rows", seeded)
	return seeded, nil
}

func (t *Table[T]) seedRow(ctx context.Context, id string, row T) error {
	c := t.Cell(id)
	unlock, err := c.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	_, exists, err := c.raw(ctx)
	if err != nil {
		return err
	}
	if exists {
		t.store.logger.Info("adopting orphan state for seed row",
			"entity", t.desc.Name, "id", id)
		return t.index.Add(ctx, id)
	}
	_, err = t.create(ctx, c, row)
	return err
}

// CollectOrphans deletes stored states whose id is not indexed and returns
// the deleted ids. Each candidate is rechecked under its cell lock, so a
// create in progress is never collected.
func (t *Table[T]) CollectOrphans(ctx context.Context) ([]string, error) {
	stored, err := t.store.backend.StateIDs(ctx, t.desc.Name)
	if err != nil {
		return nil, err
	}
	listed, err := t.index.List(ctx)
	if err != nil {
		return nil, err
	}
	indexed := make(map[string]bool, len(listed))
	for _, id := range listed {
		indexed[id] = true
	}

	collected := []string{}
	for _, id := range stored {
		if indexed[id] {
			continue
		}
		removed, err := t.collect(ctx, id)
		if err != nil {
			return collected, err
		}
		if removed {
			collected = append(collected, id)
		}
	}

	if len(collected) > 0 {
		t.store.logger.Info("collected orphan states",
			"entity", t.desc.Name, "ids", collected)
	}
	return collected, nil
}

func (t *Table[T]) collect(ctx context.Context, id string) (bool, error) {
	c := t.Cell(id)
	unlock, err := c.lock(ctx)
	if err != nil {
		return false, err
	}
	defer unlock()

	listed, err := t.index.Contains(ctx, id)
	if err != nil || listed {
		return false, err
	}
	return t.store.backend.DeleteState(ctx, t.desc.Name, id)
}

func (t *Table[T]) notFound(id string) error {
	return fmt.Errorf("%w: %s/%s", types.ErrNotFound, t.desc.Name, id)
}
