package entity

import (
	"context"
	"fmt"
)

// Cell is the storage unit for one (entity, id) pair. Every method takes the
// cell's lock, so operations on the same id are totally ordered. A Cell is
// cheap; create one per call with Table.Cell.
//
// Cell methods do not consult the index: Save on an absent id stores state
// that List will not show. Use the Table methods for the create/update/delete
// surface.
type Cell[T any] struct {
	table *Table[T]
	id    string
}

// ID returns the cell's key.
func (c *Cell[T]) ID() string { return c.id }

// GetState returns the stored state, or the initial state with the id
// substituted when nothing is stored.
func (c *Cell[T]) GetState(ctx context.Context) (T, error) {
	unlock, err := c.lock(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	defer unlock()

	state, _, err := c.load(ctx)
	return state, err
}

// Exists reports whether a state has been stored for this id.
func (c *Cell[T]) Exists(ctx context.Context) (bool, error) {
	unlock, err := c.lock(ctx)
	if err != nil {
		return false, err
	}
	defer unlock()

	_, ok, err := c.raw(ctx)
	return ok, err
}

// Save overwrites the stored state. The state's id is normalized to the key.
func (c *Cell[T]) Save(ctx context.Context, state T) (T, error) {
	unlock, err := c.lock(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	defer unlock()

	return c.save(ctx, state)
}

// Patch overwrites the top-level fields named in partial and leaves the rest
// untouched. An id in partial is ignored.
func (c *Cell[T]) Patch(ctx context.Context, partial map[string]any) (T, error) {
	unlock, err := c.lock(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	defer unlock()

	return c.patch(ctx, partial)
}

// Mutate applies fn to the current state and stores the result. If fn
// returns an error nothing is written.
func (c *Cell[T]) Mutate(ctx context.Context, fn func(T) (T, error)) (T, error) {
	unlock, err := c.lock(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	defer unlock()

	return c.mutate(ctx, fn)
}

// Delete removes the stored state and reports whether there was one.
func (c *Cell[T]) Delete(ctx context.Context) (bool, error) {
	unlock, err := c.lock(ctx)
	if err != nil {
		return false, err
	}
	defer unlock()

	return c.table.store.backend.DeleteState(ctx, c.table.desc.Name, c.id)
}

// The methods below assume the caller holds the cell lock.

func (c *Cell[T]) lock(ctx context.Context) (func(), error) {
	return c.table.store.lock(ctx, c.table.store.cells, cellKey(c.table.desc.Name, c.id))
}

func (c *Cell[T]) raw(ctx context.Context) ([]byte, bool, error) {
	return c.table.store.backend.GetState(ctx, c.table.desc.Name, c.id)
}

// load returns the stored state, or the initial state when absent, plus
// whether a state was stored.
func (c *Cell[T]) load(ctx context.Context) (T, bool, error) {
	var zero T

	data, ok, err := c.raw(ctx)
	if err != nil {
		return zero, false, err
	}
	if !ok {
		state, err := c.table.initialFor(c.id)
		return state, false, err
	}
	state, err := decodeState[T](data)
	if err != nil {
		return zero, true, &decodeError{entity: c.table.desc.Name, id: c.id, err: err}
	}
	return state, true, nil
}

// decodeError reports a stored blob that does not decode into the table's
// state type.
type decodeError struct {
	entity string
	id     string
	err    error
}

func (e *decodeError) Error() string {
	return fmt.Sprintf("%s/%s: %v", e.entity, e.id, e.err)
}

func (e *decodeError) Unwrap() error { return e.err }

func (c *Cell[T]) save(ctx context.Context, state T) (T, error) {
	var zero T

	data, err := encodeState(state, c.id)
	if err != nil {
		return zero, err
	}
	if err := c.table.store.backend.PutState(ctx, c.table.desc.Name, c.id, data); err != nil {
		return zero, err
	}
	return decodeState[T](data)
}

func (c *Cell[T]) patch(ctx context.Context, partial map[string]any) (T, error) {
	var zero T

	current, ok, err := c.raw(ctx)
	if err != nil {
		return zero, err
	}
	if !ok {
		current, err = c.table.initialData(c.id)
		if err != nil {
			return zero, err
		}
	}

	state, data, err := mergePatch[T](current, partial, c.id)
	if err != nil {
		return zero, err
	}
	if err := c.table.store.backend.PutState(ctx, c.table.desc.Name, c.id, data); err != nil {
		return zero, err
	}
	return state, nil
}

func (c *Cell[T]) mutate(ctx context.Context, fn func(T) (T, error)) (T, error) {
	var zero T

	current, _, err := c.load(ctx)
	if err != nil {
		return zero, err
	}
	next, err := fn(current)
	if err != nil {
		return zero, err
	}
	return c.save(ctx, next)
}
