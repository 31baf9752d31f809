package entity

import (
	"context"

	"github.com/mesh-intelligence/sdctrack/pkg/types"
)

// Index is the ordered, duplicate-free id list of one entity type.
type Index struct {
	backend types.IndexStore
	name    string
}

// NewIndex returns the index called name on backend.
func NewIndex(backend types.IndexStore, name string) *Index {
	return &Index{backend: backend, name: name}
}

// Name returns the index name.
func (x *Index) Name() string { return x.name }

// List returns the ids in insertion order.
func (x *Index) List(ctx context.Context) ([]string, error) {
	return x.backend.IndexList(ctx, x.name)
}

// Add appends id if absent.
func (x *Index) Add(ctx context.Context, id string) error {
	return x.backend.IndexAdd(ctx, x.name, id)
}

// Remove removes id if present.
func (x *Index) Remove(ctx context.Context, id string) error {
	return x.backend.IndexRemove(ctx, x.name, id)
}

// Count returns len(List).
func (x *Index) Count(ctx context.Context) (int, error) {
	return x.backend.IndexCount(ctx, x.name)
}

// Contains reports whether id is listed.
func (x *Index) Contains(ctx context.Context, id string) (bool, error) {
	ids, err := x.List(ctx)
	if err != nil {
		return false, err
	}
	for _, listed := range ids {
		if listed == id {
			return true, nil
		}
	}
	return false, nil
}
