package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mesh-intelligence/sdctrack/internal/entity"
	"github.com/mesh-intelligence/sdctrack/pkg/types"
)

// Collection is untyped access to one entity type, addressed by its index
// name. States travel as JSON objects.
type Collection interface {
	Name() string
	IndexName() string
	List(ctx context.Context) ([]json.RawMessage, error)
	Get(ctx context.Context, id string) (json.RawMessage, error)
	Create(ctx context.Context, state json.RawMessage) (json.RawMessage, error)
	Patch(ctx context.Context, id string, partial map[string]any) (json.RawMessage, error)
	Delete(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (int, error)
	CollectOrphans(ctx context.Context) ([]string, error)
}

type collection[T any] struct {
	table *entity.Table[T]
}

func (c collection[T]) Name() string      { return c.table.Name() }
func (c collection[T]) IndexName() string { return c.table.Index().Name() }

func (c collection[T]) List(ctx context.Context) ([]json.RawMessage, error) {
	page, err := c.table.List(ctx)
	out := make([]json.RawMessage, 0, len(page.Items))
	for _, item := range page.Items {
		raw, merr := json.Marshal(item)
		if merr != nil {
			return out, merr
		}
		out = append(out, raw)
	}
	return out, err
}

func (c collection[T]) Get(ctx context.Context, id string) (json.RawMessage, error) {
	state, err := c.table.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return json.Marshal(state)
}

func (c collection[T]) Create(ctx context.Context, raw json.RawMessage) (json.RawMessage, error) {
	var state T
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidArgument, err)
	}
	created, err := c.table.Create(ctx, state)
	if err != nil {
		return nil, err
	}
	return json.Marshal(created)
}

func (c collection[T]) Patch(ctx context.Context, id string, partial map[string]any) (json.RawMessage, error) {
	patched, err := c.table.Patch(ctx, id, partial)
	if err != nil {
		return nil, err
	}
	return json.Marshal(patched)
}

func (c collection[T]) Delete(ctx context.Context, id string) (bool, error) {
	return c.table.Delete(ctx, id)
}

func (c collection[T]) Count(ctx context.Context) (int, error) {
	return c.table.Count(ctx)
}

func (c collection[T]) CollectOrphans(ctx context.Context) ([]string, error) {
	return c.table.CollectOrphans(ctx)
}

// Collections lists the index names accepted by Collection, sorted.
func (s *Service) Collections() []string {
	names := make([]string, 0, len(types.StandardIndexNames))
	for name := range s.collections() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Collection returns untyped access to the entity type indexed under name.
func (s *Service) Collection(name string) (Collection, error) {
	c, ok := s.collections()[name]
	if !ok {
		return nil, fmt.Errorf("%w: entity type %q", types.ErrNotFound, name)
	}
	return c, nil
}

func (s *Service) collections() map[string]Collection {
	m := map[string]Collection{
		types.UserIndex:     collection[types.User]{s.users},
		types.RecordIndex:   collection[types.Record]{s.records},
		types.DocumentIndex: collection[types.Document]{s.documents},
		types.ChatIndex:     collection[types.ChatBoard]{s.chats},
	}
	for _, t := range s.definitions {
		m[t.Index().Name()] = collection[types.Definition]{t}
	}
	return m
}

// CollectOrphans runs orphan collection on every entity type and returns
// the deleted ids per index name, omitting types with nothing collected.
func (s *Service) CollectOrphans(ctx context.Context) (map[string][]string, error) {
	out := make(map[string][]string)
	for _, name := range s.Collections() {
		c, _ := s.Collection(name)
		ids, err := c.CollectOrphans(ctx)
		if len(ids) > 0 {
			out[name] = ids
		}
		if err != nil {
			return out, fmt.Errorf("collect %s: %w", name, err)
		}
	}
	return out, nil
}
