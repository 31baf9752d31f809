package tracker

import (
	"context"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/sdctrack/internal/entity"
	"github.com/mesh-intelligence/sdctrack/pkg/types"
)

func (s *Service) definitionTable(kind types.DefinitionKind) (*entity.Table[types.Definition], error) {
	t, ok := s.definitions[kind]
	if !ok {
		return nil, fmt.Errorf("%w: definition type %q", types.ErrNotFound, kind)
	}
	return t, nil
}

// ListDefinitions returns the items of one definition list.
func (s *Service) ListDefinitions(ctx context.Context, kind types.DefinitionKind) (entity.Page[types.Definition], error) {
	t, err := s.definitionTable(kind)
	if err != nil {
		return entity.Page[types.Definition]{Items: []types.Definition{}}, err
	}
	return t.List(ctx)
}

// CreateDefinition adds a named item with a generated id.
func (s *Service) CreateDefinition(ctx context.Context, kind types.DefinitionKind, name string) (types.Definition, error) {
	t, err := s.definitionTable(kind)
	if err != nil {
		return types.Definition{}, err
	}
	if strings.TrimSpace(name) == "" {
		return types.Definition{}, fmt.Errorf("%w: name is required", types.ErrInvalidArgument)
	}
	return t.Create(ctx, types.Definition{Name: name})
}

// RenameDefinition changes the name of an existing item.
func (s *Service) RenameDefinition(ctx context.Context, kind types.DefinitionKind, id, name string) (types.Definition, error) {
	t, err := s.definitionTable(kind)
	if err != nil {
		return types.Definition{}, err
	}
	if strings.TrimSpace(name) == "" {
		return types.Definition{}, fmt.Errorf("%w: name is required", types.ErrInvalidArgument)
	}
	return t.Patch(ctx, id, map[string]any{"name": name})
}

// DeleteDefinition removes an item and reports whether it existed.
func (s *Service) DeleteDefinition(ctx context.Context, kind types.DefinitionKind, id string) (bool, error) {
	t, err := s.definitionTable(kind)
	if err != nil {
		return false, err
	}
	return t.Delete(ctx, id)
}
