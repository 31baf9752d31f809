package tracker

import (
	"context"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/sdctrack/internal/entity"
	"github.com/mesh-intelligence/sdctrack/pkg/types"
)

// ListDocuments returns every document.
func (s *Service) ListDocuments(ctx context.Context) (entity.Page[types.Document], error) {
	return s.documents.List(ctx)
}

// CreateDocument registers a document stored at path.
func (s *Service) CreateDocument(ctx context.Context, name string, category types.DocumentCategory, path string) (types.Document, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(path) == "" {
		return types.Document{}, fmt.Errorf("%w: name and path are required", types.ErrInvalidArgument)
	}
	if !category.Valid() {
		return types.Document{}, fmt.Errorf("%w: unknown category %q", types.ErrInvalidArgument, category)
	}
	return s.documents.Create(ctx, types.Document{
		Name:      name,
		Category:  category,
		Path:      path,
		CreatedAt: s.nowMillis(),
	})
}

// DeleteDocument removes id, returning ErrNotFound if it did not exist.
func (s *Service) DeleteDocument(ctx context.Context, id string) error {
	deleted, err := s.documents.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: document/%s", types.ErrNotFound, id)
	}
	return nil
}
