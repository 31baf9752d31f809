package entity

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/sdctrack/pkg/types"
)

// maxIDLength bounds ids so they stay usable as file and Redis keys.
const maxIDLength = 256

// keySeparators join names and ids into lock and Redis keys, so neither may
// contain them.
const keySeparators = "/:"

// Descriptor configures one entity type. T must encode to a JSON object with
// a string "id" member.
type Descriptor[T any] struct {
	// Name is the state namespace.
	Name string

	// IndexName is the namespace of the type's id list.
	IndexName string

	// Initial is returned, with id substituted, for ids that hold no state.
	Initial T

	// Seed rows are created once, when the index is empty. Rows with an
	// empty id get a generated one.
	Seed []T
}

// validate checks names and that Initial and every seed row encode to JSON
// objects carrying an "id" member.
func (d Descriptor[T]) validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: descriptor name is empty", types.ErrInvalidArgument)
	}
	if strings.TrimSpace(d.IndexName) == "" {
		return fmt.Errorf("%w: descriptor %s has no index name", types.ErrInvalidArgument, d.Name)
	}
	for _, name := range []string{d.Name, d.IndexName} {
		if strings.ContainsAny(name, keySeparators) {
			return fmt.Errorf("%w: descriptor name %q contains a reserved character", types.ErrInvalidArgument, name)
		}
	}
	if err := requireIDMember(d.Initial); err != nil {
		return fmt.Errorf("descriptor %s initial state: %w", d.Name, err)
	}
	for i, row := range d.Seed {
		id, err := stateID(row)
		if err != nil {
			return fmt.Errorf("descriptor %s seed row %d: %w", d.Name, i, err)
		}
		if id != "" {
			if err := validateID(id); err != nil {
				return fmt.Errorf("descriptor %s seed row %d: %w", d.Name, i, err)
			}
		}
	}
	return nil
}

// validateID rejects ids that cannot serve as storage keys.
func validateID(id string) error {
	switch {
	case id == "":
		return fmt.Errorf("%w: empty id", types.ErrInvalidArgument)
	case len(id) > maxIDLength:
		return fmt.Errorf("%w: id longer than %d bytes", types.ErrInvalidArgument, maxIDLength)
	case strings.TrimSpace(id) != id:
		return fmt.Errorf("%w: id %q has surrounding whitespace", types.ErrInvalidArgument, id)
	case strings.ContainsAny(id, "\n\r\t"+keySeparators):
		return fmt.Errorf("%w: id %q contains a reserved character", types.ErrInvalidArgument, id)
	}
	return nil
}
