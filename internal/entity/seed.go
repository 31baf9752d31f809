package entity

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Seeder is an entity type that can populate itself with default rows.
// *Table[T] implements Seeder.
type Seeder interface {
	Name() string
	EnsureSeed(ctx context.Context) (int, error)
}

// SeedLoader bootstraps default data for a fixed list of entity types.
type SeedLoader struct {
	seeders []Seeder
	logger  *slog.Logger
}

// NewSeedLoader returns a loader that seeds the given types in order.
func NewSeedLoader(logger *slog.Logger, seeders ...Seeder) *SeedLoader {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &SeedLoader{seeders: seeders, logger: logger}
}

// Register appends seeders.
func (l *SeedLoader) Register(seeders ...Seeder) {
	l.seeders = append(l.seeders, seeders...)
}

// Load runs EnsureSeed for every registered type and returns the rows created
// per type name. It stops at the first error.
func (l *SeedLoader) Load(ctx context.Context) (map[string]int, error) {
	seeded := make(map[string]int, len(l.seeders))
	for _, s := range l.seeders {
		n, err := s.EnsureSeed(ctx)
		if err != nil {
			return seeded, fmt.Errorf("seed %s: %w", s.Name(), err)
		}
		seeded[s.Name()] = n
	}

	l.logger.Debug("seed load complete", "types", len(l.seeders))
	return seeded, nil
}
