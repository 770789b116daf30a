package catalog

import (
	"context"
	"fmt"

	"kart-checkout/internal/repository"

	"github.com/rs/zerolog"
)

// Seeder loads a catalogue snapshot and writes it to the product store.
type Seeder struct {
	loader   Loader
	products repository.ProductRepository
	logger   zerolog.Logger
}

// NewSeeder creates a new catalogue seeder.
func NewSeeder(loader Loader, products repository.ProductRepository, logger zerolog.Logger) *Seeder {
	return &Seeder{
		loader:   loader,
		products: products,
		logger:   logger.With().Str("component", "catalog-seeder").Logger(),
	}
}

// Seed upserts every product in the snapshot at path and returns how many were written.
// Existing stock counts are overwritten with the snapshot's values.
func (s *Seeder) Seed(ctx context.Context, path string) (int, error) {
	products, err := s.loader.Load(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("failed to load catalogue: %w", err)
	}

	if len(products) == 0 {
		s.logger.Warn().Str("path", path).Msg("catalogue snapshot is empty")
		return 0, nil
	}

	if err := s.products.Upsert(ctx, products); err != nil {
		return 0, fmt.Errorf("failed to seed catalogue: %w", err)
	}

	s.logger.Info().Str("path", path).Int("products", len(products)).Msg("catalogue seeded")

	return len(products), nil
}
