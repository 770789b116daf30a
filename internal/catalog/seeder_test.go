package catalog

import (
	"context"
	"errors"
	"testing"

	"kart-checkout/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSeeder_Seed(t *testing.T) {
	products := []model.Product{{ID: "P1"}, {ID: "P2"}}

	tests := []struct {
		name          string
		loaded        []model.Product
		loadErr       error
		upsertErr     error
		expectUpsert  bool
		expectedCount int
		errorMsg      string
	}{
		{name: "Seeds all products", loaded: products, expectUpsert: true, expectedCount: 2},
		{name: "Empty snapshot", loaded: nil, expectUpsert: false, expectedCount: 0},
		{name: "Load failure", loadErr: errors.New("gzip: invalid header"), errorMsg: "failed to load catalogue"},
		{name: "Upsert failure", loaded: products, upsertErr: errors.New("connection reset"), expectUpsert: true, errorMsg: "failed to seed catalogue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockProductRepository)
			loader := &mockLoader{
				loadFunc: func(ctx context.Context, path string) ([]model.Product, error) {
					assert.Equal(t, "catalog.gz", path)
					return tt.loaded, tt.loadErr
				},
			}
			if tt.expectUpsert {
				repo.On("Upsert", mock.Anything, tt.loaded).Return(tt.upsertErr)
			}

			seeder := NewSeeder(loader, repo, zerolog.Nop())
			count, err := seeder.Seed(context.Background(), "catalog.gz")

			if tt.errorMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedCount, count)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestSeeder_SeedFromFile(t *testing.T) {
	filePath := createSnapshotFile(t, "catalog.gz",
		`{"id":"P1","name":"Desk Lamp","price":"500.00","category":"Home","countInStock":12}`,
	)

	repo := new(MockProductRepository)
	repo.On("Upsert", mock.Anything, mock.MatchedBy(func(ps []model.Product) bool {
		return len(ps) == 1 && ps[0].ID == "P1" && ps[0].CountInStock == 12
	})).Return(nil)

	seeder := NewSeeder(NewFileLoader(zerolog.Nop()), repo, zerolog.Nop())
	count, err := seeder.Seed(context.Background(), filePath)

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	repo.AssertExpectations(t)
}
