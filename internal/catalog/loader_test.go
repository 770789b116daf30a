package catalog

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLoader_Load_Success(t *testing.T) {
	loader := NewFileLoader(zerolog.Nop())

	filePath := createSnapshotFile(t, "catalog.jsonl.gz",
		`{"id":"P1","name":"Desk Lamp","price":"500.00","category":"Home","countInStock":12}`,
		``,
		`{"id":"P2","name":"Notebook","price":"49.5","category":"Stationery","countInStock":0}`,
	)

	products, err := loader.Load(context.Background(), filePath)

	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "P1", products[0].ID)
	assert.True(t, decimal.RequireFromString("500").Equal(products[0].Price))
	assert.Equal(t, int64(50000), products[0].PriceMinor())
	assert.Equal(t, 12, products[0].CountInStock)
	assert.Equal(t, "P2", products[1].ID)
	assert.Equal(t, int64(4950), products[1].PriceMinor())
}

func TestFileLoader_Load_FileNotFound(t *testing.T) {
	loader := NewFileLoader(zerolog.Nop())

	_, err := loader.Load(context.Background(), filepath.Join(t.TempDir(), "missing.gz"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open catalogue file")
}

func TestFileLoader_Load_NotGzipped(t *testing.T) {
	loader := NewFileLoader(zerolog.Nop())

	filePath := filepath.Join(t.TempDir(), "plain.jsonl")
	require.NoError(t, os.WriteFile(filePath, []byte(`{"id":"P1"}`), 0o644))

	_, err := loader.Load(context.Background(), filePath)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "gzip")
}

func TestDecodeProducts_InvalidRecords(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		errorMsg string
	}{
		{
			name:     "Malformed JSON",
			lines:    []string{`{"id":"P1",`},
			errorMsg: "line 1: invalid product record",
		},
		{
			name:     "Missing id",
			lines:    []string{`{"name":"Lamp","price":"1.00","countInStock":1}`},
			errorMsg: "product id is required",
		},
		{
			name:     "Missing name",
			lines:    []string{`{"id":"P1","price":"1.00","countInStock":1}`},
			errorMsg: "name is required",
		},
		{
			name:     "Zero price",
			lines:    []string{`{"id":"P1","name":"Lamp","price":"0","countInStock":1}`},
			errorMsg: "price must be positive",
		},
		{
			name:     "Sub-paisa price",
			lines:    []string{`{"id":"P1","name":"Lamp","price":"1.005","countInStock":1}`},
			errorMsg: "more than two decimal places",
		},
		{
			name:     "Negative stock",
			lines:    []string{`{"id":"P1","name":"Lamp","price":"1.00","countInStock":-1}`},
			errorMsg: "countInStock cannot be negative",
		},
		{
			name: "Duplicate id",
			lines: []string{
				`{"id":"P1","name":"Lamp","price":"1.00","countInStock":1}`,
				`{"id":"P1","name":"Lamp","price":"2.00","countInStock":1}`,
			},
			errorMsg: "line 2: duplicate product id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeProducts(context.Background(), bytes.NewReader(gzipLines(t, tt.lines...)))

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestDecodeProducts_TrailingZerosAccepted(t *testing.T) {
	products, err := decodeProducts(context.Background(), bytes.NewReader(gzipLines(t,
		`{"id":"P1","name":"Lamp","price":"10.500","countInStock":1}`,
	)))

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, int64(1050), products[0].PriceMinor())
}
