// Package catalog loads product catalogue snapshots and seeds them into the
// product store.
//
// A snapshot is a gzipped file holding one JSON product per line:
//
//	{"id":"P1","name":"Desk Lamp","price":"500.00","category":"Home","countInStock":12}
package catalog

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"kart-checkout/internal/model"
)

// Loader defines the interface for loading catalogue snapshots.
type Loader interface {
	// Load reads a gzipped JSON-lines snapshot and returns its products in file order.
	Load(ctx context.Context, path string) ([]model.Product, error)
}

// decodeProducts reads gzipped JSON lines from r. Any malformed or invalid
// record fails the whole snapshot so a partial catalogue is never seeded.
func decodeProducts(ctx context.Context, r io.Reader) ([]model.Product, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	scanner := bufio.NewScanner(gzipReader)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var products []model.Product
	seen := make(map[string]int)

	lineNo := 0
	for scanner.Scan() {
		lineNo++

		if lineNo%10_000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var p model.Product
		if err := json.Unmarshal(line, &p); err != nil {
			return nil, fmt.Errorf("line %d: invalid product record: %w", lineNo, err)
		}

		if err := validateProduct(p); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		if first, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("line %d: duplicate product id %q (first seen on line %d)", lineNo, p.ID, first)
		}
		seen[p.ID] = lineNo

		products = append(products, p)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	return products, nil
}

func validateProduct(p model.Product) error {
	switch {
	case p.ID == "":
		return errors.New("product id is required")
	case p.Name == "":
		return fmt.Errorf("product %s: name is required", p.ID)
	case !p.Price.IsPositive():
		return fmt.Errorf("product %s: price must be positive", p.ID)
	case !p.Price.Equal(p.Price.Round(2)):
		return fmt.Errorf("product %s: price has more than two decimal places", p.ID)
	case p.CountInStock < 0:
		return fmt.Errorf("product %s: countInStock cannot be negative", p.ID)
	}
	return nil
}
