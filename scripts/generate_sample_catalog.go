package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"kart-checkout/internal/model"

	"github.com/shopspring/decimal"
)

// generateSampleCatalog writes a small catalogue snapshot for local development.
// Load it with: checkoutctl seed data/catalog/products.jsonl.gz
func main() {
	dataDir := "data/catalog"

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	products := []model.Product{
		{ID: "P1", Name: "Brass Desk Lamp", Price: decimal.RequireFromString("500.00"), Category: "Home", CountInStock: 25},
		{ID: "P2", Name: "Cotton Throw", Price: decimal.RequireFromString("1299.00"), Category: "Home", CountInStock: 10},
		{ID: "P3", Name: "Ruled Notebook", Price: decimal.RequireFromString("49.50"), Category: "Stationery", CountInStock: 200},
		{ID: "P4", Name: "Fountain Pen", Price: decimal.RequireFromString("850.00"), Category: "Stationery", CountInStock: 3},
		{ID: "P5", Name: "Steel Bottle", Price: decimal.RequireFromString("399.99"), Category: "Kitchen", CountInStock: 0},
	}

	filePath := filepath.Join(dataDir, "products.jsonl.gz")
	if err := writeSnapshot(filePath, products); err != nil {
		log.Fatalf("Failed to create %s: %v", filePath, err)
	}

	fmt.Printf("Created %s with %d products\n", filePath, len(products))
}

func writeSnapshot(filePath string, products []model.Product) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	encoder := json.NewEncoder(gzipWriter)
	for _, p := range products {
		record := struct {
			ID           string          `json:"id"`
			Name         string          `json:"name"`
			Price        decimal.Decimal `json:"price"`
			Category     string          `json:"category"`
			CountInStock int             `json:"countInStock"`
		}{p.ID, p.Name, p.Price, p.Category, p.CountInStock}

		if err := encoder.Encode(record); err != nil {
			return fmt.Errorf("failed to write product %s: %w", p.ID, err)
		}
	}

	return nil
}
