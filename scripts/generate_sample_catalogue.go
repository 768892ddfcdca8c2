package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"mini-pos/internal/model"
	"mini-pos/internal/seed"

	"github.com/shopspring/decimal"
)

// Writes two gzipped seed files: the built-in boutique catalogue and a small
// accessories range. Load both with SEED_FILES=data/catalogue/boutique.json.gz,data/catalogue/accessories.json.gz
func main() {
	dataDir := "data/catalogue"

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	files := map[string][]model.Product{
		"boutique.json.gz":    seed.Default(),
		"accessories.json.gz": accessories(),
	}

	for filename, products := range files {
		filePath := filepath.Join(dataDir, filename)

		if err := writeCatalogue(filePath, products); err != nil {
			log.Fatalf("Failed to create %s: %v", filename, err)
		}

		fmt.Printf("Created %s with %d products\n", filePath, len(products))
	}
}

func accessories() []model.Product {
	items := []struct {
		id, name, sku, price, cost string
		stock, threshold         int
	}{
		{"prod_acc_sunglasses", "Tortoiseshell Sunglasses", "ACC-SUN-101", "65.00", "18.00", 12, 3},
		{"prod_acc_beanie", "Ribbed Beanie", "ACC-BNE-102", "22.00", "5.50", 30, 8},
		{"prod_acc_gloves", "Leather Gloves", "ACC-GLV-103", "48.00", "17.25", 2, 4},
		{"prod_acc_socks", "Cashmere Socks", "ACC-SCK-104", "19.50", "6.10", 0, 5},
	}

	products := make([]model.Product, 0, len(items))
	for _, it := range items {
		products = append(products, model.Product{
			ID:                it.id,
			Name:              it.name,
			SKU:               it.sku,
			Price:             decimal.RequireFromString(it.price),
			Cost:              decimal.RequireFromString(it.cost),
			Stock:             it.stock,
			LowStockThreshold: it.threshold,
		})
	}
	return products
}

func writeCatalogue(filePath string, products []model.Product) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	encoder := json.NewEncoder(gzipWriter)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(products); err != nil {
		return fmt.Errorf("failed to encode products: %w", err)
	}

	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to close gzip writer: %w", err)
	}
	return nil
}
