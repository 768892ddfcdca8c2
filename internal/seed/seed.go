// Package seed loads the initial product catalogue used when nothing is persisted yet.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"mini-pos/internal/model"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Loader defines the interface for loading catalogue seed files.
type Loader interface {
	// Load reads a seed file and returns its products in file order.
	Load(ctx context.Context, path string) ([]model.Product, error)
}

// decodeProducts reads a JSON array of products and validates each one.
func decodeProducts(r io.Reader, source string) ([]model.Product, error) {
	var products []model.Product
	if err := json.NewDecoder(r).Decode(&products); err != nil {
		return nil, fmt.Errorf("failed to decode seed file %s: %w", source, err)
	}

	for i, p := range products {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: seed file %s entry %d has no id", model.ErrInvalidProduct, source, i)
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("seed file %s entry %d: %w", source, i, err)
		}
	}
	return products, nil
}

// LoadCatalogue loads every path concurrently and concatenates the results in path order.
// With no paths it returns the built-in Default catalogue.
func LoadCatalogue(ctx context.Context, loader Loader, paths []string, logger zerolog.Logger) ([]model.Product, error) {
	logger = logger.With().Str("component", "seed").Logger()

	if len(paths) == 0 {
		logger.Info().Msg("no seed files configured, using built-in catalogue")
		return Default(), nil
	}

	results := make([][]model.Product, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			products, err := loader.Load(gctx, path)
			if err != nil {
				return err
			}
			results[i] = products
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("failed to load seed catalogue")
		return nil, err
	}

	var out []model.Product
	seen := make(map[string]bool)
	for i, products := range results {
		for _, p := range products {
			if seen[p.ID] {
				return nil, fmt.Errorf("%w: duplicate product id %s in %s", model.ErrInvalidProduct, p.ID, paths[i])
			}
			seen[p.ID] = true
			out = append(out, p)
		}
	}

	logger.Info().
		Int("file_count", len(paths)).
		Int("product_count", len(out)).
		Msg("seed catalogue loaded")

	return out, nil
}
