package seed

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"mini-pos/internal/model"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for JSON seed files on the local file system.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based seed loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "seed-loader").Logger(),
	}
}

// Load reads a seed file. Paths ending in .gz are gunzipped first.
func (l *fileLoader) Load(ctx context.Context, path string) ([]model.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.logger.Info().Str("file", path).Msg("loading seed file")

	file, err := os.Open(path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to open seed file")
		return nil, fmt.Errorf("failed to open seed file %s: %w", path, err)
	}
	defer file.Close()

	products, err := readProducts(file, path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to read seed file")
		return nil, err
	}

	l.logger.Info().
		Str("file", path).
		Int("products_loaded", len(products)).
		Msg("seed file loaded successfully")

	return products, nil
}

// readProducts decodes products from r, gunzipping when name ends in .gz.
func readProducts(r io.Reader, name string) ([]model.Product, error) {
	src := bufio.NewReader(r)
	if strings.HasSuffix(name, ".gz") {
		gzipReader, err := gzip.NewReader(src)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader for %s: %w", name, err)
		}
		defer gzipReader.Close()
		return decodeProducts(gzipReader, name)
	}
	return decodeProducts(src, name)
}
