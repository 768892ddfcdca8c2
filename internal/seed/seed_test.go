package seed

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"mini-pos/internal/model"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockLoader is a mock implementation of the Loader interface for testing.
type mockLoader struct {
	loadFunc func(ctx context.Context, path string) ([]model.Product, error)
}

func (m *mockLoader) Load(ctx context.Context, path string) ([]model.Product, error) {
	if m.loadFunc != nil {
		return m.loadFunc(ctx, path)
	}
	return nil, errors.New("not implemented")
}

// mockObjectGetter is a testify mock of the S3 client.
type mockObjectGetter struct {
	mock.Mock
}

func (m *mockObjectGetter) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, *params.Key)
	if out := args.Get(0); out != nil {
		return out.(*s3.GetObjectOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func testProducts(ids ...string) []model.Product {
	out := make([]model.Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Product{
			ID:    id,
			Name:  "Item " + id,
			SKU:   "SKU-" + id,
			Price: decimal.NewFromInt(10),
			Stock: 3,
		})
	}
	return out
}

func encodeProducts(t *testing.T, products []model.Product, gzipped bool) []byte {
	data, err := json.Marshal(products)
	require.NoError(t, err)
	if !gzipped {
		return data
	}

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err = gw.Write(data)
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

func writeSeedFile(t *testing.T, name string, products []model.Product) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, encodeProducts(t, products, strings.HasSuffix(name, ".gz")), 0o644))
	return path
}

func TestFileLoader_Load(t *testing.T) {
	loader := NewFileLoader(zerolog.Nop())
	ctx := context.Background()

	tests := []struct {
		name string
		file string
	}{
		{name: "plain json", file: "catalogue.json"},
		{name: "gzipped json", file: "catalogue.json.gz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSeedFile(t, tt.file, testProducts("a", "b"))

			products, err := loader.Load(ctx, path)
			require.NoError(t, err)
			require.Len(t, products, 2)
			assert.Equal(t, "a", products[0].ID)
			assert.True(t, decimal.NewFromInt(10).Equal(products[1].Price))
		})
	}
}

func TestFileLoader_Errors(t *testing.T) {
	loader := NewFileLoader(zerolog.Nop())
	ctx := context.Background()
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := loader.Load(ctx, filepath.Join(dir, "missing.json"))
		assert.Error(t, err)
	})

	t.Run("not gzip", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json.gz")
		require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))
		_, err := loader.Load(ctx, path)
		assert.Error(t, err)
	})

	t.Run("invalid json", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
		_, err := loader.Load(ctx, path)
		assert.Error(t, err)
	})

	t.Run("missing id", func(t *testing.T) {
		products := testProducts("x")
		products[0].ID = ""
		path := writeSeedFile(t, "noid.json", products)
		_, err := loader.Load(ctx, path)
		assert.ErrorIs(t, err, model.ErrInvalidProduct)
	})

	t.Run("negative stock", func(t *testing.T) {
		products := testProducts("x")
		products[0].Stock = -1
		path := writeSeedFile(t, "neg.json", products)
		_, err := loader.Load(ctx, path)
		assert.ErrorIs(t, err, model.ErrInvalidProduct)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		path := writeSeedFile(t, "ok.json", testProducts("a"))
		_, err := loader.Load(cctx, path)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestS3Loader_Load(t *testing.T) {
	client := &mockObjectGetter{}
	client.On("GetObject", mock.Anything, "catalogue/seed.json.gz").Return(&s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(encodeProducts(t, testProducts("s1"), true))),
	}, nil)
	client.On("GetObject", mock.Anything, "catalogue/missing.json").Return(nil, errors.New("NoSuchKey"))

	loader := NewS3LoaderWithClient(client, "bucket", zerolog.Nop())

	products, err := loader.Load(context.Background(), "catalogue/seed.json.gz")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "s1", products[0].ID)

	_, err = loader.Load(context.Background(), "catalogue/missing.json")
	assert.Error(t, err)

	client.AssertExpectations(t)
}

func TestFallbackLoader(t *testing.T) {
	ctx := context.Background()
	s3Products := testProducts("remote")
	localProducts := testProducts("local")

	tests := []struct {
		name      string
		s3Enabled bool
		s3Err     error
		wantID    string
		wantS3    bool
	}{
		{name: "s3 success", s3Enabled: true, wantID: "remote", wantS3: true},
		{name: "s3 failure falls back", s3Enabled: true, s3Err: errors.New("S3 down"), wantID: "local", wantS3: true},
		{name: "s3 disabled", s3Enabled: false, wantID: "local"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s3Called := false
			remote := &mockLoader{loadFunc: func(ctx context.Context, path string) ([]model.Product, error) {
				s3Called = true
				assert.Equal(t, "catalogue/seed.json", path)
				if tt.s3Err != nil {
					return nil, tt.s3Err
				}
				return s3Products, nil
			}}
			local := &mockLoader{loadFunc: func(ctx context.Context, path string) ([]model.Product, error) {
				assert.Equal(t, "seed.json", path)
				return localProducts, nil
			}}

			loader := NewFallbackLoader(remote, local, "catalogue/", tt.s3Enabled, zerolog.Nop())
			products, err := loader.Load(ctx, "seed.json")

			require.NoError(t, err)
			assert.Equal(t, tt.wantID, products[0].ID)
			assert.Equal(t, tt.wantS3, s3Called)
		})
	}
}

func TestFallbackLoader_NilS3(t *testing.T) {
	local := &mockLoader{loadFunc: func(ctx context.Context, path string) ([]model.Product, error) {
		return testProducts("local"), nil
	}}

	loader := NewFallbackLoader(nil, local, "catalogue/", true, zerolog.Nop())
	products, err := loader.Load(context.Background(), "seed.json")

	require.NoError(t, err)
	assert.Equal(t, "local", products[0].ID)
}

func TestLoadCatalogue_KeepsPathOrder(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	loader := &mockLoader{loadFunc: func(ctx context.Context, path string) ([]model.Product, error) {
		mu.Lock()
		calls = append(calls, path)
		mu.Unlock()
		return testProducts(path+"-1", path+"-2"), nil
	}}

	products, err := LoadCatalogue(context.Background(), loader, []string{"b", "a", "c"}, zerolog.Nop())
	require.NoError(t, err)

	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"b-1", "b-2", "a-1", "a-2", "c-1", "c-2"}, ids)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, calls)
}

func TestLoadCatalogue_Errors(t *testing.T) {
	t.Run("loader failure", func(t *testing.T) {
		loader := &mockLoader{loadFunc: func(ctx context.Context, path string) ([]model.Product, error) {
			if path == "bad" {
				return nil, errors.New("boom")
			}
			return testProducts(path), nil
		}}

		_, err := LoadCatalogue(context.Background(), loader, []string{"good", "bad"}, zerolog.Nop())
		assert.EqualError(t, err, "boom")
	})

	t.Run("duplicate ids across files", func(t *testing.T) {
		loader := &mockLoader{loadFunc: func(ctx context.Context, path string) ([]model.Product, error) {
			return testProducts("same"), nil
		}}

		_, err := LoadCatalogue(context.Background(), loader, []string{"one", "two"}, zerolog.Nop())
		assert.ErrorIs(t, err, model.ErrInvalidProduct)
	})
}

func TestLoadCatalogue_NoPathsUsesDefault(t *testing.T) {
	loader := &mockLoader{}

	products, err := LoadCatalogue(context.Background(), loader, nil, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, Default(), products)
}

func TestDefault(t *testing.T) {
	products := Default()
	require.NotEmpty(t, products)

	ids := make(map[string]bool)
	for _, p := range products {
		assert.NoError(t, p.Validate(), p.ID)
		assert.False(t, ids[p.ID], "duplicate id %s", p.ID)
		ids[p.ID] = true
	}

	products[0].Name = "changed"
	assert.NotEqual(t, "changed", Default()[0].Name)
}
