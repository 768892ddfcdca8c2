package scan

import (
	"context"
	"testing"

	"mini-pos/internal/catalogue"
	"mini-pos/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalogue() *catalogue.Catalogue {
	return catalogue.New([]model.Product{
		{ID: "p1", Name: "Shirt", SKU: "TOP-001", Price: decimal.NewFromInt(20), Stock: 5},
		{ID: "p2", Name: "Scarf", SKU: "ACC-002", Price: decimal.NewFromInt(15), Stock: 2},
		{ID: "ACC-003", Name: "Odd", SKU: "p1", Price: decimal.NewFromInt(1), Stock: 1},
	}, zerolog.Nop())
}

func TestCatalogueResolver_Resolve(t *testing.T) {
	resolver := NewCatalogueResolver(newTestCatalogue())
	ctx := context.Background()

	tests := []struct {
		name       string
		identifier string
		wantID     string
		wantErr    error
	}{
		{name: "exact sku", identifier: "TOP-001", wantID: "p1"},
		{name: "sku ignores case and space", identifier: "  acc-002\n", wantID: "p2"},
		{name: "falls back to id", identifier: "p2", wantID: "p2"},
		{name: "sku wins over id", identifier: "p1", wantID: "ACC-003"},
		{name: "unknown", identifier: "NOPE", wantErr: model.ErrNotFound},
		{name: "empty", identifier: "   ", wantErr: model.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := resolver.Resolve(ctx, tt.identifier)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, p.ID)
		})
	}
}

func TestCatalogueResolver_CancelledContext(t *testing.T) {
	resolver := NewCatalogueResolver(newTestCatalogue())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := resolver.Resolve(ctx, "TOP-001")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolverFunc(t *testing.T) {
	var got string
	r := ResolverFunc(func(ctx context.Context, identifier string) (model.Product, error) {
		got = identifier
		return model.Product{ID: "x"}, nil
	})

	p, err := r.Resolve(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, "x", p.ID)
	assert.Equal(t, "code", got)
}
