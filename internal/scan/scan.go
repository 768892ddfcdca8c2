// Package scan turns a scanned or typed identifier into a catalogue product.
package scan

import (
	"context"
	"fmt"
	"strings"

	"mini-pos/internal/model"
)

// Resolver identifies the product referred to by a scan.
type Resolver interface {
	// Resolve returns the matching product or an error wrapping model.ErrNotFound.
	Resolve(ctx context.Context, identifier string) (model.Product, error)
}

// Lookup is the catalogue view a resolver searches.
type Lookup interface {
	FindBySKU(sku string) (model.Product, bool)
	Get(id string) (model.Product, error)
}

// catalogueResolver matches identifiers against SKUs first and product ids second.
type catalogueResolver struct {
	lookup Lookup
}

// NewCatalogueResolver creates a Resolver backed by lookup.
func NewCatalogueResolver(lookup Lookup) Resolver {
	return &catalogueResolver{lookup: lookup}
}

func (r *catalogueResolver) Resolve(ctx context.Context, identifier string) (model.Product, error) {
	if err := ctx.Err(); err != nil {
		return model.Product{}, err
	}

	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return model.Product{}, fmt.Errorf("%w: empty scan", model.ErrNotFound)
	}

	if p, ok := r.lookup.FindBySKU(identifier); ok {
		return p, nil
	}
	if p, err := r.lookup.Get(identifier); err == nil {
		return p, nil
	}
	return model.Product{}, fmt.Errorf("%w: no product for scan %q", model.ErrNotFound, identifier)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, identifier string) (model.Product, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, identifier string) (model.Product, error) {
	return f(ctx, identifier)
}
