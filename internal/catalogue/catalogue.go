// Package catalogue holds the authoritative product list and its stock counters.
package catalogue

import (
	"fmt"
	"strings"

	"mini-pos/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Catalogue is the in-memory product store. It is not safe for concurrent use;
// the owning session serialises access.
type Catalogue struct {
	products []model.Product
	newID    func() string
	logger   zerolog.Logger
}

// Option configures a Catalogue.
type Option func(*Catalogue)

// WithIDGenerator overrides how product ids are assigned.
func WithIDGenerator(fn func() string) Option {
	return func(c *Catalogue) {
		c.newID = fn
	}
}

// New creates a catalogue holding copies of the given products.
func New(products []model.Product, logger zerolog.Logger, opts ...Option) *Catalogue {
	c := &Catalogue{
		products: append([]model.Product(nil), products...),
		newID:    newProductID,
		logger:   logger.With().Str("component", "catalogue").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newProductID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return "prod_" + id.String()
}

// Add assigns a fresh id to the product data and appends it.
func (c *Catalogue) Add(in model.ProductInput) (model.Product, error) {
	p := in.WithID(c.newID())
	if err := p.Validate(); err != nil {
		c.logger.Warn().Err(err).Str("sku", in.SKU).Msg("rejected new product")
		return model.Product{}, err
	}

	c.products = append(c.products, p)

	c.logger.Debug().
		Str("product_id", p.ID).
		Str("sku", p.SKU).
		Int("stock", p.Stock).
		Msg("product added")

	return p, nil
}

// Update replaces the product with the matching id.
func (c *Catalogue) Update(p model.Product) error {
	i := c.indexOf(p.ID)
	if i < 0 {
		return fmt.Errorf("%w: %s", model.ErrNotFound, p.ID)
	}
	if err := p.Validate(); err != nil {
		c.logger.Warn().Err(err).Str("product_id", p.ID).Msg("rejected product update")
		return err
	}

	c.products[i] = p

	c.logger.Debug().Str("product_id", p.ID).Msg("product updated")
	return nil
}

// Delete removes the product. Deleting an absent product is a no-op.
// It reports whether a product was removed.
func (c *Catalogue) Delete(id string) bool {
	i := c.indexOf(id)
	if i < 0 {
		return false
	}

	c.products = append(c.products[:i], c.products[i+1:]...)

	c.logger.Debug().Str("product_id", id).Msg("product deleted")
	return true
}

// Get returns the product with the given id.
func (c *Catalogue) Get(id string) (model.Product, error) {
	i := c.indexOf(id)
	if i < 0 {
		return model.Product{}, fmt.Errorf("%w: %s", model.ErrNotFound, id)
	}
	return c.products[i], nil
}

// FindBySKU returns the first product whose SKU matches, ignoring case and surrounding space.
func (c *Catalogue) FindBySKU(sku string) (model.Product, bool) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return model.Product{}, false
	}
	for _, p := range c.products {
		if strings.EqualFold(p.SKU, sku) {
			return p, true
		}
	}
	return model.Product{}, false
}

// Search returns the products whose name or SKU contains term, ignoring case.
// An empty term matches every product.
func (c *Catalogue) Search(term string) []model.Product {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return c.List()
	}
	var out []model.Product
	for _, p := range c.products {
		if strings.Contains(strings.ToLower(p.Name), term) || strings.Contains(strings.ToLower(p.SKU), term) {
			out = append(out, p)
		}
	}
	return out
}

// List returns a copy of all products in insertion order.
func (c *Catalogue) List() []model.Product {
	return append([]model.Product(nil), c.products...)
}

// LowStock returns the products that are in stock but at or below their threshold.
func (c *Catalogue) LowStock() []model.Product {
	var low []model.Product
	for _, p := range c.products {
		if p.IsLowStock() {
			low = append(low, p)
		}
	}
	return low
}

// Len returns the number of products.
func (c *Catalogue) Len() int {
	return len(c.products)
}

// DecrementStock subtracts quantity from the product's stock.
func (c *Catalogue) DecrementStock(id string, quantity int) error {
	return c.DecrementAll([]model.StockLine{{ProductID: id, Quantity: quantity}})
}

// DecrementAll applies every line or none of them. Lines for the same product are
// summed before being checked against stock.
func (c *Catalogue) DecrementAll(lines []model.StockLine) error {
	need := make(map[string]int, len(lines))
	for _, line := range lines {
		if line.Quantity < 0 {
			return fmt.Errorf("%w: negative quantity %d for %s", model.ErrInsufficientStock, line.Quantity, line.ProductID)
		}
		need[line.ProductID] += line.Quantity
	}

	index := make(map[string]int, len(need))
	for id, qty := range need {
		i := c.indexOf(id)
		if i < 0 {
			return fmt.Errorf("%w: %s", model.ErrNotFound, id)
		}
		if qty > c.products[i].Stock {
			c.logger.Error().
				Str("product_id", id).
				Int("requested", qty).
				Int("stock", c.products[i].Stock).
				Msg("stock decrement exceeds available stock")
			return fmt.Errorf("%w: %s has %d, need %d", model.ErrInsufficientStock, id, c.products[i].Stock, qty)
		}
		index[id] = i
	}

	for id, qty := range need {
		c.products[index[id]].Stock -= qty
	}
	return nil
}

// Replace swaps the whole product list, used when restoring a snapshot.
func (c *Catalogue) Replace(products []model.Product) {
	c.products = append([]model.Product(nil), products...)
}

func (c *Catalogue) indexOf(id string) int {
	for i := range c.products {
		if c.products[i].ID == id {
			return i
		}
	}
	return -1
}
