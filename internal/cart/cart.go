// Package cart implements the single in-progress sale.
package cart

import (
	"fmt"

	"mini-pos/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var maxPercent = decimal.NewFromInt(100)

// StockSource supplies current product data for stock checks.
type StockSource interface {
	Get(id string) (model.Product, error)
}

// State is a copy of everything a cart holds.
type State struct {
	Items      []model.CartItem
	Discount   model.Discount
	CheckedOut bool
}

// Cart is the mutable in-progress sale. It is not safe for concurrent use.
type Cart struct {
	items      []model.CartItem
	discount   model.Discount
	checkedOut bool
	stock      StockSource
	logger     zerolog.Logger
}

// New creates an empty cart that validates quantities against stock.
func New(stock StockSource, logger zerolog.Logger) *Cart {
	return &Cart{
		discount: model.NoDiscount(),
		stock:    stock,
		logger:   logger.With().Str("component", "cart").Logger(),
	}
}

// Add puts one unit of the product in the cart.
func (c *Cart) Add(productID string) error {
	p, err := c.stock.Get(productID)
	if err != nil {
		return err
	}

	if p.IsOutOfStock() {
		c.logger.Debug().Str("product_id", productID).Msg("product out of stock")
		return fmt.Errorf("%w: %s", model.ErrOutOfStock, p.Name)
	}

	if i := c.indexOf(productID); i >= 0 {
		if c.items[i].Quantity+1 > p.Stock {
			c.logger.Debug().
				Str("product_id", productID).
				Int("quantity", c.items[i].Quantity).
				Int("stock", p.Stock).
				Msg("stock limit reached")
			return fmt.Errorf("%w: only %d of %s available", model.ErrStockLimitReached, p.Stock, p.Name)
		}
		c.items[i].Quantity++
		return nil
	}

	c.items = append(c.items, model.CartItem{
		Product:   p,
		Quantity:  1,
		SalePrice: p.Price,
	})
	return nil
}

// UpdateQuantity sets the quantity of a cart item. A quantity of zero or less removes it.
func (c *Cart) UpdateQuantity(productID string, quantity int) error {
	if quantity <= 0 {
		c.Remove(productID)
		return nil
	}

	p, err := c.stock.Get(productID)
	if err != nil {
		return err
	}
	if quantity > p.Stock {
		c.logger.Debug().
			Str("product_id", productID).
			Int("requested", quantity).
			Int("stock", p.Stock).
			Msg("quantity above stock")
		return fmt.Errorf("%w: cannot set %s above %d", model.ErrStockLimitReached, p.Name, p.Stock)
	}

	i := c.indexOf(productID)
	if i < 0 {
		return fmt.Errorf("%w: %s is not in the cart", model.ErrNotFound, productID)
	}
	c.items[i].Quantity = quantity
	return nil
}

// UpdateSalePrice overrides the price the item is sold at.
func (c *Cart) UpdateSalePrice(productID string, price decimal.Decimal) error {
	if price.IsNegative() {
		return fmt.Errorf("%w: %s", model.ErrInvalidPrice, price)
	}

	i := c.indexOf(productID)
	if i < 0 {
		return fmt.Errorf("%w: %s is not in the cart", model.ErrNotFound, productID)
	}
	c.items[i].SalePrice = price
	return nil
}

// Remove deletes the item if present and reports whether it was.
func (c *Cart) Remove(productID string) bool {
	i := c.indexOf(productID)
	if i < 0 {
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return true
}

// Clear empties the cart, resets the discount and starts a new sale.
func (c *Cart) Clear() {
	c.items = nil
	c.discount = model.NoDiscount()
	c.checkedOut = false
}

// SetDiscount replaces the discount. Percent discounts above 100 are rejected.
func (c *Cart) SetDiscount(amount decimal.Decimal, kind model.DiscountKind) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: amount %s is negative", model.ErrInvalidDiscount, amount)
	}
	switch kind {
	case model.DiscountFlat:
	case model.DiscountPercent:
		if amount.GreaterThan(maxPercent) {
			return fmt.Errorf("%w: %s%% is above 100%%", model.ErrInvalidDiscount, amount)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", model.ErrInvalidDiscount, kind)
	}

	c.discount = model.Discount{Amount: amount, Kind: kind}
	return nil
}

// Discount returns the current discount.
func (c *Cart) Discount() model.Discount {
	return c.discount
}

// Items returns a copy of the cart items in insertion order.
func (c *Cart) Items() []model.CartItem {
	return append([]model.CartItem(nil), c.items...)
}

// Item returns the cart item for the product.
func (c *Cart) Item(productID string) (model.CartItem, bool) {
	i := c.indexOf(productID)
	if i < 0 {
		return model.CartItem{}, false
	}
	return c.items[i], true
}

// IsEmpty reports whether the cart has no items.
func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// Totals computes subtotal, discount and total from the current state.
func (c *Cart) Totals() model.Totals {
	return Price(c.items, c.discount)
}

// MarkCheckedOut records that the current items were sold. Only Clear resets it.
func (c *Cart) MarkCheckedOut() {
	c.checkedOut = true
}

// CheckedOut reports whether the cart was sold and not yet cleared.
func (c *Cart) CheckedOut() bool {
	return c.checkedOut
}

// Reconcile drops items whose product no longer exists or is out of stock and clamps
// quantities to current stock. It returns the ids of the items it changed.
func (c *Cart) Reconcile() []string {
	var changed []string
	kept := c.items[:0]
	for _, item := range c.items {
		p, err := c.stock.Get(item.ID)
		if err != nil || p.IsOutOfStock() {
			changed = append(changed, item.ID)
			continue
		}
		if item.Quantity > p.Stock {
			item.Quantity = p.Stock
			changed = append(changed, item.ID)
		}
		kept = append(kept, item)
	}
	c.items = kept

	if len(changed) > 0 {
		c.logger.Info().Strs("product_ids", changed).Msg("cart reconciled against catalogue")
	}
	return changed
}

// Snapshot returns a copy of the cart state.
func (c *Cart) Snapshot() State {
	return State{
		Items:      c.Items(),
		Discount:   c.discount,
		CheckedOut: c.checkedOut,
	}
}

// Restore replaces the cart state with s.
func (c *Cart) Restore(s State) {
	c.items = append([]model.CartItem(nil), s.Items...)
	c.discount = s.Discount
	if c.discount.Kind == "" {
		c.discount = model.NoDiscount()
	}
	c.checkedOut = s.CheckedOut
}

func (c *Cart) indexOf(productID string) int {
	for i := range c.items {
		if c.items[i].ID == productID {
			return i
		}
	}
	return -1
}
