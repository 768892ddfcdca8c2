package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DiscountKind selects how a discount amount is applied to the subtotal.
type DiscountKind string

const (
	DiscountFlat    DiscountKind = "FLAT"
	DiscountPercent DiscountKind = "PERCENT"
)

// ParseDiscountKind accepts "flat" or "percent" in any case; "%" is an alias for percent.
func ParseDiscountKind(s string) (DiscountKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(DiscountFlat), "$":
		return DiscountFlat, nil
	case string(DiscountPercent), "%":
		return DiscountPercent, nil
	}
	return "", fmt.Errorf("%w: unknown discount kind %q", ErrInvalidDiscount, s)
}

// Discount is the transient discount applied to a cart.
type Discount struct {
	Amount decimal.Decimal `json:"amount"`
	Kind   DiscountKind    `json:"kind"`
}

// NoDiscount is the discount a cleared cart starts with.
func NoDiscount() Discount {
	return Discount{Amount: decimal.Zero, Kind: DiscountFlat}
}

// CartItem is a product snapshot plus sale-specific fields.
type CartItem struct {
	Product
	Quantity  int             `json:"quantity"`
	SalePrice decimal.Decimal `json:"salePrice"`
}

// LineTotal returns salePrice * quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.SalePrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Totals holds the derived pricing of a cart.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}
