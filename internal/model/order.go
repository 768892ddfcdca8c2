package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is the immutable record of a completed sale.
type Order struct {
	ID         uuid.UUID       `json:"id"`
	Date       time.Time       `json:"date"`
	Items      []CartItem      `json:"items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Discount   decimal.Decimal `json:"discount"`
	Total      decimal.Decimal `json:"total"`
	AmountPaid decimal.Decimal `json:"amountPaid"`
	Change     decimal.Decimal `json:"change"`
}

// ItemCount returns the number of units sold in the order.
func (o Order) ItemCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

// Clone returns a deep copy of the order.
func (o Order) Clone() Order {
	o.Items = append([]CartItem(nil), o.Items...)
	return o
}

// StockLine is a quantity to take out of a product's stock.
type StockLine struct {
	ProductID string
	Quantity  int
}
