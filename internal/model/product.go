package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// StockStatus is the derived stock state shown on the inventory screen.
type StockStatus string

const (
	StockStatusInStock    StockStatus = "IN_STOCK"
	StockStatusLow        StockStatus = "LOW_STOCK"
	StockStatusOutOfStock StockStatus = "OUT_OF_STOCK"
)

// Product represents an item in the store catalogue.
type Product struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	SKU               string          `json:"sku"`
	Price             decimal.Decimal `json:"price"`
	Cost              decimal.Decimal `json:"cost"`
	Stock             int             `json:"stock"`
	LowStockThreshold int             `json:"lowStockThreshold"`
	Description       string          `json:"description"`
	ImageURL          string          `json:"imageUrl"`
}

// ProductInput holds the fields of a product that is not yet in the catalogue.
type ProductInput struct {
	Name              string          `json:"name"`
	SKU               string          `json:"sku"`
	Price             decimal.Decimal `json:"price"`
	Cost              decimal.Decimal `json:"cost"`
	Stock             int             `json:"stock"`
	LowStockThreshold int             `json:"lowStockThreshold"`
	Description       string          `json:"description"`
	ImageURL          string          `json:"imageUrl"`
}

// WithID builds a Product from the input using the given id.
func (in ProductInput) WithID(id string) Product {
	return Product{
		ID:                id,
		Name:              in.Name,
		SKU:               in.SKU,
		Price:             in.Price,
		Cost:              in.Cost,
		Stock:             in.Stock,
		LowStockThreshold: in.LowStockThreshold,
		Description:       in.Description,
		ImageURL:          in.ImageURL,
	}
}

// Validate checks the numeric fields of the product.
func (p Product) Validate() error {
	switch {
	case p.Price.IsNegative():
		return fmt.Errorf("%w: price %s is negative", ErrInvalidProduct, p.Price)
	case p.Cost.IsNegative():
		return fmt.Errorf("%w: cost %s is negative", ErrInvalidProduct, p.Cost)
	case p.Stock < 0:
		return fmt.Errorf("%w: stock %d is negative", ErrInvalidProduct, p.Stock)
	case p.LowStockThreshold < 0:
		return fmt.Errorf("%w: low stock threshold %d is negative", ErrInvalidProduct, p.LowStockThreshold)
	}
	return nil
}

// IsOutOfStock reports whether no units are available.
func (p Product) IsOutOfStock() bool {
	return p.Stock <= 0
}

// IsLowStock reports whether stock is positive but at or below the threshold.
func (p Product) IsLowStock() bool {
	return p.Stock > 0 && p.Stock <= p.LowStockThreshold
}

// StockStatus returns the derived stock state.
func (p Product) StockStatus() StockStatus {
	switch {
	case p.IsOutOfStock():
		return StockStatusOutOfStock
	case p.IsLowStock():
		return StockStatusLow
	default:
		return StockStatusInStock
	}
}
