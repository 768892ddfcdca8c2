package cart

import (
	"mini-pos/internal/model"

	"github.com/shopspring/decimal"
)

// Price computes the totals of items under the given discount.
//
// A flat discount is capped at the subtotal. A percent discount is rounded to
// currency places; SetDiscount keeps it at or below 100.
func Price(items []model.CartItem, discount model.Discount) model.Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}

	var off decimal.Decimal
	switch discount.Kind {
	case model.DiscountPercent:
		off = model.RoundCurrency(model.Percent(subtotal, discount.Amount))
	default:
		off = decimal.Min(subtotal, discount.Amount)
	}

	return model.Totals{
		Subtotal: subtotal,
		Discount: off,
		Total:    subtotal.Sub(off),
	}
}
