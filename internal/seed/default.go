package seed

import (
	"mini-pos/internal/model"

	"github.com/shopspring/decimal"
)

// Default returns the built-in boutique catalogue. Each call returns a fresh slice.
func Default() []model.Product {
	return []model.Product{
		{
			ID:                "prod_seed_linen_shirt",
			Name:              "Linen Shirt",
			SKU:               "TOP-LIN-001",
			Price:             decimal.RequireFromString("59.00"),
			Cost:              decimal.RequireFromString("22.50"),
			Stock:             18,
			LowStockThreshold: 5,
			Description:       "Relaxed fit linen shirt in natural white.",
		},
		{
			ID:                "prod_seed_wool_scarf",
			Name:              "Merino Wool Scarf",
			SKU:               "ACC-SCF-002",
			Price:             decimal.RequireFromString("34.90"),
			Cost:              decimal.RequireFromString("11.20"),
			Stock:             4,
			LowStockThreshold: 5,
			Description:       "Soft merino scarf, charcoal grey.",
		},
		{
			ID:                "prod_seed_denim_jacket",
			Name:              "Denim Jacket",
			SKU:               "OUT-DNM-003",
			Price:             decimal.RequireFromString("120.00"),
			Cost:              decimal.RequireFromString("48.00"),
			Stock:             7,
			LowStockThreshold: 3,
			Description:       "Classic washed denim jacket.",
		},
		{
			ID:                "prod_seed_silk_dress",
			Name:              "Silk Slip Dress",
			SKU:               "DRS-SLK-004",
			Price:             decimal.RequireFromString("149.50"),
			Cost:              decimal.RequireFromString("61.00"),
			Stock:             0,
			LowStockThreshold: 2,
			Description:       "Bias cut slip dress in emerald silk.",
		},
		{
			ID:                "prod_seed_leather_belt",
			Name:              "Leather Belt",
			SKU:               "ACC-BLT-005",
			Price:             decimal.RequireFromString("45.00"),
			Cost:              decimal.RequireFromString("15.75"),
			Stock:             25,
			LowStockThreshold: 6,
			Description:       "Full grain leather belt with brass buckle.",
		},
		{
			ID:                "prod_seed_canvas_tote",
			Name:              "Canvas Tote",
			SKU:               "BAG-TOT-006",
			Price:             decimal.RequireFromString("24.00"),
			Cost:              decimal.RequireFromString("6.40"),
			Stock:             40,
			LowStockThreshold: 10,
			Description:       "Heavy canvas tote with inner pocket.",
		},
	}
}
