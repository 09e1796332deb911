package source

import (
	"context"

	"ecomdash/internal/core"
)

// Source loads the three dashboard extracts.
type Source interface {
	Load(ctx context.Context) (core.Dataset, error)
}

// Column names of the upstream extracts.
const (
	ColCategory        = "product_category_name_english"
	ColPrice           = "price"
	ColPurchasedAt     = "order_purchase_timestamp"
	ColState           = "customer_state"
	ColUniqueCustomers = "unique_customers"
)
