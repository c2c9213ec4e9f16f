package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const ProductStatusActive = "active"

// Product is the read-only catalog view the order aggregate snapshots from.
type Product struct {
	ID            int64           `db:"id" json:"id"`
	Name          string          `db:"name" json:"name"`
	SKU           string          `db:"sku" json:"sku"`
	SalePrice     decimal.Decimal `db:"sale_price" json:"sale_price"`
	TaxPercentage decimal.Decimal `db:"tax_percentage" json:"tax_percentage"`
	Status        string          `db:"status" json:"status"`
	DeletedAt     *time.Time      `db:"deleted_at" json:"deleted_at,omitempty"`
}

func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive && p.DeletedAt == nil
}
