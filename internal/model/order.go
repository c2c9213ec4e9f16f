package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "draft"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusCompleted OrderStatus = "completed"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusDraft:     {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusCompleted: {},
	OrderStatusCancelled: {},
}

func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// CanTransitionTo reports whether next is in the allowed set for s.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Order struct {
	ID          int64           `db:"id" json:"id"`
	OrderNumber string          `db:"order_number" json:"order_number"`
	BranchID    int64           `db:"branch_id" json:"branch_id"`
	UserID      int64           `db:"user_id" json:"user_id"`
	Subtotal    decimal.Decimal `db:"subtotal" json:"subtotal"`
	TaxTotal    decimal.Decimal `db:"tax_total" json:"tax_total"`
	GrandTotal  decimal.Decimal `db:"grand_total" json:"grand_total"`
	Status      OrderStatus     `db:"status" json:"status"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
	Lines       []OrderLine     `db:"-" json:"lines"`
}

// OrderLine prices are a point-in-time snapshot taken at order creation.
type OrderLine struct {
	ID        int64           `db:"id" json:"id"`
	OrderID   int64           `db:"order_id" json:"order_id"`
	ProductID int64           `db:"product_id" json:"product_id"`
	Quantity  int64           `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
	TaxAmount decimal.Decimal `db:"tax_amount" json:"tax_amount"`
	LineTotal decimal.Decimal `db:"line_total" json:"line_total"`
	Product   *Product        `db:"-" json:"product,omitempty"`
}

// Subtotal is the untaxed amount of the line.
func (l *OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

var hundred = decimal.NewFromInt(100)

// NewOrderLine snapshots p's current price and tax rate. Tax is rounded to
// cents per line so that order totals add up exactly.
func NewOrderLine(p *Product, quantity int64) OrderLine {
	line := OrderLine{
		ProductID: p.ID,
		Quantity:  quantity,
		UnitPrice: p.SalePrice,
		Product:   p,
	}
	subtotal := line.Subtotal()
	line.TaxAmount = subtotal.Mul(p.TaxPercentage).Div(hundred).Round(2)
	line.LineTotal = subtotal.Add(line.TaxAmount)
	return line
}

// ComputeTotals sets the header totals from the lines.
func (o *Order) ComputeTotals() {
	subtotal, tax := decimal.Zero, decimal.Zero
	for i := range o.Lines {
		subtotal = subtotal.Add(o.Lines[i].Subtotal())
		tax = tax.Add(o.Lines[i].TaxAmount)
	}
	o.Subtotal = subtotal
	o.TaxTotal = tax
	o.GrandTotal = subtotal.Add(tax)
}
