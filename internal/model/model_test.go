package model

import (
	"testing"

	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestInventory_Validate(t *testing.T) {
	tests := []struct {
		name     string
		inv      Inventory
		wantKind apperror.Kind
		ok       bool
	}{
		{"empty", Inventory{}, 0, true},
		{"fully reserved", Inventory{Quantity: 5, ReservedQuantity: 5}, 0, true},
		{"over reserved", Inventory{Quantity: 5, ReservedQuantity: 6}, apperror.KindInternal, false},
		{"negative quantity", Inventory{Quantity: -1}, apperror.KindInternal, false},
		{"negative reservation", Inventory{Quantity: 3, ReservedQuantity: -1}, apperror.KindInternal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.inv.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperror.Is(err, tt.wantKind), "got %v", err)
		})
	}
}

func TestMovementType_QuantitySign(t *testing.T) {
	assert.Equal(t, int64(1), MovementIn.QuantitySign())
	assert.Equal(t, int64(1), MovementInTransfer.QuantitySign())
	assert.Equal(t, int64(-1), MovementOut.QuantitySign())
	assert.Equal(t, int64(-1), MovementOutTransfer.QuantitySign())
	assert.Zero(t, MovementReserve.QuantitySign())
	assert.Zero(t, MovementRelease.QuantitySign())
	assert.False(t, MovementType("ADJUST").Valid())
}

func TestOrderStatus_transitions(t *testing.T) {
	assert.True(t, OrderStatusDraft.CanTransitionTo(OrderStatusConfirmed))
	assert.True(t, OrderStatusDraft.CanTransitionTo(OrderStatusCancelled))
	assert.False(t, OrderStatusDraft.CanTransitionTo(OrderStatusCompleted))
	assert.True(t, OrderStatusConfirmed.CanTransitionTo(OrderStatusCompleted))
	assert.True(t, OrderStatusConfirmed.CanTransitionTo(OrderStatusCancelled))

	for _, terminal := range []OrderStatus{OrderStatusCompleted, OrderStatusCancelled} {
		assert.True(t, terminal.Terminal())
		for _, next := range []OrderStatus{OrderStatusDraft, OrderStatusConfirmed, OrderStatusCancelled, OrderStatusCompleted} {
			assert.False(t, terminal.CanTransitionTo(next), "%s -> %s", terminal, next)
		}
	}
	assert.False(t, OrderStatus("shipped").Valid())
}

func TestOrderTotals(t *testing.T) {
	coffee := &Product{ID: 1, SalePrice: decimal.NewFromInt(100), TaxPercentage: decimal.NewFromInt(10)}
	tea := &Product{ID: 2, SalePrice: decimal.RequireFromString("3.33"), TaxPercentage: decimal.RequireFromString("11")}

	order := Order{Lines: []OrderLine{NewOrderLine(coffee, 2), NewOrderLine(tea, 3)}}
	order.ComputeTotals()

	assert.Equal(t, "20", order.Lines[0].TaxAmount.String())
	assert.Equal(t, "220", order.Lines[0].LineTotal.String())
	// 9.99 * 11% = 1.0989
	assert.Equal(t, "1.1", order.Lines[1].TaxAmount.String())

	assert.Equal(t, "209.99", order.Subtotal.String())
	assert.Equal(t, "21.1", order.TaxTotal.String())
	assert.True(t, order.GrandTotal.Equal(order.Subtotal.Add(order.TaxTotal)))

	lineTotals, lineTax := decimal.Zero, decimal.Zero
	for _, l := range order.Lines {
		lineTotals = lineTotals.Add(l.LineTotal)
		lineTax = lineTax.Add(l.TaxAmount)
	}
	assert.True(t, order.GrandTotal.Equal(lineTotals))
	assert.True(t, order.Subtotal.Equal(lineTotals.Sub(lineTax)))
}
