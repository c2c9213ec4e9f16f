package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_wrappedError_returnsKind(t *testing.T) {
	err := fmt.Errorf("confirm order: %w", InsufficientStock(1, 9, 7, 6))

	assert.Equal(t, KindInsufficientStock, KindOf(err))
	assert.True(t, Is(err, KindInsufficientStock))
	assert.False(t, Is(err, KindForbidden))
}

func TestKindOf_plainError_isInternal(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, KindInternal))
}

func TestInsufficientStock_carriesContext(t *testing.T) {
	err := InsufficientStock(1, 9, 7, 6)

	assert.Equal(t, int64(1), err.BranchID)
	assert.Equal(t, int64(9), err.ProductID)
	assert.Equal(t, int64(7), err.Requested)
	assert.Equal(t, int64(6), err.Available)
	assert.Contains(t, err.Error(), "requested 7, available 6")
}

func TestLedgerCorrupted_isInternal(t *testing.T) {
	err := LedgerCorrupted(2, 9, 5, 6)

	assert.Equal(t, KindInternal, err.Kind)
	assert.False(t, err.Kind.Retryable())
	assert.Contains(t, err.Error(), "quantity 5, reserved 6")
}

func TestInvalidTransition_namesBothStates(t *testing.T) {
	err := InvalidTransition("completed", "cancelled")

	assert.Equal(t, "completed", err.From)
	assert.Equal(t, "cancelled", err.To)
	assert.Equal(t, "invalid status transition from completed to cancelled", err.Error())
}

func TestConcurrencyTimeout_unwrapsCause(t *testing.T) {
	cause := errors.New("canceling statement due to lock timeout")
	err := ConcurrencyTimeout(cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, err.Kind.Retryable())
	assert.False(t, KindInsufficientStock.Retryable())
}

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindInvalidArgument, "INVALID_ARGUMENT"},
		{KindInsufficientReservation, "INSUFFICIENT_RESERVATION"},
		{KindReservationMismatch, "RESERVATION_MISMATCH"},
		{KindConcurrencyTimeout, "CONCURRENCY_TIMEOUT"},
		{Kind(99), "INTERNAL"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.String())
	}
}
