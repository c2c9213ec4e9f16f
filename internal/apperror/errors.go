package apperror

import (
	"errors"
	"fmt"
)

// Kind is the closed set of failure categories surfaced by the ledger and
// the order lifecycle.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidArgument
	KindNotFound
	KindInsufficientStock
	KindInsufficientReservation
	KindInvalidProduct
	KindInvalidTransition
	KindReservationMismatch
	KindForbidden
	KindConcurrencyTimeout
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "INVALID_ARGUMENT"
	case KindNotFound:
		return "NOT_FOUND"
	case KindInsufficientStock:
		return "INSUFFICIENT_STOCK"
	case KindInsufficientReservation:
		return "INSUFFICIENT_RESERVATION"
	case KindInvalidProduct:
		return "INVALID_PRODUCT"
	case KindInvalidTransition:
		return "INVALID_TRANSITION"
	case KindReservationMismatch:
		return "RESERVATION_MISMATCH"
	case KindForbidden:
		return "FORBIDDEN"
	case KindConcurrencyTimeout:
		return "CONCURRENCY_TIMEOUT"
	default:
		return "INTERNAL"
	}
}

// Retryable reports whether the whole operation may be safely re-issued.
func (k Kind) Retryable() bool {
	return k == KindConcurrencyTimeout
}

// Error is a domain failure with enough context for callers to render a
// precise message without parsing strings.
type Error struct {
	Kind    Kind
	Message string

	BranchID  int64
	ProductID int64
	OrderID   int64
	Requested int64
	// Available holds available stock for InsufficientStock and the reserved
	// quantity for InsufficientReservation / ReservationMismatch.
	Available int64
	From      string
	To        string

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func InvalidArgument(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...interface{}) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func InsufficientStock(branchID, productID, requested, available int64) *Error {
	return &Error{
		Kind:      KindInsufficientStock,
		Message:   fmt.Sprintf("not enough available stock for product %d in branch %d: requested %d, available %d", productID, branchID, requested, available),
		BranchID:  branchID,
		ProductID: productID,
		Requested: requested,
		Available: available,
	}
}

func InsufficientReservation(branchID, productID, requested, reserved int64) *Error {
	return &Error{
		Kind:      KindInsufficientReservation,
		Message:   fmt.Sprintf("cannot release more than reserved for product %d in branch %d: requested %d, reserved %d", productID, branchID, requested, reserved),
		BranchID:  branchID,
		ProductID: productID,
		Requested: requested,
		Available: reserved,
	}
}

func InvalidProduct(productID int64) *Error {
	return &Error{
		Kind:      KindInvalidProduct,
		Message:   fmt.Sprintf("invalid or inactive product %d", productID),
		ProductID: productID,
	}
}

func InvalidTransition(from, to string) *Error {
	return &Error{
		Kind:    KindInvalidTransition,
		Message: fmt.Sprintf("invalid status transition from %s to %s", from, to),
		From:    from,
		To:      to,
	}
}

func ReservationMismatch(orderID, branchID, productID, required, reserved int64) *Error {
	return &Error{
		Kind:      KindReservationMismatch,
		Message:   fmt.Sprintf("reserved quantity mismatch for order %d, product %d in branch %d: required %d, reserved %d", orderID, productID, branchID, required, reserved),
		OrderID:   orderID,
		BranchID:  branchID,
		ProductID: productID,
		Requested: required,
		Available: reserved,
	}
}

// ConcurrencyTimeout wraps a lock-wait or deadline failure.
func ConcurrencyTimeout(err error) *Error {
	return &Error{
		Kind:    KindConcurrencyTimeout,
		Message: "lock wait exceeded, retry the operation",
		Err:     err,
	}
}

// LedgerCorrupted reports a row that breaks 0 <= reserved <= quantity. It is
// an integrity fault and never a business rejection.
func LedgerCorrupted(branchID, productID, quantity, reserved int64) *Error {
	return &Error{
		Kind:      KindInternal,
		Message:   fmt.Sprintf("ledger invariant violated for product %d in branch %d: quantity %d, reserved %d", productID, branchID, quantity, reserved),
		BranchID:  branchID,
		ProductID: productID,
		Requested: quantity,
		Available: reserved,
	}
}
