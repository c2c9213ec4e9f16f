package model

import (
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
)

type Inventory struct {
	ID               int64     `db:"id" json:"id"`
	BranchID         int64     `db:"branch_id" json:"branch_id"`
	ProductID        int64     `db:"product_id" json:"product_id"`
	Quantity         int64     `db:"quantity" json:"quantity"`
	ReservedQuantity int64     `db:"reserved_quantity" json:"reserved_quantity"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Available is the stock eligible for new reservations or removals.
func (i *Inventory) Available() int64 {
	return i.Quantity - i.ReservedQuantity
}

// Validate enforces 0 <= reserved_quantity <= quantity. It is checked before
// every write and never clamps.
func (i *Inventory) Validate() error {
	if i.Quantity < 0 || i.ReservedQuantity < 0 || i.ReservedQuantity > i.Quantity {
		return apperror.LedgerCorrupted(i.BranchID, i.ProductID, i.Quantity, i.ReservedQuantity)
	}
	return nil
}

type MovementType string

const (
	MovementIn          MovementType = "IN"
	MovementOut         MovementType = "OUT"
	MovementReserve     MovementType = "RESERVE"
	MovementRelease     MovementType = "RELEASE"
	MovementOutTransfer MovementType = "OUT_TRANSFER"
	MovementInTransfer  MovementType = "IN_TRANSFER"
)

func (t MovementType) Valid() bool {
	switch t {
	case MovementIn, MovementOut, MovementReserve, MovementRelease, MovementOutTransfer, MovementInTransfer:
		return true
	}
	return false
}

// QuantitySign is the effect of a movement on on-hand quantity: +1, -1, or 0
// for reservation bookkeeping.
func (t MovementType) QuantitySign() int64 {
	switch t {
	case MovementIn, MovementInTransfer:
		return 1
	case MovementOut, MovementOutTransfer:
		return -1
	}
	return 0
}

// InventoryMovement is append-only; rows are never updated or deleted.
type InventoryMovement struct {
	ID          int64        `db:"id" json:"id"`
	BranchID    int64        `db:"branch_id" json:"branch_id"`
	ProductID   int64        `db:"product_id" json:"product_id"`
	UserID      int64        `db:"user_id" json:"user_id"`
	Type        MovementType `db:"type" json:"type"`
	Quantity    int64        `db:"quantity" json:"quantity"`
	ReferenceID *int64       `db:"reference_id" json:"reference_id,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
}
