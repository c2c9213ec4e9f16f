package inventory

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

type Repository interface {
	// Ledger reads, no locks
	GetByKey(ctx context.Context, branchID, productID int64) (*model.Inventory, error)
	FindAll(ctx context.Context, filters *dto.InventoryFilters) ([]model.Inventory, error)

	// Row locks. Must be called inside a unit of work; the lock is held until it ends.
	// LockForUpdate returns nil when the row does not exist.
	LockForUpdate(ctx context.Context, branchID, productID int64) (*model.Inventory, error)
	// LockOrCreate inserts a zero row when absent, without racing a concurrent creator.
	LockOrCreate(ctx context.Context, branchID, productID int64) (*model.Inventory, error)
	Save(ctx context.Context, inv *model.Inventory) error

	// Movements / Audit
	LogMovement(ctx context.Context, movement *model.InventoryMovement) error
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error)
	SumMovements(ctx context.Context, branchID, productID int64) (map[model.MovementType]int64, error)
}
