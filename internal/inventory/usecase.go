package inventory

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/auth"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

type UseCase interface {
	GetStock(ctx context.Context, branchID, productID int64) (*model.Inventory, error)
	ListInventory(ctx context.Context, actor auth.Actor, branchID *int64) ([]model.Inventory, error)

	AddStock(ctx context.Context, input *dto.StockInput) (*model.Inventory, error)
	RemoveStock(ctx context.Context, input *dto.StockInput) (*model.Inventory, error)
	ReserveStock(ctx context.Context, input *dto.StockInput) (*model.Inventory, error)
	ReleaseStock(ctx context.Context, input *dto.StockInput) (*model.Inventory, error)
	// ConsumeReserved deducts quantity and reserved quantity together, for
	// fulfilment of stock reserved earlier.
	ConsumeReserved(ctx context.Context, input *dto.StockInput) (*model.Inventory, error)
	TransferStock(ctx context.Context, input *dto.TransferInput) (*dto.TransferResult, error)

	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error)
	Reconcile(ctx context.Context, branchID, productID int64) (*dto.Reconciliation, error)
}
