package dto

import "github.com/fekuna/omnipos-inventory-service/internal/model"

type InventoryFilters struct {
	BranchID  *int64
	ProductID *int64
}

type MovementFilters struct {
	BranchID     *int64
	ProductID    *int64
	MovementType model.MovementType
	ReferenceID  *int64
	Page         int
	PageSize     int
}

type Reconciliation struct {
	BranchID         int64 `json:"branch_id"`
	ProductID        int64 `json:"product_id"`
	LedgerQuantity   int64 `json:"ledger_quantity"`
	MovementQuantity int64 `json:"movement_quantity"`
	Consistent       bool  `json:"consistent"`
}
