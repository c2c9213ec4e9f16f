package handler

import (
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

type StockRequest struct {
	BranchID    int64  `json:"branch_id"`
	ProductID   int64  `json:"product_id"`
	Quantity    int64  `json:"quantity"`
	ReferenceID *int64 `json:"reference_id,omitempty"`
}

type TransferRequest struct {
	FromBranchID int64 `json:"from_branch_id"`
	ToBranchID   int64 `json:"to_branch_id"`
	ProductID    int64 `json:"product_id"`
	Quantity     int64 `json:"quantity"`
}

type StockKeyRequest struct {
	BranchID  int64 `json:"branch_id"`
	ProductID int64 `json:"product_id"`
}

type ListInventoryRequest struct {
	BranchID int64 `json:"branch_id,omitempty"`
}

type ListInventoryResponse struct {
	Items []*InventoryEntry `json:"items"`
}

type ListMovementsRequest struct {
	BranchID     int64  `json:"branch_id,omitempty"`
	ProductID    int64  `json:"product_id,omitempty"`
	MovementType string `json:"movement_type,omitempty"`
	ReferenceID  int64  `json:"reference_id,omitempty"`
	Page         int32  `json:"page,omitempty"`
	PageSize     int32  `json:"page_size,omitempty"`
}

type ListMovementsResponse struct {
	Movements []model.InventoryMovement `json:"movements"`
	Total     int32                     `json:"total"`
}

type InventoryEntry struct {
	ID                int64     `json:"id"`
	BranchID          int64     `json:"branch_id"`
	ProductID         int64     `json:"product_id"`
	Quantity          int64     `json:"quantity"`
	ReservedQuantity  int64     `json:"reserved_quantity"`
	AvailableQuantity int64     `json:"available_quantity"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func mapInventory(m *model.Inventory) *InventoryEntry {
	if m == nil {
		return nil
	}
	return &InventoryEntry{
		ID:                m.ID,
		BranchID:          m.BranchID,
		ProductID:         m.ProductID,
		Quantity:          m.Quantity,
		ReservedQuantity:  m.ReservedQuantity,
		AvailableQuantity: m.Available(),
		UpdatedAt:         m.UpdatedAt,
	}
}

func optional(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}
