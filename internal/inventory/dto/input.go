package dto

import "github.com/fekuna/omnipos-inventory-service/internal/auth"

type StockInput struct {
	Actor       auth.Actor
	BranchID    int64
	ProductID   int64
	Quantity    int64
	ReferenceID *int64 // e.g. order id
}

type TransferInput struct {
	Actor        auth.Actor
	FromBranchID int64
	ToBranchID   int64
	ProductID    int64
	Quantity     int64
}

type TransferResult struct {
	FromBranchID int64 `json:"from_branch_id"`
	ToBranchID   int64 `json:"to_branch_id"`
	ProductID    int64 `json:"product_id"`
	Quantity     int64 `json:"quantity"`
}
