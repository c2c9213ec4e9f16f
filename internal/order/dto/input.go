package dto

import (
	"github.com/fekuna/omnipos-inventory-service/internal/auth"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

type LineInput struct {
	ProductID int64
	Quantity  int64
}

type CreateOrderInput struct {
	Actor    auth.Actor
	BranchID int64
	Lines    []LineInput
}

type ListOrdersInput struct {
	Actor    auth.Actor
	BranchID *int64
	Status   model.OrderStatus
	Search   string
	Page     int
	PageSize int
}

type ChangeStatusInput struct {
	Actor   auth.Actor
	OrderID int64
	Status  model.OrderStatus
}
