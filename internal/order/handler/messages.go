package handler

import "github.com/fekuna/omnipos-inventory-service/internal/model"

type OrderItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type CreateOrderRequest struct {
	BranchID int64              `json:"branch_id"`
	Items    []OrderItemRequest `json:"items"`
}

type GetOrderRequest struct {
	ID int64 `json:"id"`
}

type ListOrdersRequest struct {
	BranchID int64  `json:"branch_id,omitempty"`
	Status   string `json:"status,omitempty"`
	Search   string `json:"search,omitempty"`
	Page     int32  `json:"page,omitempty"`
	PageSize int32  `json:"page_size,omitempty"`
}

type ListOrdersResponse struct {
	Orders []model.Order `json:"orders"`
	Total  int32         `json:"total"`
}

type ChangeOrderStatusRequest struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"`
}
