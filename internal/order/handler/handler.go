package handler

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/fekuna/omnipos-inventory-service/internal/auth"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/order"
	"github.com/fekuna/omnipos-inventory-service/internal/order/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/logger"
)

type OrderHandler struct {
	uc     order.UseCase
	logger logger.ZapLogger
}

func NewOrderHandler(uc order.UseCase, log logger.ZapLogger) *OrderHandler {
	return &OrderHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *OrderHandler) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*model.Order, error) {
	actor, err := auth.RequireActor(ctx)
	if err != nil {
		return nil, err
	}

	lines := make([]dto.LineInput, len(req.Items))
	for i, item := range req.Items {
		lines[i] = dto.LineInput{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	o, err := h.uc.CreateOrder(ctx, &dto.CreateOrderInput{
		Actor:    actor,
		BranchID: req.BranchID,
		Lines:    lines,
	})
	if err != nil {
		return nil, apperror.ToStatus(err)
	}
	return o, nil
}

func (h *OrderHandler) GetOrder(ctx context.Context, req *GetOrderRequest) (*model.Order, error) {
	actor, err := auth.RequireActor(ctx)
	if err != nil {
		return nil, err
	}

	o, err := h.uc.GetOrder(ctx, actor, req.ID)
	if err != nil {
		return nil, apperror.ToStatus(err)
	}
	return o, nil
}

func (h *OrderHandler) ListOrders(ctx context.Context, req *ListOrdersRequest) (*ListOrdersResponse, error) {
	actor, err := auth.RequireActor(ctx)
	if err != nil {
		return nil, err
	}

	var branchID *int64
	if req.BranchID != 0 {
		branchID = &req.BranchID
	}

	orders, count, err := h.uc.ListOrders(ctx, &dto.ListOrdersInput{
		Actor:    actor,
		BranchID: branchID,
		Status:   model.OrderStatus(req.Status),
		Search:   req.Search,
		Page:     int(req.Page),
		PageSize: int(req.PageSize),
	})
	if err != nil {
		return nil, apperror.ToStatus(err)
	}
	return &ListOrdersResponse{Orders: orders, Total: int32(count)}, nil
}

func (h *OrderHandler) ChangeOrderStatus(ctx context.Context, req *ChangeOrderStatusRequest) (*model.Order, error) {
	actor, err := auth.RequireActor(ctx)
	if err != nil {
		return nil, err
	}

	o, err := h.uc.ChangeStatus(ctx, &dto.ChangeStatusInput{
		Actor:   actor,
		OrderID: req.OrderID,
		Status:  model.OrderStatus(req.Status),
	})
	if err != nil {
		return nil, apperror.ToStatus(err)
	}
	return o, nil
}
