package handler

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/fekuna/omnipos-inventory-service/internal/auth"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/logger"
)

type InventoryHandler struct {
	uc     inventory.UseCase
	logger logger.ZapLogger
}

func NewInventoryHandler(uc inventory.UseCase, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{
		uc:     uc,
		logger: log,
	}
}

type stockCall func(ctx context.Context, input *dto.StockInput) (*model.Inventory, error)

func (h *InventoryHandler) stock(ctx context.Context, req *StockRequest, call stockCall) (*InventoryEntry, error) {
	actor, err := auth.RequireActor(ctx)
	if err != nil {
		return nil, err
	}

	inv, err := call(ctx, &dto.StockInput{
		Actor:       actor,
		BranchID:    req.BranchID,
		ProductID:   req.ProductID,
		Quantity:    req.Quantity,
		ReferenceID: req.ReferenceID,
	})
	if err != nil {
		return nil, apperror.ToStatus(err)
	}
	return mapInventory(inv), nil
}

func (h *InventoryHandler) AddStock(ctx context.Context, req *StockRequest) (*InventoryEntry, error) {
	return h.stock(ctx, req, h.uc.AddStock)
}

func (h *InventoryHandler) RemoveStock(ctx context.Context, req *StockRequest) (*InventoryEntry, error) {
	return h.stock(ctx, req, h.uc.RemoveStock)
}

func (h *InventoryHandler) ReserveStock(ctx context.Context, req *StockRequest) (*InventoryEntry, error) {
	return h.stock(ctx, req, h.uc.ReserveStock)
}

func (h *InventoryHandler) ReleaseStock(ctx context.Context, req *StockRequest) (*InventoryEntry, error) {
	return h.stock(ctx, req, h.uc.ReleaseStock)
}

func (h *InventoryHandler) TransferStock(ctx context.Context, req *TransferRequest) (*dto.TransferResult, error) {
	actor, err := auth.RequireActor(ctx)
	if err != nil {
		return nil, err
	}

	result, err := h.uc.TransferStock(ctx, &dto.TransferInput{
		Actor:        actor,
		FromBranchID: req.FromBranchID,
		ToBranchID:   req.ToBranchID,
		ProductID:    req.ProductID,
		Quantity:     req.Quantity,
	})
	if err != nil {
		return nil, apperror.ToStatus(err)
	}
	return result, nil
}

func (h *InventoryHandler) GetStock(ctx context.Context, req *StockKeyRequest) (*InventoryEntry, error) {
	actor, err := auth.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	if err := actor.RequireBranch(req.BranchID); err != nil {
		return nil, apperror.ToStatus(err)
	}

	inv, err := h.uc.GetStock(ctx, req.BranchID, req.ProductID)
	if err != nil {
		return nil, apperror.ToStatus(err)
	}
	if inv == nil {
		return nil, apperror.ToStatus(apperror.NotFound("no stock entry for product %d in branch %d", req.ProductID, req.BranchID))
	}
	return mapInventory(inv), nil
}

func (h *InventoryHandler) ListInventory(ctx context.Context, req *ListInventoryRequest) (*ListInventoryResponse, error) {
	actor, err := auth.RequireActor(ctx)
	if err != nil {
		return nil, err
	}

	items, err := h.uc.ListInventory(ctx, actor, optional(req.BranchID))
	if err != nil {
		return nil, apperror.ToStatus(err)
	}

	entries := make([]*InventoryEntry, len(items))
	for i := range items {
		entries[i] = mapInventory(&items[i])
	}
	return &ListInventoryResponse{Items: entries}, nil
}

func (h *InventoryHandler) ListMovements(ctx context.Context, req *ListMovementsRequest) (*ListMovementsResponse, error) {
	actor, err := auth.RequireActor(ctx)
	if err != nil {
		return nil, err
	}

	filters := &dto.MovementFilters{
		BranchID:     optional(req.BranchID),
		ProductID:    optional(req.ProductID),
		MovementType: model.MovementType(req.MovementType),
		ReferenceID:  optional(req.ReferenceID),
		Page:         int(req.Page),
		PageSize:     int(req.PageSize),
	}
	// Branch users only ever see their own branch's history.
	if !actor.GlobalScope {
		own := actor.BranchID
		filters.BranchID = &own
	}

	mvs, count, err := h.uc.ListMovements(ctx, filters)
	if err != nil {
		return nil, apperror.ToStatus(err)
	}
	return &ListMovementsResponse{Movements: mvs, Total: int32(count)}, nil
}

func (h *InventoryHandler) ReconcileStock(ctx context.Context, req *StockKeyRequest) (*dto.Reconciliation, error) {
	actor, err := auth.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	if err := actor.RequireBranch(req.BranchID); err != nil {
		return nil, apperror.ToStatus(err)
	}

	report, err := h.uc.Reconcile(ctx, req.BranchID, req.ProductID)
	if err != nil {
		return nil, apperror.ToStatus(err)
	}
	return report, nil
}
