package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/fekuna/omnipos-inventory-service/internal/auth"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	invdto "github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/order"
	"github.com/fekuna/omnipos-inventory-service/internal/order/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/metrics"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/uow"
	"github.com/fekuna/omnipos-inventory-service/internal/product"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/fekuna/omnipos-inventory-service/internal/order"

type orderUseCase struct {
	repo      order.Repository
	products  product.UseCase
	inventory inventory.UseCase
	tx        uow.Transactor
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	logger    logger.ZapLogger
}

func NewOrderUseCase(
	repo order.Repository,
	products product.UseCase,
	inv inventory.UseCase,
	tx uow.Transactor,
	m *metrics.Metrics,
	log logger.ZapLogger,
) order.UseCase {
	return &orderUseCase{
		repo:      repo,
		products:  products,
		inventory: inv,
		tx:        tx,
		metrics:   m,
		tracer:    otel.Tracer(tracerName),
		logger:    log,
	}
}

// newOrderNumber derives a unique, time-ordered number from a UUIDv7.
func newOrderNumber() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate order number: %w", err)
	}
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")), nil
}

func (uc *orderUseCase) CreateOrder(ctx context.Context, input *dto.CreateOrderInput) (*model.Order, error) {
	ctx, span := uc.tracer.Start(ctx, "order.create", trace.WithAttributes(
		attribute.Int64("branch.id", input.BranchID),
		attribute.Int("order.lines", len(input.Lines)),
	))
	defer span.End()

	o, err := uc.createOrder(ctx, input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		uc.logger.Warn("order creation rejected",
			zap.Int64("branch_id", input.BranchID),
			zap.Int64("user_id", input.Actor.ID),
			zap.String("kind", apperror.KindOf(err).String()),
			zap.Error(err),
		)
		return nil, err
	}

	uc.logger.Info("order created",
		zap.Int64("order_id", o.ID),
		zap.String("order_number", o.OrderNumber),
		zap.Int64("branch_id", o.BranchID),
		zap.String("grand_total", o.GrandTotal.StringFixed(2)),
	)
	return o, nil
}

func (uc *orderUseCase) createOrder(ctx context.Context, in *dto.CreateOrderInput) (*model.Order, error) {
	if in.BranchID <= 0 {
		return nil, apperror.InvalidArgument("branch_id must be positive")
	}
	if len(in.Lines) == 0 {
		return nil, apperror.InvalidArgument("an order needs at least one line")
	}
	for i, l := range in.Lines {
		if l.ProductID <= 0 {
			return nil, apperror.InvalidArgument("line %d: product_id must be positive", i)
		}
		if l.Quantity <= 0 {
			return nil, apperror.InvalidArgument("line %d: quantity must be a positive integer, got %d", i, l.Quantity)
		}
	}
	if err := in.Actor.RequireBranch(in.BranchID); err != nil {
		return nil, err
	}

	number, err := newOrderNumber()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	o := &model.Order{
		OrderNumber: number,
		BranchID:    in.BranchID,
		UserID:      in.Actor.ID,
		Status:      model.OrderStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
		Lines:       make([]model.OrderLine, 0, len(in.Lines)),
	}

	// Prices are read before the unit of work; the order only ever stores
	// the snapshot taken here.
	for _, l := range in.Lines {
		p, err := uc.products.GetActiveProduct(ctx, l.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, apperror.InvalidProduct(l.ProductID)
		}
		o.Lines = append(o.Lines, model.NewOrderLine(p, l.Quantity))
	}
	o.ComputeTotals()

	err = uc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return uc.repo.Create(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (uc *orderUseCase) GetOrder(ctx context.Context, actor auth.Actor, id int64) (*model.Order, error) {
	if id <= 0 {
		return nil, apperror.InvalidArgument("order id must be positive")
	}

	o, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperror.NotFound("order %d not found", id)
	}
	if err := actor.RequireBranch(o.BranchID); err != nil {
		return nil, err
	}
	return o, nil
}

const defaultPageSize = 10

func (uc *orderUseCase) ListOrders(ctx context.Context, input *dto.ListOrdersInput) ([]model.Order, int, error) {
	if input.Status != "" && !input.Status.Valid() {
		return nil, 0, apperror.InvalidArgument("unknown order status %q", input.Status)
	}

	filters := &dto.OrderFilters{
		BranchID: input.BranchID,
		Status:   input.Status,
		Search:   strings.TrimSpace(input.Search),
		Page:     input.Page,
		PageSize: input.PageSize,
	}
	if !input.Actor.GlobalScope {
		own := input.Actor.BranchID
		filters.BranchID = &own
	}
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = defaultPageSize
	}
	return uc.repo.FindAll(ctx, filters)
}

func (uc *orderUseCase) ChangeStatus(ctx context.Context, input *dto.ChangeStatusInput) (*model.Order, error) {
	start := time.Now()
	ctx, span := uc.tracer.Start(ctx, "order.change_status", trace.WithAttributes(
		attribute.Int64("order.id", input.OrderID),
		attribute.String("order.status", string(input.Status)),
	))
	defer span.End()

	o, err := uc.changeStatus(ctx, input)
	uc.metrics.ObserveTransition(string(input.Status), start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		kind := apperror.KindOf(err)
		fields := []zap.Field{
			zap.Int64("order_id", input.OrderID),
			zap.String("status", string(input.Status)),
			zap.Int64("user_id", input.Actor.ID),
			zap.String("kind", kind.String()),
			zap.Error(err),
		}
		if kind == apperror.KindReservationMismatch || kind == apperror.KindInternal {
			uc.logger.Error("order transition failed", fields...)
		} else {
			uc.logger.Warn("order transition rejected", fields...)
		}
		return nil, err
	}

	uc.logger.Info("order status changed",
		zap.Int64("order_id", o.ID),
		zap.String("status", string(o.Status)),
		zap.Int64("user_id", input.Actor.ID),
	)
	return o, nil
}

func (uc *orderUseCase) changeStatus(ctx context.Context, in *dto.ChangeStatusInput) (*model.Order, error) {
	if in.OrderID <= 0 {
		return nil, apperror.InvalidArgument("order id must be positive")
	}
	if !in.Status.Valid() {
		return nil, apperror.InvalidArgument("unknown order status %q", in.Status)
	}

	var result *model.Order
	err := uc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		// The status is read under the order lock so two concurrent
		// transitions of one order serialize and the loser sees the
		// winner's state.
		o, err := uc.repo.LockByID(ctx, in.OrderID)
		if err != nil {
			return err
		}
		if o == nil {
			return apperror.NotFound("order %d not found", in.OrderID)
		}
		if err := in.Actor.RequireBranch(o.BranchID); err != nil {
			return err
		}
		if !o.Status.CanTransitionTo(in.Status) {
			return apperror.InvalidTransition(string(o.Status), string(in.Status))
		}

		if err := uc.applyStockEffects(ctx, in.Actor, o, in.Status); err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := uc.repo.UpdateStatus(ctx, o.ID, in.Status, now); err != nil {
			return err
		}
		o.Status = in.Status
		o.UpdatedAt = now
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// applyStockEffects runs the per-line ledger operation for the transition
// from o.Status to next. Lines are visited in ascending product order.
func (uc *orderUseCase) applyStockEffects(ctx context.Context, actor auth.Actor, o *model.Order, next model.OrderStatus) error {
	var op func(context.Context, *invdto.StockInput) (*model.Inventory, error)
	switch next {
	case model.OrderStatusConfirmed:
		op = uc.inventory.ReserveStock
	case model.OrderStatusCancelled:
		// A draft has nothing reserved yet.
		if o.Status != model.OrderStatusConfirmed {
			return nil
		}
		op = uc.inventory.ReleaseStock
	case model.OrderStatusCompleted:
		op = uc.inventory.ConsumeReserved
	default:
		return nil
	}

	lines := make([]model.OrderLine, len(o.Lines))
	copy(lines, o.Lines)
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].ProductID < lines[j].ProductID
	})

	orderID := o.ID
	for _, line := range lines {
		_, err := op(ctx, &invdto.StockInput{
			Actor:       actor,
			BranchID:    o.BranchID,
			ProductID:   line.ProductID,
			Quantity:    line.Quantity,
			ReferenceID: &orderID,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
