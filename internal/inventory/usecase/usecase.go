package usecase

import (
	"context"
	"math"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/fekuna/omnipos-inventory-service/internal/auth"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/metrics"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/uow"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/fekuna/omnipos-inventory-service/internal/inventory"

type inventoryUseCase struct {
	repo    inventory.Repository
	tx      uow.Transactor
	metrics *metrics.Metrics
	tracer  trace.Tracer
	logger  logger.ZapLogger
}

func NewInventoryUseCase(repo inventory.Repository, tx uow.Transactor, m *metrics.Metrics, log logger.ZapLogger) inventory.UseCase {
	return &inventoryUseCase{
		repo:    repo,
		tx:      tx,
		metrics: m,
		tracer:  otel.Tracer(tracerName),
		logger:  log,
	}
}

func (uc *inventoryUseCase) GetStock(ctx context.Context, branchID, productID int64) (*model.Inventory, error) {
	if branchID <= 0 || productID <= 0 {
		return nil, apperror.InvalidArgument("branch_id and product_id must be positive")
	}
	return uc.repo.GetByKey(ctx, branchID, productID)
}

func (uc *inventoryUseCase) ListInventory(ctx context.Context, actor auth.Actor, branchID *int64) ([]model.Inventory, error) {
	filters := &dto.InventoryFilters{BranchID: branchID}
	if !actor.GlobalScope {
		own := actor.BranchID
		filters.BranchID = &own
	}
	return uc.repo.FindAll(ctx, filters)
}

// stockOp describes one single-row ledger operation.
type stockOp struct {
	name     string
	movement model.MovementType
	// createIfAbsent lazily creates the row with zero quantities.
	createIfAbsent bool
	// missing builds the error for an absent row when createIfAbsent is false.
	missing func(in *dto.StockInput) error
	// apply checks the operation against the locked row and mutates it.
	apply func(inv *model.Inventory, in *dto.StockInput) error
}

var (
	addOp = stockOp{
		name:           "add",
		movement:       model.MovementIn,
		createIfAbsent: true,
		apply: func(inv *model.Inventory, in *dto.StockInput) error {
			if err := checkHeadroom(inv, in.Quantity); err != nil {
				return err
			}
			inv.Quantity += in.Quantity
			return nil
		},
	}

	removeOp = stockOp{
		name:     "remove",
		movement: model.MovementOut,
		missing:  noStock,
		apply: func(inv *model.Inventory, in *dto.StockInput) error {
			if inv.Available() < in.Quantity {
				return apperror.InsufficientStock(inv.BranchID, inv.ProductID, in.Quantity, inv.Available())
			}
			inv.Quantity -= in.Quantity
			return nil
		},
	}

	reserveOp = stockOp{
		name:     "reserve",
		movement: model.MovementReserve,
		missing:  noStock,
		apply: func(inv *model.Inventory, in *dto.StockInput) error {
			if inv.Available() < in.Quantity {
				return apperror.InsufficientStock(inv.BranchID, inv.ProductID, in.Quantity, inv.Available())
			}
			inv.ReservedQuantity += in.Quantity
			return nil
		},
	}

	releaseOp = stockOp{
		name:     "release",
		movement: model.MovementRelease,
		missing: func(in *dto.StockInput) error {
			return apperror.InsufficientReservation(in.BranchID, in.ProductID, in.Quantity, 0)
		},
		apply: func(inv *model.Inventory, in *dto.StockInput) error {
			if inv.ReservedQuantity < in.Quantity {
				return apperror.InsufficientReservation(inv.BranchID, inv.ProductID, in.Quantity, inv.ReservedQuantity)
			}
			inv.ReservedQuantity -= in.Quantity
			return nil
		},
	}

	consumeOp = stockOp{
		name:     "consume",
		movement: model.MovementOut,
		missing: func(in *dto.StockInput) error {
			return apperror.ReservationMismatch(refOrZero(in.ReferenceID), in.BranchID, in.ProductID, in.Quantity, 0)
		},
		apply: func(inv *model.Inventory, in *dto.StockInput) error {
			if inv.ReservedQuantity < in.Quantity {
				return apperror.ReservationMismatch(refOrZero(in.ReferenceID), inv.BranchID, inv.ProductID, in.Quantity, inv.ReservedQuantity)
			}
			inv.Quantity -= in.Quantity
			inv.ReservedQuantity -= in.Quantity
			return nil
		},
	}
)

// checkHeadroom rejects an increase that would overflow the on-hand quantity.
func checkHeadroom(inv *model.Inventory, quantity int64) error {
	if inv.Quantity > math.MaxInt64-quantity {
		return apperror.InvalidArgument("adding %d to product %d in branch %d exceeds the maximum quantity", quantity, inv.ProductID, inv.BranchID)
	}
	return nil
}

func noStock(in *dto.StockInput) error {
	return apperror.InsufficientStock(in.BranchID, in.ProductID, in.Quantity, 0)
}

func refOrZero(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}

func (uc *inventoryUseCase) AddStock(ctx context.Context, input *dto.StockInput) (*model.Inventory, error) {
	return uc.run(ctx, addOp, input)
}

func (uc *inventoryUseCase) RemoveStock(ctx context.Context, input *dto.StockInput) (*model.Inventory, error) {
	return uc.run(ctx, removeOp, input)
}

func (uc *inventoryUseCase) ReserveStock(ctx context.Context, input *dto.StockInput) (*model.Inventory, error) {
	return uc.run(ctx, reserveOp, input)
}

func (uc *inventoryUseCase) ReleaseStock(ctx context.Context, input *dto.StockInput) (*model.Inventory, error) {
	return uc.run(ctx, releaseOp, input)
}

func (uc *inventoryUseCase) ConsumeReserved(ctx context.Context, input *dto.StockInput) (*model.Inventory, error) {
	return uc.run(ctx, consumeOp, input)
}

func (uc *inventoryUseCase) run(ctx context.Context, op stockOp, in *dto.StockInput) (*model.Inventory, error) {
	start := time.Now()
	ctx, span := uc.tracer.Start(ctx, "inventory."+op.name, trace.WithAttributes(
		attribute.Int64("branch.id", in.BranchID),
		attribute.Int64("product.id", in.ProductID),
		attribute.Int64("inventory.quantity", in.Quantity),
	))
	defer span.End()

	inv, err := uc.execute(ctx, op, in)
	uc.metrics.ObserveStockOperation(op.name, start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		uc.logFailure(op.name, in.BranchID, in.ProductID, in.Quantity, err)
		return nil, err
	}

	uc.logger.Info("stock "+op.name,
		zap.Int64("branch_id", inv.BranchID),
		zap.Int64("product_id", inv.ProductID),
		zap.Int64("quantity", in.Quantity),
		zap.Int64("on_hand", inv.Quantity),
		zap.Int64("reserved", inv.ReservedQuantity),
		zap.Int64("user_id", in.Actor.ID),
	)
	return inv, nil
}

func (uc *inventoryUseCase) execute(ctx context.Context, op stockOp, in *dto.StockInput) (*model.Inventory, error) {
	if err := validateKey(in.BranchID, in.ProductID, in.Quantity); err != nil {
		return nil, err
	}
	if err := in.Actor.RequireBranch(in.BranchID); err != nil {
		return nil, err
	}

	var result *model.Inventory
	err := uc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var (
			inv *model.Inventory
			err error
		)
		if op.createIfAbsent {
			inv, err = uc.repo.LockOrCreate(ctx, in.BranchID, in.ProductID)
		} else {
			inv, err = uc.repo.LockForUpdate(ctx, in.BranchID, in.ProductID)
		}
		if err != nil {
			return err
		}
		if inv == nil {
			return op.missing(in)
		}

		if err := op.apply(inv, in); err != nil {
			return err
		}
		if err := uc.persist(ctx, inv, in.Actor.ID, op.movement, in.Quantity, in.ReferenceID); err != nil {
			return err
		}
		result = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// persist re-checks the ledger invariant, writes the row and appends the
// movement. Callers hold the row lock.
func (uc *inventoryUseCase) persist(ctx context.Context, inv *model.Inventory, userID int64, movement model.MovementType, quantity int64, referenceID *int64) error {
	if err := inv.Validate(); err != nil {
		return err
	}
	inv.UpdatedAt = time.Now().UTC()
	if err := uc.repo.Save(ctx, inv); err != nil {
		return err
	}
	return uc.repo.LogMovement(ctx, &model.InventoryMovement{
		BranchID:    inv.BranchID,
		ProductID:   inv.ProductID,
		UserID:      userID,
		Type:        movement,
		Quantity:    quantity,
		ReferenceID: referenceID,
		CreatedAt:   inv.UpdatedAt,
	})
}

func (uc *inventoryUseCase) TransferStock(ctx context.Context, input *dto.TransferInput) (*dto.TransferResult, error) {
	start := time.Now()
	ctx, span := uc.tracer.Start(ctx, "inventory.transfer", trace.WithAttributes(
		attribute.Int64("branch.from", input.FromBranchID),
		attribute.Int64("branch.to", input.ToBranchID),
		attribute.Int64("product.id", input.ProductID),
		attribute.Int64("inventory.quantity", input.Quantity),
	))
	defer span.End()

	result, err := uc.transfer(ctx, input)
	uc.metrics.ObserveStockOperation("transfer", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		uc.logFailure("transfer", input.FromBranchID, input.ProductID, input.Quantity, err)
		return nil, err
	}

	uc.logger.Info("stock transfer",
		zap.Int64("from_branch_id", input.FromBranchID),
		zap.Int64("to_branch_id", input.ToBranchID),
		zap.Int64("product_id", input.ProductID),
		zap.Int64("quantity", input.Quantity),
		zap.Int64("user_id", input.Actor.ID),
	)
	return result, nil
}

func (uc *inventoryUseCase) transfer(ctx context.Context, in *dto.TransferInput) (*dto.TransferResult, error) {
	if err := validateKey(in.FromBranchID, in.ProductID, in.Quantity); err != nil {
		return nil, err
	}
	if in.ToBranchID <= 0 {
		return nil, apperror.InvalidArgument("to_branch_id must be positive")
	}
	if in.FromBranchID == in.ToBranchID {
		return nil, apperror.InvalidArgument("source and destination branch must differ")
	}
	if !in.Actor.GlobalScope {
		if in.FromBranchID != in.Actor.BranchID {
			return nil, apperror.Forbidden("user %d is not authorized to transfer from branch %d", in.Actor.ID, in.FromBranchID)
		}
		if in.ToBranchID != in.Actor.BranchID {
			return nil, apperror.Forbidden("user %d cannot transfer stock to branch %d", in.Actor.ID, in.ToBranchID)
		}
	}

	err := uc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		source, dest, err := uc.lockTransferPair(ctx, in)
		if err != nil {
			return err
		}
		if source == nil {
			return apperror.InsufficientStock(in.FromBranchID, in.ProductID, in.Quantity, 0)
		}
		if source.Available() < in.Quantity {
			return apperror.InsufficientStock(source.BranchID, source.ProductID, in.Quantity, source.Available())
		}

		if err := checkHeadroom(dest, in.Quantity); err != nil {
			return err
		}

		source.Quantity -= in.Quantity
		dest.Quantity += in.Quantity

		if err := uc.persist(ctx, source, in.Actor.ID, model.MovementOutTransfer, in.Quantity, nil); err != nil {
			return err
		}
		return uc.persist(ctx, dest, in.Actor.ID, model.MovementInTransfer, in.Quantity, nil)
	})
	if err != nil {
		return nil, err
	}

	return &dto.TransferResult{
		FromBranchID: in.FromBranchID,
		ToBranchID:   in.ToBranchID,
		ProductID:    in.ProductID,
		Quantity:     in.Quantity,
	}, nil
}

// lockTransferPair locks source and destination in ascending branch order so
// opposite transfers between the same branches cannot deadlock. The
// destination row is created when absent; a nil source means no row.
func (uc *inventoryUseCase) lockTransferPair(ctx context.Context, in *dto.TransferInput) (source, dest *model.Inventory, err error) {
	lockSource := func() error {
		source, err = uc.repo.LockForUpdate(ctx, in.FromBranchID, in.ProductID)
		return err
	}
	lockDest := func() error {
		dest, err = uc.repo.LockOrCreate(ctx, in.ToBranchID, in.ProductID)
		return err
	}

	first, second := lockSource, lockDest
	if in.ToBranchID < in.FromBranchID {
		first, second = lockDest, lockSource
	}
	if err := first(); err != nil {
		return nil, nil, err
	}
	if err := second(); err != nil {
		return nil, nil, err
	}
	return source, dest, nil
}

func (uc *inventoryUseCase) ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	if filters.MovementType != "" && !filters.MovementType.Valid() {
		return nil, 0, apperror.InvalidArgument("unknown movement type %q", filters.MovementType)
	}
	if filters.Page < 1 {
		filters.Page = 1
	}
	return uc.repo.ListMovements(ctx, filters)
}

func (uc *inventoryUseCase) Reconcile(ctx context.Context, branchID, productID int64) (*dto.Reconciliation, error) {
	if branchID <= 0 || productID <= 0 {
		return nil, apperror.InvalidArgument("branch_id and product_id must be positive")
	}

	report := &dto.Reconciliation{BranchID: branchID, ProductID: productID}
	// Read both sides under the row lock so a concurrent writer cannot land
	// between the ledger read and the movement sum.
	err := uc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		inv, err := uc.repo.LockForUpdate(ctx, branchID, productID)
		if err != nil {
			return err
		}
		if inv != nil {
			report.LedgerQuantity = inv.Quantity
		}

		sums, err := uc.repo.SumMovements(ctx, branchID, productID)
		if err != nil {
			return err
		}
		for movementType, qty := range sums {
			report.MovementQuantity += movementType.QuantitySign() * qty
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	report.Consistent = report.LedgerQuantity == report.MovementQuantity
	if !report.Consistent {
		uc.logger.Error("ledger does not reconcile with movements",
			zap.Int64("branch_id", branchID),
			zap.Int64("product_id", productID),
			zap.Int64("ledger_quantity", report.LedgerQuantity),
			zap.Int64("movement_quantity", report.MovementQuantity),
		)
	}
	return report, nil
}

func validateKey(branchID, productID, quantity int64) error {
	if branchID <= 0 {
		return apperror.InvalidArgument("branch_id must be positive")
	}
	if productID <= 0 {
		return apperror.InvalidArgument("product_id must be positive")
	}
	if quantity <= 0 {
		return apperror.InvalidArgument("quantity must be a positive integer, got %d", quantity)
	}
	return nil
}

func (uc *inventoryUseCase) logFailure(op string, branchID, productID, quantity int64, err error) {
	kind := apperror.KindOf(err)
	fields := []zap.Field{
		zap.String("operation", op),
		zap.Int64("branch_id", branchID),
		zap.Int64("product_id", productID),
		zap.Int64("quantity", quantity),
		zap.String("kind", kind.String()),
		zap.Error(err),
	}
	switch kind {
	case apperror.KindInternal, apperror.KindReservationMismatch:
		uc.logger.Error("stock operation failed", fields...)
	default:
		uc.logger.Warn("stock operation rejected", fields...)
	}
}
