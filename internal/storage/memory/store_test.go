package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithinTransaction_rollbackDiscardsStagedWrites(t *testing.T) {
	store := NewStore(time.Second)
	repo := store.Inventory()
	ctx := context.Background()

	err := store.WithinTransaction(ctx, func(ctx context.Context) error {
		inv, err := repo.LockOrCreate(ctx, 1, 9)
		require.NoError(t, err)
		inv.Quantity = 10
		require.NoError(t, repo.Save(ctx, inv))
		require.NoError(t, repo.LogMovement(ctx, &model.InventoryMovement{BranchID: 1, ProductID: 9, Type: model.MovementIn, Quantity: 10}))
		return errors.New("abort")
	})
	require.Error(t, err)

	inv, err := repo.GetByKey(ctx, 1, 9)
	require.NoError(t, err)
	assert.Nil(t, inv)

	movements, total, err := repo.ListMovements(ctx, &dto.MovementFilters{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, movements)
}

func TestWithinTransaction_commitPublishesWrites(t *testing.T) {
	store := NewStore(time.Second)
	repo := store.Inventory()
	ctx := context.Background()

	require.NoError(t, store.WithinTransaction(ctx, func(ctx context.Context) error {
		inv, err := repo.LockOrCreate(ctx, 1, 9)
		if err != nil {
			return err
		}
		inv.Quantity = 4
		return repo.Save(ctx, inv)
	}))

	inv, err := repo.GetByKey(ctx, 1, 9)
	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.Equal(t, int64(4), inv.Quantity)
}

func TestLockForUpdate_outsideTransactionFails(t *testing.T) {
	store := NewStore(time.Second)

	_, err := store.Inventory().LockForUpdate(context.Background(), 1, 1)
	assert.ErrorIs(t, err, errNoTx)
}

func TestLockForUpdate_waitExpiresAsConcurrencyTimeout(t *testing.T) {
	store := NewStore(50 * time.Millisecond)
	repo := store.Inventory()
	ctx := context.Background()

	locked := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = store.WithinTransaction(ctx, func(ctx context.Context) error {
			_, err := repo.LockOrCreate(ctx, 1, 1)
			close(locked)
			<-done
			return err
		})
	}()
	<-locked

	err := store.WithinTransaction(ctx, func(ctx context.Context) error {
		_, err := repo.LockForUpdate(ctx, 1, 1)
		return err
	})
	close(done)

	assert.True(t, apperror.Is(err, apperror.KindConcurrencyTimeout))
}

func TestLock_reentrantWithinTransaction(t *testing.T) {
	store := NewStore(50 * time.Millisecond)
	repo := store.Inventory()

	err := store.WithinTransaction(context.Background(), func(ctx context.Context) error {
		if _, err := repo.LockOrCreate(ctx, 1, 1); err != nil {
			return err
		}
		_, err := repo.LockForUpdate(ctx, 1, 1)
		return err
	})
	assert.NoError(t, err)
}

func TestOrders_updateStatusRequiresLock(t *testing.T) {
	store := NewStore(time.Second)
	orders := store.Orders()
	ctx := context.Background()

	order := &model.Order{OrderNumber: "ORD-1", BranchID: 1, Status: model.OrderStatusDraft, Lines: []model.OrderLine{{ProductID: 1, Quantity: 1}}}
	require.NoError(t, store.WithinTransaction(ctx, func(ctx context.Context) error {
		return orders.Create(ctx, order)
	}))
	assert.NotZero(t, order.ID)
	assert.Equal(t, order.ID, order.Lines[0].OrderID)

	err := store.WithinTransaction(ctx, func(ctx context.Context) error {
		return orders.UpdateStatus(ctx, order.ID, model.OrderStatusConfirmed, time.Now())
	})
	assert.ErrorIs(t, err, errNoTx)

	require.NoError(t, store.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := orders.LockByID(ctx, order.ID); err != nil {
			return err
		}
		return orders.UpdateStatus(ctx, order.ID, model.OrderStatusConfirmed, time.Now())
	}))

	got, err := orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, got.Status)
}

func TestProducts_inactiveOrDeletedAreHidden(t *testing.T) {
	store := NewStore(time.Second)
	products := store.Products()
	deleted := time.Now()

	products.Put(model.Product{ID: 1, Status: model.ProductStatusActive})
	products.Put(model.Product{ID: 2, Status: "inactive"})
	products.Put(model.Product{ID: 3, Status: model.ProductStatusActive, DeletedAt: &deleted})

	ctx := context.Background()
	p, err := products.GetActiveProduct(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, p)

	for _, id := range []int64{2, 3, 4} {
		p, err := products.GetActiveProduct(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, p, "product %d", id)
	}
}
