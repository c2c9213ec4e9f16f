package order

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/order/dto"
)

type Repository interface {
	// Create persists the header and its lines, filling in generated ids.
	Create(ctx context.Context, order *model.Order) error
	// FindByID returns nil when the order does not exist.
	FindByID(ctx context.Context, id int64) (*model.Order, error)
	// LockByID is FindByID holding the order row lock until the unit of
	// work ends.
	LockByID(ctx context.Context, id int64) (*model.Order, error)
	// FindAll returns one page of orders with their lines, newest first,
	// and the total number of matches.
	FindAll(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error)
	UpdateStatus(ctx context.Context, id int64, status model.OrderStatus, updatedAt time.Time) error
}
