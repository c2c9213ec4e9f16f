package order

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/auth"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/order/dto"
)

type UseCase interface {
	CreateOrder(ctx context.Context, input *dto.CreateOrderInput) (*model.Order, error)
	GetOrder(ctx context.Context, actor auth.Actor, id int64) (*model.Order, error)
	ListOrders(ctx context.Context, input *dto.ListOrdersInput) ([]model.Order, int, error)
	ChangeStatus(ctx context.Context, input *dto.ChangeStatusInput) (*model.Order, error)
}
