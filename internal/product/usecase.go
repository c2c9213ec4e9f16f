package product

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

type UseCase interface {
	GetActiveProduct(ctx context.Context, id int64) (*model.Product, error)
}
