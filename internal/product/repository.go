package product

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

// Repository is the read-only catalog view. The catalog itself is owned by
// the product service.
type Repository interface {
	// GetActiveProduct returns nil when the product does not exist, is not
	// active, or is soft-deleted.
	GetActiveProduct(ctx context.Context, id int64) (*model.Product, error)
	// IsActive is the same predicate as GetActiveProduct without loading the
	// row.
	IsActive(ctx context.Context, id int64) (bool, error)
}
