package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/postgres"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) GetActiveProduct(ctx context.Context, id int64) (*model.Product, error) {
	var p model.Product
	query := `
        SELECT id, name, sku, sale_price, tax_percentage, status, deleted_at
        FROM products
        WHERE id = $1 AND status = $2 AND deleted_at IS NULL
        LIMIT 1
    `
	err := postgres.Conn(ctx, r.DB).GetContext(ctx, &p, query, id, model.ProductStatusActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) IsActive(ctx context.Context, id int64) (bool, error) {
	var active bool
	query := `
        SELECT EXISTS (
            SELECT 1 FROM products
            WHERE id = $1 AND status = $2 AND deleted_at IS NULL
        )
    `
	err := postgres.Conn(ctx, r.DB).GetContext(ctx, &active, query, id, model.ProductStatusActive)
	return active, err
}
