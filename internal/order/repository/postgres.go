package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/order/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/postgres"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const orderColumns = `id, order_number, branch_id, user_id, subtotal, tax_total, grand_total, status, created_at, updated_at`

func (r *PGRepository) Create(ctx context.Context, o *model.Order) error {
	if !postgres.InTransaction(ctx) {
		return errors.New("order create requires a transaction")
	}
	conn := postgres.Conn(ctx, r.DB)

	query := `
        INSERT INTO orders (
            order_number, branch_id, user_id, subtotal, tax_total, grand_total, status, created_at, updated_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id
    `
	err := conn.QueryRowxContext(ctx, query,
		o.OrderNumber, o.BranchID, o.UserID, o.Subtotal, o.TaxTotal, o.GrandTotal, o.Status, o.CreatedAt, o.UpdatedAt,
	).Scan(&o.ID)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("order number %s already taken: %w", o.OrderNumber, err)
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}

	lineQuery := `
        INSERT INTO order_items (order_id, product_id, quantity, unit_price, tax_amount, line_total)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `
	for i := range o.Lines {
		line := &o.Lines[i]
		line.OrderID = o.ID
		err := conn.QueryRowxContext(ctx, lineQuery,
			line.OrderID, line.ProductID, line.Quantity, line.UnitPrice, line.TaxAmount, line.LineTotal,
		).Scan(&line.ID)
		if err != nil {
			return fmt.Errorf("failed to insert order item for product %d: %w", line.ProductID, err)
		}
	}
	return nil
}

func (r *PGRepository) FindByID(ctx context.Context, id int64) (*model.Order, error) {
	return r.find(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *PGRepository) LockByID(ctx context.Context, id int64) (*model.Order, error) {
	if !postgres.InTransaction(ctx) {
		return nil, errors.New("order lock requires a transaction")
	}
	return r.find(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *PGRepository) find(ctx context.Context, query string, id int64) (*model.Order, error) {
	conn := postgres.Conn(ctx, r.DB)

	var o model.Order
	if err := conn.GetContext(ctx, &o, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	lines := []model.OrderLine{}
	err := conn.SelectContext(ctx, &lines, `
        SELECT id, order_id, product_id, quantity, unit_price, tax_amount, line_total
        FROM order_items
        WHERE order_id = $1
        ORDER BY id
    `, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load items of order %d: %w", id, err)
	}
	o.Lines = lines
	return &o, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.OrderFilters) ([]model.Order, int, error) {
	conditions := []string{}
	args := []interface{}{}

	if f.BranchID != nil {
		args = append(args, *f.BranchID)
		conditions = append(conditions, fmt.Sprintf("branch_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		conditions = append(conditions, fmt.Sprintf("order_number ILIKE $%d", len(args)))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	conn := postgres.Conn(ctx, r.DB)

	var count int
	if err := conn.GetContext(ctx, &count, "SELECT count(*) FROM orders"+whereClause, args...); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + orderColumns + ` FROM orders` + whereClause + ` ORDER BY created_at DESC, id DESC`
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	orders := []model.Order{}
	if err := conn.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, 0, err
	}
	if len(orders) == 0 {
		return orders, count, nil
	}

	ids := make([]int64, len(orders))
	byID := make(map[int64]*model.Order, len(orders))
	for i := range orders {
		orders[i].Lines = []model.OrderLine{}
		ids[i] = orders[i].ID
		byID[orders[i].ID] = &orders[i]
	}

	lineQuery, lineArgs, err := sqlx.In(`
        SELECT id, order_id, product_id, quantity, unit_price, tax_amount, line_total
        FROM order_items
        WHERE order_id IN (?)
        ORDER BY order_id, id
    `, ids)
	if err != nil {
		return nil, 0, err
	}
	lines := []model.OrderLine{}
	if err := conn.SelectContext(ctx, &lines, conn.Rebind(lineQuery), lineArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to load order items: %w", err)
	}
	for _, line := range lines {
		if o, ok := byID[line.OrderID]; ok {
			o.Lines = append(o.Lines, line)
		}
	}
	return orders, count, nil
}

func (r *PGRepository) UpdateStatus(ctx context.Context, id int64, status model.OrderStatus, updatedAt time.Time) error {
	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`
	res, err := postgres.Conn(ctx, r.DB).ExecContext(ctx, query, status, updatedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n != 1 {
		return fmt.Errorf("failed to update order %d: %d rows affected", id, n)
	}
	return nil
}
