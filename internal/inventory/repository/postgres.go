package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/postgres"
	"github.com/jmoiron/sqlx"
)

var errNoTx = errors.New("row lock requested outside a transaction")

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const inventoryColumns = `id, branch_id, product_id, quantity, reserved_quantity, created_at, updated_at`

func (r *PGRepository) GetByKey(ctx context.Context, branchID, productID int64) (*model.Inventory, error) {
	var inv model.Inventory
	query := `SELECT ` + inventoryColumns + ` FROM inventories WHERE branch_id = $1 AND product_id = $2`
	err := postgres.Conn(ctx, r.DB).GetContext(ctx, &inv, query, branchID, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.InventoryFilters) ([]model.Inventory, error) {
	conditions := []string{}
	args := []interface{}{}

	if f.BranchID != nil {
		args = append(args, *f.BranchID)
		conditions = append(conditions, fmt.Sprintf("branch_id = $%d", len(args)))
	}
	if f.ProductID != nil {
		args = append(args, *f.ProductID)
		conditions = append(conditions, fmt.Sprintf("product_id = $%d", len(args)))
	}

	query := `SELECT ` + inventoryColumns + ` FROM inventories`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY branch_id, product_id"

	items := []model.Inventory{}
	err := postgres.Conn(ctx, r.DB).SelectContext(ctx, &items, query, args...)
	return items, err
}

func (r *PGRepository) LockForUpdate(ctx context.Context, branchID, productID int64) (*model.Inventory, error) {
	if !postgres.InTransaction(ctx) {
		return nil, errNoTx
	}

	var inv model.Inventory
	query := `SELECT ` + inventoryColumns + ` FROM inventories WHERE branch_id = $1 AND product_id = $2 FOR UPDATE`
	err := postgres.Conn(ctx, r.DB).GetContext(ctx, &inv, query, branchID, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock inventory %d/%d: %w", branchID, productID, err)
	}
	return &inv, nil
}

func (r *PGRepository) LockOrCreate(ctx context.Context, branchID, productID int64) (*model.Inventory, error) {
	if !postgres.InTransaction(ctx) {
		return nil, errNoTx
	}

	// A concurrent creator either wins the insert (we then block on its row
	// lock below) or loses to ours; the unique (branch_id, product_id)
	// constraint makes the row exist exactly once.
	insert := `
        INSERT INTO inventories (branch_id, product_id, quantity, reserved_quantity, created_at, updated_at)
        VALUES ($1, $2, 0, 0, NOW(), NOW())
        ON CONFLICT (branch_id, product_id) DO NOTHING
    `
	if _, err := postgres.Conn(ctx, r.DB).ExecContext(ctx, insert, branchID, productID); err != nil {
		return nil, fmt.Errorf("create inventory %d/%d: %w", branchID, productID, err)
	}

	inv, err := r.LockForUpdate(ctx, branchID, productID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, fmt.Errorf("inventory %d/%d vanished after insert", branchID, productID)
	}
	return inv, nil
}

func (r *PGRepository) Save(ctx context.Context, inv *model.Inventory) error {
	query := `
        UPDATE inventories
        SET quantity = :quantity,
            reserved_quantity = :reserved_quantity,
            updated_at = :updated_at
        WHERE id = :id
    `
	// The CHECK constraints on the table back up model.Inventory.Validate.
	res, err := postgres.Conn(ctx, r.DB).NamedExecContext(ctx, query, inv)
	if err != nil {
		return fmt.Errorf("failed to update inventory: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n != 1 {
		return fmt.Errorf("failed to update inventory %d: %d rows affected", inv.ID, n)
	}
	return nil
}

func (r *PGRepository) LogMovement(ctx context.Context, m *model.InventoryMovement) error {
	query := `
        INSERT INTO stock_movements (
            branch_id, product_id, user_id, type, quantity, reference_id, created_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `
	err := postgres.Conn(ctx, r.DB).QueryRowxContext(ctx, query,
		m.BranchID, m.ProductID, m.UserID, m.Type, m.Quantity, m.ReferenceID, m.CreatedAt,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("failed to log movement: %w", err)
	}
	return nil
}

func (r *PGRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	conditions := []string{}
	args := []interface{}{}

	if f.BranchID != nil {
		args = append(args, *f.BranchID)
		conditions = append(conditions, fmt.Sprintf("branch_id = $%d", len(args)))
	}
	if f.ProductID != nil {
		args = append(args, *f.ProductID)
		conditions = append(conditions, fmt.Sprintf("product_id = $%d", len(args)))
	}
	if f.MovementType != "" {
		args = append(args, f.MovementType)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if f.ReferenceID != nil {
		args = append(args, *f.ReferenceID)
		conditions = append(conditions, fmt.Sprintf("reference_id = $%d", len(args)))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	conn := postgres.Conn(ctx, r.DB)

	var count int
	if err := conn.GetContext(ctx, &count, "SELECT count(*) FROM stock_movements"+whereClause, args...); err != nil {
		return nil, 0, err
	}

	query := "SELECT id, branch_id, product_id, user_id, type, quantity, reference_id, created_at FROM stock_movements" +
		whereClause + " ORDER BY created_at DESC, id DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	items := []model.InventoryMovement{}
	err := conn.SelectContext(ctx, &items, query, args...)
	return items, count, err
}

func (r *PGRepository) SumMovements(ctx context.Context, branchID, productID int64) (map[model.MovementType]int64, error) {
	var rows []struct {
		Type  model.MovementType `db:"type"`
		Total int64              `db:"total"`
	}
	query := `
        SELECT type, COALESCE(SUM(quantity), 0) AS total
        FROM stock_movements
        WHERE branch_id = $1 AND product_id = $2
        GROUP BY type
    `
	if err := postgres.Conn(ctx, r.DB).SelectContext(ctx, &rows, query, branchID, productID); err != nil {
		return nil, err
	}

	sums := make(map[model.MovementType]int64, len(rows))
	for _, row := range rows {
		sums[row.Type] = row.Total
	}
	return sums, nil
}
