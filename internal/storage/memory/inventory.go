package memory

import (
	"context"
	"sort"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

type InventoryRepository struct {
	s *Store
}

func (s *Store) Inventory() *InventoryRepository {
	return &InventoryRepository{s: s}
}

func (r *InventoryRepository) GetByKey(ctx context.Context, branchID, productID int64) (*model.Inventory, error) {
	k := ledgerKey{branchID, productID}
	if t, ok := txFrom(ctx); ok {
		if inv, ok := t.inventories[k]; ok {
			return &inv, nil
		}
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if inv, ok := r.s.inventories[k]; ok {
		return &inv, nil
	}
	return nil, nil
}

func (r *InventoryRepository) FindAll(ctx context.Context, f *dto.InventoryFilters) ([]model.Inventory, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	items := []model.Inventory{}
	for _, inv := range r.s.inventories {
		if f.BranchID != nil && inv.BranchID != *f.BranchID {
			continue
		}
		if f.ProductID != nil && inv.ProductID != *f.ProductID {
			continue
		}
		items = append(items, inv)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].BranchID != items[j].BranchID {
			return items[i].BranchID < items[j].BranchID
		}
		return items[i].ProductID < items[j].ProductID
	})
	return items, nil
}

func (r *InventoryRepository) LockForUpdate(ctx context.Context, branchID, productID int64) (*model.Inventory, error) {
	t, ok := txFrom(ctx)
	if !ok {
		return nil, errNoTx
	}
	k := ledgerKey{branchID, productID}
	if err := r.s.acquire(ctx, t, inventoryLockName(k)); err != nil {
		return nil, err
	}
	return r.GetByKey(ctx, branchID, productID)
}

func (r *InventoryRepository) LockOrCreate(ctx context.Context, branchID, productID int64) (*model.Inventory, error) {
	inv, err := r.LockForUpdate(ctx, branchID, productID)
	if err != nil || inv != nil {
		return inv, err
	}

	// The key lock is held, so no other unit of work can create this row concurrently.
	t, _ := txFrom(ctx)
	now := time.Now().UTC()
	created := model.Inventory{
		ID:        r.s.inventorySeq.Add(1),
		BranchID:  branchID,
		ProductID: productID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	t.inventories[ledgerKey{branchID, productID}] = created
	return &created, nil
}

func (r *InventoryRepository) Save(ctx context.Context, inv *model.Inventory) error {
	t, ok := txFrom(ctx)
	if !ok {
		return errNoTx
	}
	k := ledgerKey{inv.BranchID, inv.ProductID}
	if !t.holds[inventoryLockName(k)] {
		return errNoTx
	}
	t.inventories[k] = *inv
	return nil
}

func (r *InventoryRepository) LogMovement(ctx context.Context, m *model.InventoryMovement) error {
	m.ID = r.s.movementSeq.Add(1)
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	if t, ok := txFrom(ctx); ok {
		t.movements = append(t.movements, *m)
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.movements = append(r.s.movements, *m)
	return nil
}

func (r *InventoryRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := []model.InventoryMovement{}
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		m := r.s.movements[i]
		if f.BranchID != nil && m.BranchID != *f.BranchID {
			continue
		}
		if f.ProductID != nil && m.ProductID != *f.ProductID {
			continue
		}
		if f.MovementType != "" && m.Type != f.MovementType {
			continue
		}
		if f.ReferenceID != nil && (m.ReferenceID == nil || *m.ReferenceID != *f.ReferenceID) {
			continue
		}
		matched = append(matched, m)
	}

	total := len(matched)
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		offset := (page - 1) * f.PageSize
		if offset >= total {
			return []model.InventoryMovement{}, total, nil
		}
		end := offset + f.PageSize
		if end > total {
			end = total
		}
		matched = matched[offset:end]
	}
	return matched, total, nil
}

func (r *InventoryRepository) SumMovements(ctx context.Context, branchID, productID int64) (map[model.MovementType]int64, error) {
	sums := make(map[model.MovementType]int64)

	r.s.mu.RLock()
	for _, m := range r.s.movements {
		if m.BranchID == branchID && m.ProductID == productID {
			sums[m.Type] += m.Quantity
		}
	}
	r.s.mu.RUnlock()

	if t, ok := txFrom(ctx); ok {
		for _, m := range t.movements {
			if m.BranchID == branchID && m.ProductID == productID {
				sums[m.Type] += m.Quantity
			}
		}
	}
	return sums, nil
}
