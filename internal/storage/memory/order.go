package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/order/dto"
)

type OrderRepository struct {
	s *Store
}

func (s *Store) Orders() *OrderRepository {
	return &OrderRepository{s: s}
}

func cloneOrder(o model.Order) model.Order {
	lines := make([]model.OrderLine, len(o.Lines))
	copy(lines, o.Lines)
	o.Lines = lines
	return o
}

func (r *OrderRepository) Create(ctx context.Context, o *model.Order) error {
	t, ok := txFrom(ctx)
	if !ok {
		return errNoTx
	}

	r.s.mu.RLock()
	for _, existing := range r.s.orders {
		if existing.OrderNumber == o.OrderNumber {
			r.s.mu.RUnlock()
			return fmt.Errorf("order number %s already exists", o.OrderNumber)
		}
	}
	r.s.mu.RUnlock()

	o.ID = r.s.orderSeq.Add(1)
	for i := range o.Lines {
		o.Lines[i].ID = r.s.lineSeq.Add(1)
		o.Lines[i].OrderID = o.ID
	}
	t.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*model.Order, error) {
	if t, ok := txFrom(ctx); ok {
		if o, ok := t.orders[id]; ok {
			c := cloneOrder(o)
			return &c, nil
		}
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, nil
	}
	c := cloneOrder(o)
	return &c, nil
}

func (r *OrderRepository) LockByID(ctx context.Context, id int64) (*model.Order, error) {
	t, ok := txFrom(ctx)
	if !ok {
		return nil, errNoTx
	}
	if err := r.s.acquire(ctx, t, orderLockName(id)); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *OrderRepository) FindAll(ctx context.Context, f *dto.OrderFilters) ([]model.Order, int, error) {
	search := strings.ToUpper(f.Search)

	r.s.mu.RLock()
	matched := []model.Order{}
	for _, o := range r.s.orders {
		if f.BranchID != nil && o.BranchID != *f.BranchID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToUpper(o.OrderNumber), search) {
			continue
		}
		matched = append(matched, cloneOrder(o))
	}
	r.s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		offset := (page - 1) * f.PageSize
		if offset >= total {
			return []model.Order{}, total, nil
		}
		end := offset + f.PageSize
		if end > total {
			end = total
		}
		matched = matched[offset:end]
	}
	return matched, total, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status model.OrderStatus, updatedAt time.Time) error {
	t, ok := txFrom(ctx)
	if !ok || !t.holds[orderLockName(id)] {
		return errNoTx
	}
	o, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if o == nil {
		return fmt.Errorf("order %d not found", id)
	}
	o.Status = status
	o.UpdatedAt = updatedAt
	t.orders[id] = *o
	return nil
}
