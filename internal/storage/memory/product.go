package memory

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

type ProductRepository struct {
	s *Store
}

func (s *Store) Products() *ProductRepository {
	return &ProductRepository{s: s}
}

// Put adds or replaces a catalog entry.
func (r *ProductRepository) Put(p model.Product) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.products[p.ID] = p
}

func (r *ProductRepository) GetActiveProduct(ctx context.Context, id int64) (*model.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.products[id]
	if !ok || !p.IsActive() {
		return nil, nil
	}
	return &p, nil
}

func (r *ProductRepository) IsActive(ctx context.Context, id int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.products[id]
	return ok && p.IsActive(), nil
}
