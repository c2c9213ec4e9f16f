package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRepo struct {
	products map[int64]model.Product
	calls    int
	checks   int
}

func (r *countingRepo) GetActiveProduct(ctx context.Context, id int64) (*model.Product, error) {
	r.calls++
	p, ok := r.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *countingRepo) IsActive(ctx context.Context, id int64) (bool, error) {
	r.checks++
	p, ok := r.products[id]
	return ok && p.IsActive(), nil
}

type mapCache struct {
	data   map[string][]byte
	failed bool
}

func (c *mapCache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	if c.failed {
		return false, errors.New("redis: connection refused")
	}
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *mapCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.failed {
		return errors.New("redis: connection refused")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func newRepo() *countingRepo {
	return &countingRepo{products: map[int64]model.Product{
		1: {ID: 1, Name: "Kopi", SalePrice: decimal.RequireFromString("12.50"), TaxPercentage: decimal.NewFromInt(11), Status: model.ProductStatusActive},
	}}
}

func TestGetActiveProduct_cachesHits(t *testing.T) {
	repo := newRepo()
	cache := &mapCache{data: map[string][]byte{}}
	uc := NewProductUseCase(repo, cache, time.Minute, logger.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p, err := uc.GetActiveProduct(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.True(t, p.SalePrice.Equal(decimal.RequireFromString("12.5")))
	}
	assert.Equal(t, 1, repo.calls)
	assert.Equal(t, 2, repo.checks)
	assert.Contains(t, cache.data, "product:active:1")
}

func TestGetActiveProduct_cacheHitRechecksActiveStatus(t *testing.T) {
	repo := newRepo()
	cache := &mapCache{data: map[string][]byte{}}
	uc := NewProductUseCase(repo, cache, time.Minute, logger.NewNop())
	ctx := context.Background()

	p, err := uc.GetActiveProduct(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, p)

	inactive := repo.products[1]
	inactive.Status = "inactive"
	repo.products[1] = inactive

	p, err = uc.GetActiveProduct(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, p, "a deactivated product must not be served from the cache")

	delete(repo.products, 1)
	p, err = uc.GetActiveProduct(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, p, "a deleted product must not be served from the cache")
	assert.Equal(t, 1, repo.calls)
}

func TestGetActiveProduct_missesAreNotCached(t *testing.T) {
	repo := newRepo()
	cache := &mapCache{data: map[string][]byte{}}
	uc := NewProductUseCase(repo, cache, time.Minute, logger.NewNop())

	p, err := uc.GetActiveProduct(context.Background(), 2)
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.Empty(t, cache.data)
}

func TestGetActiveProduct_cacheFailureFallsThrough(t *testing.T) {
	repo := newRepo()
	uc := NewProductUseCase(repo, &mapCache{failed: true}, time.Minute, logger.NewNop())

	p, err := uc.GetActiveProduct(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 1, repo.calls)
}

func TestGetActiveProduct_withoutCache(t *testing.T) {
	repo := newRepo()
	uc := NewProductUseCase(repo, nil, 0, logger.NewNop())

	_, err := uc.GetActiveProduct(context.Background(), 1)
	require.NoError(t, err)
	_, err = uc.GetActiveProduct(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}
