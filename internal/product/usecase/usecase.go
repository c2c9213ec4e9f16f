package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/product"
	"go.uber.org/zap"
)

// Cache is the subset of cache.RedisClient the catalog lookup needs.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type productUseCase struct {
	repo   product.Repository
	cache  Cache
	ttl    time.Duration
	logger logger.ZapLogger
}

// NewProductUseCase wraps repo with a cache-aside lookup. A nil cache
// disables caching.
func NewProductUseCase(repo product.Repository, cache Cache, ttl time.Duration, log logger.ZapLogger) product.UseCase {
	return &productUseCase{
		repo:   repo,
		cache:  cache,
		ttl:    ttl,
		logger: log,
	}
}

func cacheKey(id int64) string {
	return fmt.Sprintf("product:active:%d", id)
}

func (uc *productUseCase) GetActiveProduct(ctx context.Context, id int64) (*model.Product, error) {
	if uc.cache != nil {
		var cached model.Product
		hit, err := uc.cache.GetJSON(ctx, cacheKey(id), &cached)
		if err != nil {
			uc.logger.Warn("product cache read failed", zap.Int64("product_id", id), zap.Error(err))
		} else if hit {
			// Cached prices may lag the catalog for one TTL; the active
			// status may not.
			active, err := uc.repo.IsActive(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("check product %d: %w", id, err)
			}
			if !active {
				return nil, nil
			}
			return &cached, nil
		}
	}

	p, err := uc.repo.GetActiveProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}

	// Misses are not cached so a newly activated product is visible at once.
	if p != nil && uc.cache != nil {
		if err := uc.cache.SetJSON(ctx, cacheKey(id), p, uc.ttl); err != nil {
			uc.logger.Warn("product cache write failed", zap.Int64("product_id", id), zap.Error(err))
		}
	}
	return p, nil
}
