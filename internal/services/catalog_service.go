package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront-service/internal/domain"
	"storefront-service/internal/repository"
)

const productCacheTTL = time.Minute

var ErrInvalidProduct = errors.New("invalid product")

// Cache keys are shared with the HTTP layer, which caches order listings,
// and with checkout invalidation.
func ProductCacheKey(id string) string {
	return "product:" + id
}

func OrdersCacheKey(ownerID string) string {
	return "orders:owner:" + ownerID
}

type CatalogService struct {
	repo        repository.ProductRepository
	redisClient *redis.Client
	logger      *zap.Logger
}

func NewCatalogService(repo repository.ProductRepository, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{repo: repo, logger: logger}
}

func (s *CatalogService) SetRedisClient(client *redis.Client) {
	s.redisClient = client
}

// GetProduct reads through the Redis cache. Cached values are display-only;
// the checkout transaction never consults them.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if s.redisClient != nil {
		cached, err := s.redisClient.Get(ctx, ProductCacheKey(id)).Result()
		if err == nil {
			var p domain.Product
			if err := json.Unmarshal([]byte(cached), &p); err == nil {
				return &p, nil
			}
		}
	}

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrProductNotFound
	}

	if s.redisClient != nil {
		if data, err := json.Marshal(p); err == nil {
			s.redisClient.Set(ctx, ProductCacheKey(id), data, productCacheTTL)
		}
	}

	return p, nil
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.FindActive(ctx)
}

func (s *CatalogService) CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	p.ID = uuid.NewString()
	p.IsActive = true
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProduct changes catalog fields only. Stock is deliberately out of
// reach here: the checkout transaction owns that counter.
func (s *CatalogService) UpdateProduct(ctx context.Context, p *domain.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return err
	}
	s.invalidate(ctx, p.ID)
	return nil
}

func (s *CatalogService) DeactivateProduct(ctx context.Context, id string) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context, id string) {
	if s.redisClient == nil {
		return
	}
	if err := s.redisClient.Del(ctx, ProductCacheKey(id)).Err(); err != nil {
		s.logger.Warn("failed to invalidate product cache",
			zap.String("product_id", id), zap.Error(err))
	}
}

func validateProduct(p *domain.Product) error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	}
	if p.StockQuantity < 0 {
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidProduct)
	}
	return nil
}
