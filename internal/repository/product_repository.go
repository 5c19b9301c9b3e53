package repository

import (
	"context"

	"storefront-service/internal/domain"
)

type ProductRepository interface {
	// FindByID returns (nil, nil) when the product does not exist.
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	FindActive(ctx context.Context) ([]domain.Product, error)
	Save(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Deactivate(ctx context.Context, id string) error
}
