package repository

import (
	"context"

	"storefront-service/internal/domain"
)

type CartRepository interface {
	FindByOwner(ctx context.Context, ownerID string) ([]domain.CartItem, error)
	// FindItem returns (nil, nil) when the owner has no line for the product.
	FindItem(ctx context.Context, ownerID, productID string) (*domain.CartItem, error)
	// Upsert adds quantity to an existing line or creates a new one.
	Upsert(ctx context.Context, ownerID, productID string, quantity int64) error
	SetQuantity(ctx context.Context, ownerID, productID string, quantity int64) error
	Remove(ctx context.Context, ownerID, productID string) error
	Clear(ctx context.Context, ownerID string) error
}
