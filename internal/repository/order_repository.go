package repository

import (
	"context"

	"storefront-service/internal/domain"
)

type OrderRepository interface {
	// FindByID returns (nil, nil) when the order does not exist. Items are
	// always loaded.
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	FindByOwner(ctx context.Context, ownerID string) ([]domain.Order, error)
	FindAll(ctx context.Context) ([]domain.Order, error)
	// UpdateStatus applies the transition only if the order is still in
	// from; it returns domain.ErrTransactionConflict otherwise.
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) error
}
