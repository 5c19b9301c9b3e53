package repository

import (
	"context"

	"storefront-service/internal/domain"
)

// CheckoutItem is one (product, quantity) pair of a checkout request.
// Callers must have merged duplicates; quantities are positive.
type CheckoutItem struct {
	ProductID string
	Quantity  int64
}

// CheckoutStore runs the whole order placement as one atomic unit: stock
// validation, order + order item insertion, stock decrement and cart line
// deletion either all commit or none do.
//
// The returned bool is false when idempotencyKey matched an order placed by
// an earlier attempt; that order is returned with no new side effects.
// Failure leaves stock and the owner's cart untouched.
type CheckoutStore interface {
	PlaceOrder(ctx context.Context, ownerID, shippingAddress string, items []CheckoutItem, idempotencyKey string) (*domain.Order, bool, error)
}
