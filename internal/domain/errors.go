package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidAddress  = errors.New("shipping address is required")
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")

	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")

	ErrInvalidStatusTransition = errors.New("invalid order status transition")

	// ErrTransactionConflict means nothing was committed; the whole
	// checkout may be retried from scratch.
	ErrTransactionConflict = errors.New("checkout conflicted with a concurrent transaction")

	// ErrPersistenceFailure wraps storage engine errors that are neither
	// validation failures nor retriable conflicts.
	ErrPersistenceFailure = errors.New("order could not be persisted")
)

// InsufficientStockError names the first offending product. The entire
// checkout was rolled back; Available is the stock observed under lock.
type InsufficientStockError struct {
	ProductID string
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// ProductUnavailableError covers products deactivated or deleted after they
// were added to the cart.
type ProductUnavailableError struct {
	ProductID string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %s is no longer available", e.ProductID)
}
