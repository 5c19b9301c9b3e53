package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"storefront-service/internal/domain"
	"storefront-service/internal/repository"
)

type CartService struct {
	products repository.ProductRepository
	cart     repository.CartRepository
	logger   *zap.Logger
}

func NewCartService(products repository.ProductRepository, cart repository.CartRepository, logger *zap.Logger) *CartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartService{
		products: products,
		cart:     cart,
		logger:   logger,
	}
}

// Snapshot joins the owner's cart lines with current catalog data for
// display. The values here are advisory; the checkout transaction re-reads
// stock and price under lock. Lines whose product has been deactivated or
// deleted are kept with Unavailable set and excluded from the total.
func (s *CartService) Snapshot(ctx context.Context, ownerID string) (*domain.CartSnapshot, error) {
	items, err := s.cart.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	snapshot := &domain.CartSnapshot{OwnerID: ownerID, Lines: make([]domain.CartLine, 0, len(items))}
	for _, item := range items {
		line := domain.CartLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
		p, err := s.products.FindByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil || !p.IsActive {
			line.Unavailable = true
			if p != nil {
				line.ProductName = p.Name
			}
		} else {
			line.ProductName = p.Name
			line.UnitPrice = p.Price
			line.StockQuantity = p.StockQuantity
			snapshot.Total += p.Price * item.Quantity
		}
		snapshot.Lines = append(snapshot.Lines, line)
	}

	return snapshot, nil
}

// AddItem appends quantity to the owner's line for the product. The stock
// check here only guards against obviously over-full carts; the checkout
// transaction is the authority.
func (s *CartService) AddItem(ctx context.Context, ownerID, productID string, quantity int64) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: product %s", domain.ErrInvalidQuantity, productID)
	}

	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	if p == nil || !p.IsActive {
		return &domain.ProductUnavailableError{ProductID: productID}
	}

	existing, err := s.cart.FindItem(ctx, ownerID, productID)
	if err != nil {
		return err
	}
	inCart := int64(0)
	if existing != nil {
		inCart = existing.Quantity
	}
	if inCart+quantity > p.StockQuantity {
		return &domain.InsufficientStockError{
			ProductID: productID,
			Requested: inCart + quantity,
			Available: p.StockQuantity,
		}
	}

	return s.cart.Upsert(ctx, ownerID, productID, quantity)
}

// UpdateQuantity sets the line to an absolute quantity; zero removes it.
func (s *CartService) UpdateQuantity(ctx context.Context, ownerID, productID string, quantity int64) error {
	if quantity < 0 {
		return fmt.Errorf("%w: product %s", domain.ErrInvalidQuantity, productID)
	}
	if quantity == 0 {
		return s.cart.Remove(ctx, ownerID, productID)
	}

	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	if p == nil || !p.IsActive {
		return &domain.ProductUnavailableError{ProductID: productID}
	}
	if quantity > p.StockQuantity {
		return &domain.InsufficientStockError{
			ProductID: productID,
			Requested: quantity,
			Available: p.StockQuantity,
		}
	}

	return s.cart.SetQuantity(ctx, ownerID, productID, quantity)
}

func (s *CartService) RemoveItem(ctx context.Context, ownerID, productID string) error {
	return s.cart.Remove(ctx, ownerID, productID)
}

func (s *CartService) Clear(ctx context.Context, ownerID string) error {
	return s.cart.Clear(ctx, ownerID)
}
