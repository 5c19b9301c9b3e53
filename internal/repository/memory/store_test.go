package memory

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"storefront-service/internal/domain"
	"storefront-service/internal/repository"
)

func seedProduct(t *testing.T, s *Store, id string, price, stock int64) {
	t.Helper()
	err := s.Products().Save(context.Background(), &domain.Product{
		ID:            id,
		Name:          "Product " + id,
		Price:         price,
		StockQuantity: stock,
		IsActive:      true,
	})
	require.NoError(t, err)
}

func stockOf(t *testing.T, s *Store, id string) int64 {
	t.Helper()
	p, err := s.Products().FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.StockQuantity
}

func TestStore_PlaceOrder_Success(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedProduct(t, s, "p-1", 1000, 10)
	seedProduct(t, s, "p-2", 250, 4)
	require.NoError(t, s.Cart().Upsert(ctx, "user-1", "p-1", 2))
	require.NoError(t, s.Cart().Upsert(ctx, "user-1", "p-2", 1))

	order, created, err := s.PlaceOrder(ctx, "user-1", "1 Main St",
		[]repository.CheckoutItem{{ProductID: "p-1", Quantity: 2}, {ProductID: "p-2", Quantity: 1}}, "")

	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, "user-1", order.OwnerID)
	assert.Equal(t, domain.StatusPending, order.Status)
	assert.Equal(t, int64(2*1000+1*250), order.TotalAmount)
	assert.Len(t, order.Items, 2)

	assert.Equal(t, int64(8), stockOf(t, s, "p-1"))
	assert.Equal(t, int64(3), stockOf(t, s, "p-2"))

	// purchased lines are gone from the cart
	items, err := s.Cart().FindByOwner(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, items)

	// the order is readable back with its items
	fetched, err := s.Orders().FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Len(t, fetched.Items, 2)
}

func TestStore_PlaceOrder_InsufficientStockLeavesEverythingUntouched(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedProduct(t, s, "p-1", 1000, 10)
	seedProduct(t, s, "p-2", 500, 1)

	order, created, err := s.PlaceOrder(ctx, "user-1", "1 Main St",
		[]repository.CheckoutItem{{ProductID: "p-1", Quantity: 2}, {ProductID: "p-2", Quantity: 3}}, "")

	assert.Nil(t, order)
	assert.False(t, created)

	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "p-2", stockErr.ProductID)
	assert.Equal(t, int64(3), stockErr.Requested)
	assert.Equal(t, int64(1), stockErr.Available)

	// neither product changed, not even the one that had enough stock
	assert.Equal(t, int64(10), stockOf(t, s, "p-1"))
	assert.Equal(t, int64(1), stockOf(t, s, "p-2"))

	orders, err := s.Orders().FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestStore_PlaceOrder_DeactivatedProduct(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedProduct(t, s, "p-1", 1000, 10)
	require.NoError(t, s.Products().Deactivate(ctx, "p-1"))

	order, _, err := s.PlaceOrder(ctx, "user-1", "1 Main St",
		[]repository.CheckoutItem{{ProductID: "p-1", Quantity: 1}}, "")

	assert.Nil(t, order)
	var unavailErr *domain.ProductUnavailableError
	require.True(t, errors.As(err, &unavailErr))
	assert.Equal(t, "p-1", unavailErr.ProductID)
	assert.Equal(t, int64(10), stockOf(t, s, "p-1"))
}

func TestStore_PlaceOrder_UnknownProduct(t *testing.T) {
	s := NewStore()

	order, _, err := s.PlaceOrder(context.Background(), "user-1", "1 Main St",
		[]repository.CheckoutItem{{ProductID: "ghost", Quantity: 1}}, "")

	assert.Nil(t, order)
	var unavailErr *domain.ProductUnavailableError
	assert.True(t, errors.As(err, &unavailErr))
}

func TestStore_PlaceOrder_PriceSnapshot(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedProduct(t, s, "p-1", 1000, 10)

	order, _, err := s.PlaceOrder(ctx, "user-1", "1 Main St",
		[]repository.CheckoutItem{{ProductID: "p-1", Quantity: 2}}, "")
	require.NoError(t, err)

	// reprice the product after the sale
	p, err := s.Products().FindByID(ctx, "p-1")
	require.NoError(t, err)
	p.Price = 9999
	require.NoError(t, s.Products().Update(ctx, p))

	fetched, err := s.Orders().FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), fetched.Items[0].UnitPrice)
	assert.Equal(t, int64(2000), fetched.TotalAmount)
}

func TestStore_PlaceOrder_IdempotentReplay(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedProduct(t, s, "p-1", 1000, 10)
	items := []repository.CheckoutItem{{ProductID: "p-1", Quantity: 2}}

	first, created, err := s.PlaceOrder(ctx, "user-1", "1 Main St", items, "key-1")
	require.NoError(t, err)
	assert.True(t, created)

	replay, created, err := s.PlaceOrder(ctx, "user-1", "1 Main St", items, "key-1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, replay.ID)

	// stock was only decremented once
	assert.Equal(t, int64(8), stockOf(t, s, "p-1"))

	// a different owner with the same key is a separate checkout
	_, created, err = s.PlaceOrder(ctx, "user-2", "2 Side St", items, "key-1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(6), stockOf(t, s, "p-1"))
}

func TestStore_PlaceOrder_ScopedCartDelete(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedProduct(t, s, "p-1", 1000, 10)
	seedProduct(t, s, "p-2", 500, 10)
	require.NoError(t, s.Cart().Upsert(ctx, "user-1", "p-1", 1))
	require.NoError(t, s.Cart().Upsert(ctx, "user-1", "p-2", 1))

	// checkout covers only p-1; the p-2 line must survive
	_, _, err := s.PlaceOrder(ctx, "user-1", "1 Main St",
		[]repository.CheckoutItem{{ProductID: "p-1", Quantity: 1}}, "")
	require.NoError(t, err)

	items, err := s.Cart().FindByOwner(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "p-2", items[0].ProductID)
}

func TestStore_PlaceOrder_NoOversellUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	const stock = 7
	seedProduct(t, s, "p-1", 1000, stock)

	var successes, conflicts int64
	g := new(errgroup.Group)
	for i := 0; i < 20; i++ {
		buyer := fmt.Sprintf("user-%d", i)
		g.Go(func() error {
			_, _, err := s.PlaceOrder(ctx, buyer, "1 Main St",
				[]repository.CheckoutItem{{ProductID: "p-1", Quantity: 1}}, "")
			if err == nil {
				atomic.AddInt64(&successes, 1)
				return nil
			}
			var stockErr *domain.InsufficientStockError
			if errors.As(err, &stockErr) {
				atomic.AddInt64(&conflicts, 1)
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(stock), successes)
	assert.Equal(t, int64(20-stock), conflicts)
	assert.Equal(t, int64(0), stockOf(t, s, "p-1"))
}

func TestStore_PlaceOrder_TwoBuyersOneUnit(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedProduct(t, s, "p-1", 1000, 5)

	// two checkouts of 3 against 5 in stock: exactly one can win
	results := make(chan error, 2)
	g := new(errgroup.Group)
	for _, buyer := range []string{"user-a", "user-b"} {
		buyer := buyer
		g.Go(func() error {
			_, _, err := s.PlaceOrder(ctx, buyer, "1 Main St",
				[]repository.CheckoutItem{{ProductID: "p-1", Quantity: 3}}, "")
			results <- err
			return nil
		})
	}
	require.NoError(t, g.Wait())
	close(results)

	var wins, losses int
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		var stockErr *domain.InsufficientStockError
		require.True(t, errors.As(err, &stockErr))
		assert.Equal(t, int64(3), stockErr.Requested)
		assert.Equal(t, int64(2), stockErr.Available)
		losses++
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, losses)
	assert.Equal(t, int64(2), stockOf(t, s, "p-1"))
}

func TestStore_PlaceOrder_StockConservation(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	const initial = 50
	seedProduct(t, s, "p-1", 100, initial)

	g := new(errgroup.Group)
	for i := 0; i < 30; i++ {
		buyer := fmt.Sprintf("user-%d", i)
		qty := int64(i%3 + 1)
		g.Go(func() error {
			_, _, err := s.PlaceOrder(ctx, buyer, "1 Main St",
				[]repository.CheckoutItem{{ProductID: "p-1", Quantity: qty}}, "")
			var stockErr *domain.InsufficientStockError
			if err != nil && !errors.As(err, &stockErr) {
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	orders, err := s.Orders().FindAll(ctx)
	require.NoError(t, err)

	var sold int64
	for _, o := range orders {
		for _, item := range o.Items {
			sold += item.Quantity
		}
	}
	assert.Equal(t, int64(initial), sold+stockOf(t, s, "p-1"))
}

func TestStore_OrderStatusConditionalUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedProduct(t, s, "p-1", 1000, 5)

	order, _, err := s.PlaceOrder(ctx, "user-1", "1 Main St",
		[]repository.CheckoutItem{{ProductID: "p-1", Quantity: 1}}, "")
	require.NoError(t, err)

	require.NoError(t, s.Orders().UpdateStatus(ctx, order.ID, domain.StatusPending, domain.StatusProcessing))

	// a second admin still holding the pending view loses
	err = s.Orders().UpdateStatus(ctx, order.ID, domain.StatusPending, domain.StatusProcessing)
	assert.ErrorIs(t, err, domain.ErrTransactionConflict)

	fetched, err := s.Orders().FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, fetched.Status)
}
