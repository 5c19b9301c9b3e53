package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront-service/internal/domain"
	"storefront-service/internal/repository"
)

// Store is an in-memory implementation of the storage interfaces, used by
// tests and as a no-MySQL development mode. A single mutex stands in for the
// row locks of the real engine: PlaceOrder validates every line before the
// first mutation, which gives the same all-or-nothing guarantee the gorm
// store gets from its transaction.
//
// Store itself is the CheckoutStore; Products, Cart and Orders expose the
// per-collection repositories over the same shared state.
type Store struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
	carts    map[string]map[string]*domain.CartItem // ownerID -> productID -> item
	orders   map[string]*domain.Order
	idemKeys map[string]string // ownerID + "\x00" + key -> orderID
	cartSeq  uint64
	itemSeq  uint64
}

var _ repository.CheckoutStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		products: make(map[string]*domain.Product),
		carts:    make(map[string]map[string]*domain.CartItem),
		orders:   make(map[string]*domain.Order),
		idemKeys: make(map[string]string),
	}
}

func (s *Store) Products() repository.ProductRepository { return &productView{s} }
func (s *Store) Cart() repository.CartRepository        { return &cartView{s} }
func (s *Store) Orders() repository.OrderRepository     { return &orderView{s} }

func idemKey(ownerID, key string) string {
	return ownerID + "\x00" + key
}

func (s *Store) PlaceOrder(ctx context.Context, ownerID, shippingAddress string, items []repository.CheckoutItem, idempotencyKey string) (*domain.Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idempotencyKey != "" {
		if orderID, ok := s.idemKeys[idemKey(ownerID, idempotencyKey)]; ok {
			return copyOrder(s.orders[orderID]), false, nil
		}
	}

	sorted := make([]repository.CheckoutItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

	// Validate everything before touching anything, so a failure needs no
	// rollback.
	for _, it := range sorted {
		p, ok := s.products[it.ProductID]
		if !ok || !p.IsActive {
			return nil, false, &domain.ProductUnavailableError{ProductID: it.ProductID}
		}
		if p.StockQuantity < it.Quantity {
			return nil, false, &domain.InsufficientStockError{
				ProductID: p.ID,
				Requested: it.Quantity,
				Available: p.StockQuantity,
			}
		}
	}

	now := time.Now()
	order := &domain.Order{
		ID:              uuid.NewString(),
		OwnerID:         ownerID,
		ShippingAddress: shippingAddress,
		Status:          domain.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if idempotencyKey != "" {
		k := idempotencyKey
		order.IdempotencyKey = &k
	}
	for _, it := range sorted {
		p := s.products[it.ProductID]
		s.itemSeq++
		order.Items = append(order.Items, domain.OrderItem{
			ID:          s.itemSeq,
			OrderID:     order.ID,
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    it.Quantity,
			UnitPrice:   p.Price,
			CreatedAt:   now,
		})
		order.TotalAmount += it.Quantity * p.Price
		p.StockQuantity -= it.Quantity
		if lines, ok := s.carts[ownerID]; ok {
			delete(lines, p.ID)
		}
	}

	s.orders[order.ID] = order
	if order.IdempotencyKey != nil {
		s.idemKeys[idemKey(ownerID, idempotencyKey)] = order.ID
	}
	return copyOrder(order), true, nil
}

type productView struct {
	s *Store
}

func (v *productView) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	p, ok := v.s.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (v *productView) FindActive(ctx context.Context) ([]domain.Product, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	var out []domain.Product
	for _, p := range v.s.products {
		if p.IsActive {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (v *productView) Save(ctx context.Context, product *domain.Product) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	cp := *product
	v.s.products[product.ID] = &cp
	return nil
}

func (v *productView) Update(ctx context.Context, product *domain.Product) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	p, ok := v.s.products[product.ID]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.Name = product.Name
	p.Description = product.Description
	p.SKU = product.SKU
	p.ImageURL = product.ImageURL
	p.Price = product.Price
	p.IsActive = product.IsActive
	return nil
}

func (v *productView) Deactivate(ctx context.Context, id string) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	p, ok := v.s.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.IsActive = false
	return nil
}

type cartView struct {
	s *Store
}

func (v *cartView) FindByOwner(ctx context.Context, ownerID string) ([]domain.CartItem, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	var out []domain.CartItem
	for _, item := range v.s.carts[ownerID] {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v *cartView) FindItem(ctx context.Context, ownerID, productID string) (*domain.CartItem, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	item, ok := v.s.carts[ownerID][productID]
	if !ok {
		return nil, nil
	}
	cp := *item
	return &cp, nil
}

func (v *cartView) Upsert(ctx context.Context, ownerID, productID string, quantity int64) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	lines, ok := v.s.carts[ownerID]
	if !ok {
		lines = make(map[string]*domain.CartItem)
		v.s.carts[ownerID] = lines
	}
	if item, ok := lines[productID]; ok {
		item.Quantity += quantity
		item.UpdatedAt = time.Now()
		return nil
	}
	v.s.cartSeq++
	now := time.Now()
	lines[productID] = &domain.CartItem{
		ID:        v.s.cartSeq,
		OwnerID:   ownerID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

func (v *cartView) SetQuantity(ctx context.Context, ownerID, productID string, quantity int64) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	item, ok := v.s.carts[ownerID][productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	item.Quantity = quantity
	item.UpdatedAt = time.Now()
	return nil
}

func (v *cartView) Remove(ctx context.Context, ownerID, productID string) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	delete(v.s.carts[ownerID], productID)
	return nil
}

func (v *cartView) Clear(ctx context.Context, ownerID string) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	delete(v.s.carts, ownerID)
	return nil
}

type orderView struct {
	s *Store
}

func (v *orderView) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	o, ok := v.s.orders[id]
	if !ok {
		return nil, nil
	}
	return copyOrder(o), nil
}

func (v *orderView) FindByOwner(ctx context.Context, ownerID string) ([]domain.Order, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	var out []domain.Order
	for _, o := range v.s.orders {
		if o.OwnerID == ownerID {
			out = append(out, *copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (v *orderView) FindAll(ctx context.Context) ([]domain.Order, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	var out []domain.Order
	for _, o := range v.s.orders {
		out = append(out, *copyOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (v *orderView) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	o, ok := v.s.orders[id]
	if !ok || o.Status != from {
		return domain.ErrTransactionConflict
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	return nil
}

func copyOrder(o *domain.Order) *domain.Order {
	cp := *o
	cp.Items = make([]domain.OrderItem, len(o.Items))
	copy(cp.Items, o.Items)
	return &cp
}
