package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	mongoinfra "storefront-service/internal/infra/mongo"

	"storefront-service/internal/domain"
	"storefront-service/internal/repository"
)

type MockCheckoutStore struct {
	mock.Mock
}

func (m *MockCheckoutStore) PlaceOrder(ctx context.Context, ownerID, shippingAddress string, items []repository.CheckoutItem, idempotencyKey string) (*domain.Order, bool, error) {
	args := m.Called(ctx, ownerID, shippingAddress, items, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.Order), args.Bool(1), args.Error(2)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductRepository) FindActive(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Deactivate(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) FindByOwner(ctx context.Context, ownerID string) ([]domain.CartItem, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CartItem), args.Error(1)
}

func (m *MockCartRepository) FindItem(ctx context.Context, ownerID, productID string) (*domain.CartItem, error) {
	args := m.Called(ctx, ownerID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CartItem), args.Error(1)
}

func (m *MockCartRepository) Upsert(ctx context.Context, ownerID, productID string, quantity int64) error {
	args := m.Called(ctx, ownerID, productID, quantity)
	return args.Error(0)
}

func (m *MockCartRepository) SetQuantity(ctx context.Context, ownerID, productID string, quantity int64) error {
	args := m.Called(ctx, ownerID, productID, quantity)
	return args.Error(0)
}

func (m *MockCartRepository) Remove(ctx context.Context, ownerID, productID string) error {
	args := m.Called(ctx, ownerID, productID)
	return args.Error(0)
}

func (m *MockCartRepository) Clear(ctx context.Context, ownerID string) error {
	args := m.Called(ctx, ownerID)
	return args.Error(0)
}

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByOwner(ctx context.Context, ownerID string) ([]domain.Order, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context) ([]domain.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event string, data any) error {
	args := m.Called(ctx, event, data)
	return args.Error(0)
}

type MockAuditLogger struct {
	mock.Mock
}

func (m *MockAuditLogger) Record(ctx context.Context, entry *mongoinfra.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditLogger) Entries(ctx context.Context, entityID string, limit int64) ([]*mongoinfra.Entry, error) {
	args := m.Called(ctx, entityID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*mongoinfra.Entry), args.Error(1)
}
