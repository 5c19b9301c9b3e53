package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"storefront-service/internal/domain"
	"storefront-service/internal/mocks"
)

func TestOrderService_GetOrder(t *testing.T) {
	tests := []struct {
		name          string
		ownerID       string
		setupMocks    func(*mocks.MockOrderRepository)
		expectedError error
	}{
		{
			name:    "owner reads own order",
			ownerID: "user-1",
			setupMocks: func(mockRepo *mocks.MockOrderRepository) {
				mockRepo.On("FindByID", mock.Anything, "order-1").Return(&domain.Order{
					ID: "order-1", OwnerID: "user-1", TotalAmount: 1000,
				}, nil)
			},
		},
		{
			name:    "someone else's order reads as not found",
			ownerID: "user-2",
			setupMocks: func(mockRepo *mocks.MockOrderRepository) {
				mockRepo.On("FindByID", mock.Anything, "order-1").Return(&domain.Order{
					ID: "order-1", OwnerID: "user-1",
				}, nil)
			},
			expectedError: domain.ErrOrderNotFound,
		},
		{
			name:    "missing order",
			ownerID: "user-1",
			setupMocks: func(mockRepo *mocks.MockOrderRepository) {
				mockRepo.On("FindByID", mock.Anything, "order-1").Return(nil, nil)
			},
			expectedError: domain.ErrOrderNotFound,
		},
		{
			name:    "repository error",
			ownerID: "user-1",
			setupMocks: func(mockRepo *mocks.MockOrderRepository) {
				mockRepo.On("FindByID", mock.Anything, "order-1").Return(nil, errors.New("connection refused"))
			},
			expectedError: errors.New("connection refused"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(mocks.MockOrderRepository)
			tt.setupMocks(mockRepo)

			service := NewOrderService(mockRepo, nil, nil, nil)
			order, err := service.GetOrder(context.Background(), tt.ownerID, "order-1")

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError.Error())
				assert.Nil(t, order)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "order-1", order.ID)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestOrderService_UpdateStatus(t *testing.T) {
	tests := []struct {
		name          string
		current       domain.OrderStatus
		next          domain.OrderStatus
		repoErr       error
		expectedError error
	}{
		{
			name:    "pending to processing",
			current: domain.StatusPending,
			next:    domain.StatusProcessing,
		},
		{
			name:    "cancel while processing",
			current: domain.StatusProcessing,
			next:    domain.StatusCancelled,
		},
		{
			name:          "skipping a step rejected",
			current:       domain.StatusPending,
			next:          domain.StatusShipped,
			expectedError: domain.ErrInvalidStatusTransition,
		},
		{
			name:          "delivered order cannot change",
			current:       domain.StatusDelivered,
			next:          domain.StatusCancelled,
			expectedError: domain.ErrInvalidStatusTransition,
		},
		{
			name:          "concurrent admin already moved it",
			current:       domain.StatusPending,
			next:          domain.StatusProcessing,
			repoErr:       domain.ErrTransactionConflict,
			expectedError: domain.ErrTransactionConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(mocks.MockOrderRepository)
			mockPub := new(mocks.MockPublisher)
			mockAudit := new(mocks.MockAuditLogger)

			mockRepo.On("FindByID", mock.Anything, "order-1").Return(&domain.Order{
				ID: "order-1", OwnerID: "user-1", Status: tt.current,
			}, nil)
			if tt.current.CanTransitionTo(tt.next) {
				mockRepo.On("UpdateStatus", mock.Anything, "order-1", tt.current, tt.next).Return(tt.repoErr)
			}
			mockPub.On("Publish", mock.Anything, "order.status_changed", mock.Anything).Return(nil).Maybe()
			mockAudit.On("Record", mock.Anything, mock.Anything).Return(nil).Maybe()

			service := NewOrderService(mockRepo, mockPub, mockAudit, nil)
			order, err := service.UpdateStatus(context.Background(), "admin-1", "order-1", tt.next)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, order)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.next, order.Status)
			}

			time.Sleep(100 * time.Millisecond)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestOrderService_UpdateStatus_NotFound(t *testing.T) {
	mockRepo := new(mocks.MockOrderRepository)
	mockRepo.On("FindByID", mock.Anything, "order-9").Return(nil, nil)

	service := NewOrderService(mockRepo, nil, nil, nil)
	order, err := service.UpdateStatus(context.Background(), "admin-1", "order-9", domain.StatusProcessing)

	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.Nil(t, order)
}

func TestOrderService_UpdateStatus_PublishesEvent(t *testing.T) {
	mockRepo := new(mocks.MockOrderRepository)
	mockPub := new(mocks.MockPublisher)

	mockRepo.On("FindByID", mock.Anything, "order-1").Return(&domain.Order{
		ID: "order-1", Status: domain.StatusPending,
	}, nil)
	mockRepo.On("UpdateStatus", mock.Anything, "order-1", domain.StatusPending, domain.StatusProcessing).Return(nil)

	published := make(chan domain.OrderStatusChangedEvent, 1)
	mockPub.On("Publish", mock.Anything, "order.status_changed", mock.AnythingOfType("domain.OrderStatusChangedEvent")).
		Return(nil).
		Run(func(args mock.Arguments) {
			published <- args.Get(2).(domain.OrderStatusChangedEvent)
		})

	service := NewOrderService(mockRepo, mockPub, nil, nil)
	_, err := service.UpdateStatus(context.Background(), "admin-1", "order-1", domain.StatusProcessing)
	assert.NoError(t, err)

	select {
	case evt := <-published:
		assert.Equal(t, "order-1", evt.OrderID)
		assert.Equal(t, domain.StatusPending, evt.OldStatus)
		assert.Equal(t, domain.StatusProcessing, evt.NewStatus)
	case <-time.After(time.Second):
		t.Fatal("order.status_changed event was never published")
	}
}

func TestOrderService_ListOrders(t *testing.T) {
	mockRepo := new(mocks.MockOrderRepository)
	mockRepo.On("FindByOwner", mock.Anything, "user-1").Return([]domain.Order{
		{ID: "order-2", OwnerID: "user-1"},
		{ID: "order-1", OwnerID: "user-1"},
	}, nil)

	service := NewOrderService(mockRepo, nil, nil, nil)
	orders, err := service.ListOrders(context.Background(), "user-1")

	assert.NoError(t, err)
	assert.Len(t, orders, 2)
	mockRepo.AssertExpectations(t)
}
