package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"storefront-service/internal/domain"
	"storefront-service/internal/mocks"
)

func TestCatalogService_GetProduct(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		mockRepo := new(mocks.MockProductRepository)
		mockRepo.On("FindByID", mock.Anything, "p-1").Return(&domain.Product{
			ID: "p-1", Name: "Widget", Price: 1000, IsActive: true,
		}, nil)

		service := NewCatalogService(mockRepo, nil)
		p, err := service.GetProduct(context.Background(), "p-1")

		assert.NoError(t, err)
		assert.Equal(t, "Widget", p.Name)
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo := new(mocks.MockProductRepository)
		mockRepo.On("FindByID", mock.Anything, "ghost").Return(nil, nil)

		service := NewCatalogService(mockRepo, nil)
		p, err := service.GetProduct(context.Background(), "ghost")

		assert.ErrorIs(t, err, domain.ErrProductNotFound)
		assert.Nil(t, p)
	})
}

func TestCatalogService_CreateProduct(t *testing.T) {
	tests := []struct {
		name    string
		product domain.Product
		valid   bool
	}{
		{"valid product", domain.Product{Name: "Widget", Price: 1000, StockQuantity: 5}, true},
		{"missing name", domain.Product{Price: 1000}, false},
		{"negative price", domain.Product{Name: "Widget", Price: -1}, false},
		{"negative stock", domain.Product{Name: "Widget", Price: 100, StockQuantity: -3}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(mocks.MockProductRepository)
			if tt.valid {
				mockRepo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil)
			}

			service := NewCatalogService(mockRepo, nil)
			p := tt.product
			created, err := service.CreateProduct(context.Background(), &p)

			if tt.valid {
				assert.NoError(t, err)
				assert.NotEmpty(t, created.ID)
				assert.True(t, created.IsActive)
			} else {
				assert.ErrorIs(t, err, ErrInvalidProduct)
				mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestCatalogService_DeactivateProduct(t *testing.T) {
	mockRepo := new(mocks.MockProductRepository)
	mockRepo.On("Deactivate", mock.Anything, "p-1").Return(nil)

	service := NewCatalogService(mockRepo, nil)
	assert.NoError(t, service.DeactivateProduct(context.Background(), "p-1"))
	mockRepo.AssertExpectations(t)
}
