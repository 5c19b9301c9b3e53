package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	mongoinfra "storefront-service/internal/infra/mongo"
	rabbit "storefront-service/internal/infra/rabbitmq"

	"storefront-service/internal/domain"
	"storefront-service/internal/repository"
)

// OrderService reads order history and drives the administrative status
// transitions. Orders are otherwise immutable after checkout.
type OrderService struct {
	repo      repository.OrderRepository
	publisher rabbit.PublisherInterface
	audit     mongoinfra.AuditLoggerInterface
	logger    *zap.Logger
}

func NewOrderService(repo repository.OrderRepository, pub rabbit.PublisherInterface, audit mongoinfra.AuditLoggerInterface, logger *zap.Logger) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		repo:      repo,
		publisher: pub,
		audit:     audit,
		logger:    logger,
	}
}

// GetOrder is owner-scoped: an order belonging to someone else reads as not
// found rather than forbidden.
func (s *OrderService) GetOrder(ctx context.Context, ownerID, orderID string) (*domain.Order, error) {
	o, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil || o.OwnerID != ownerID {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

func (s *OrderService) ListOrders(ctx context.Context, ownerID string) ([]domain.Order, error) {
	return s.repo.FindByOwner(ctx, ownerID)
}

func (s *OrderService) ListAllOrders(ctx context.Context) ([]domain.Order, error) {
	return s.repo.FindAll(ctx)
}

// UpdateStatus applies one admin transition along the fulfilment chain
// (pending -> processing -> shipped -> delivered) or cancels a non-terminal
// order. The repository write is conditional on the status the transition
// was computed from, so concurrent admins cannot double-apply.
func (s *OrderService) UpdateStatus(ctx context.Context, actorID, orderID string, next domain.OrderStatus) (*domain.Order, error) {
	o, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrOrderNotFound
	}
	if !o.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidStatusTransition, o.Status, next)
	}

	if err := s.repo.UpdateStatus(ctx, orderID, o.Status, next); err != nil {
		return nil, err
	}

	go s.afterTransition(context.Background(), actorID, orderID, o.Status, next)

	o.Status = next
	return o, nil
}

// AuditTrail returns the most recent audit entries recorded against an
// order. Empty when no audit store is configured.
func (s *OrderService) AuditTrail(ctx context.Context, orderID string, limit int64) ([]*mongoinfra.Entry, error) {
	if s.audit == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	return s.audit.Entries(ctx, orderID, limit)
}

func (s *OrderService) afterTransition(ctx context.Context, actorID, orderID string, from, to domain.OrderStatus) {
	if s.publisher != nil {
		evt := domain.OrderStatusChangedEvent{
			OrderID:   orderID,
			OldStatus: from,
			NewStatus: to,
			ChangedAt: time.Now().UTC(),
		}
		if err := s.publisher.Publish(ctx, "order.status_changed", evt); err != nil {
			s.logger.Error("failed to publish order.status_changed",
				zap.String("order_id", orderID), zap.Error(err))
		}
	}

	if s.audit != nil {
		err := s.audit.Record(ctx, &mongoinfra.Entry{
			Action:   "order_status_change",
			EntityID: orderID,
			ActorID:  actorID,
			Data:     bson.M{"from": string(from), "to": string(to)},
		})
		if err != nil {
			s.logger.Warn("failed to write status audit entry",
				zap.String("order_id", orderID), zap.Error(err))
		}
	}
}
