package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	mongoinfra "storefront-service/internal/infra/mongo"
	rabbit "storefront-service/internal/infra/rabbitmq"

	"storefront-service/internal/domain"
	"storefront-service/internal/repository"
)

const maxShippingAddressLen = 500

// CheckoutService is the single entry point for order placement. It
// validates and normalizes the request, then hands the atomic part to the
// CheckoutStore; everything that happens after the commit (events, audit,
// cache invalidation) is best-effort and never fails the checkout.
type CheckoutService struct {
	store       repository.CheckoutStore
	publisher   rabbit.PublisherInterface
	audit       mongoinfra.AuditLoggerInterface
	redisClient *redis.Client
	logger      *zap.Logger
}

func NewCheckoutService(store repository.CheckoutStore, pub rabbit.PublisherInterface, audit mongoinfra.AuditLoggerInterface, logger *zap.Logger) *CheckoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckoutService{
		store:     store,
		publisher: pub,
		audit:     audit,
		logger:    logger,
	}
}

func (s *CheckoutService) SetRedisClient(client *redis.Client) {
	s.redisClient = client
}

// PlaceOrder converts the submitted cart lines into an immutable order.
// Duplicate product references are merged by summing quantities before
// validation. A non-empty idempotencyKey makes the call safely retriable:
// a replay returns the already-placed order without touching stock again.
func (s *CheckoutService) PlaceOrder(ctx context.Context, ownerID, shippingAddress string, items []repository.CheckoutItem, idempotencyKey string) (*domain.Order, error) {
	address := strings.TrimSpace(shippingAddress)
	if address == "" {
		return nil, domain.ErrInvalidAddress
	}
	if len(address) > maxShippingAddressLen {
		return nil, fmt.Errorf("%w: must be at most %d characters", domain.ErrInvalidAddress, maxShippingAddressLen)
	}
	if len(items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	merged, err := mergeItems(items)
	if err != nil {
		return nil, err
	}

	order, created, err := s.store.PlaceOrder(ctx, ownerID, address, merged, idempotencyKey)
	if err != nil {
		return nil, err
	}

	if created {
		go s.afterPlacement(context.Background(), order)
	} else {
		s.logger.Info("checkout replayed via idempotency key",
			zap.String("order_id", order.ID),
			zap.String("owner_id", ownerID))
	}

	return order, nil
}

// mergeItems coalesces duplicate product references, keeping first-seen
// order, and rejects non-positive quantities.
func mergeItems(items []repository.CheckoutItem) ([]repository.CheckoutItem, error) {
	merged := make([]repository.CheckoutItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: product %s", domain.ErrInvalidQuantity, it.ProductID)
		}
		if i, ok := index[it.ProductID]; ok {
			merged[i].Quantity += it.Quantity
			continue
		}
		index[it.ProductID] = len(merged)
		merged = append(merged, it)
	}
	return merged, nil
}

func (s *CheckoutService) afterPlacement(ctx context.Context, order *domain.Order) {
	evt := domain.OrderPlacedEvent{
		OrderID:     order.ID,
		OwnerID:     order.OwnerID,
		TotalAmount: order.TotalAmount,
		CreatedAt:   order.CreatedAt,
	}
	for _, item := range order.Items {
		evt.Items = append(evt.Items, domain.OrderPlacedItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, "order.placed", evt); err != nil {
			s.logger.Error("failed to publish order.placed",
				zap.String("order_id", order.ID), zap.Error(err))
		}
	}

	if s.audit != nil {
		err := s.audit.Record(ctx, &mongoinfra.Entry{
			Action:   "checkout",
			EntityID: order.ID,
			ActorID:  order.OwnerID,
			Data:     bson.M{"total_amount": order.TotalAmount, "item_count": len(order.Items)},
		})
		if err != nil {
			s.logger.Warn("failed to write checkout audit entry",
				zap.String("order_id", order.ID), zap.Error(err))
		}
	}

	if s.redisClient != nil {
		keys := make([]string, 0, len(order.Items)+1)
		for _, item := range order.Items {
			keys = append(keys, ProductCacheKey(item.ProductID))
		}
		keys = append(keys, OrdersCacheKey(order.OwnerID))
		if err := s.redisClient.Del(ctx, keys...).Err(); err != nil {
			s.logger.Warn("failed to invalidate caches after checkout",
				zap.String("order_id", order.ID), zap.Error(err))
		}
	}
}
