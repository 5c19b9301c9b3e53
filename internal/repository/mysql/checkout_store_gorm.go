package mysql

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront-service/internal/domain"
	"storefront-service/internal/repository"
)

const (
	mysqlErrDuplicateEntry = 1062
	mysqlErrLockWait       = 1205
	mysqlErrDeadlock       = 1213
)

type checkoutStore struct {
	db *gorm.DB
}

func NewCheckoutStore(db *gorm.DB) repository.CheckoutStore {
	return &checkoutStore{db: db}
}

// PlaceOrder runs the five checkout stages in a single transaction. Product
// rows are locked in ascending ID order so two checkouts over overlapping
// carts cannot deadlock, and stock is re-read under the lock; values the
// caller saw before the transaction are never trusted.
func (s *checkoutStore) PlaceOrder(ctx context.Context, ownerID, shippingAddress string, items []repository.CheckoutItem, idempotencyKey string) (*domain.Order, bool, error) {
	sorted := make([]repository.CheckoutItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

	var (
		placed *domain.Order
		replay bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if idempotencyKey != "" {
			var existing domain.Order
			err := tx.Preload("Items").
				Where("owner_id = ? AND idempotency_key = ?", ownerID, idempotencyKey).
				First(&existing).Error
			switch {
			case err == nil:
				placed = &existing
				replay = true
				return nil
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return err
			}
		}

		order := &domain.Order{
			ID:              uuid.NewString(),
			OwnerID:         ownerID,
			ShippingAddress: shippingAddress,
			Status:          domain.StatusPending,
		}
		if idempotencyKey != "" {
			order.IdempotencyKey = &idempotencyKey
		}

		productIDs := make([]string, 0, len(sorted))
		for _, it := range sorted {
			var p domain.Product
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("id = ?", it.ProductID).
				First(&p).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &domain.ProductUnavailableError{ProductID: it.ProductID}
			}
			if err != nil {
				return err
			}
			if !p.IsActive {
				return &domain.ProductUnavailableError{ProductID: p.ID}
			}
			if p.StockQuantity < it.Quantity {
				return &domain.InsufficientStockError{
					ProductID: p.ID,
					Requested: it.Quantity,
					Available: p.StockQuantity,
				}
			}
			order.TotalAmount += it.Quantity * p.Price
			order.Items = append(order.Items, domain.OrderItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    it.Quantity,
				UnitPrice:   p.Price,
			})
			productIDs = append(productIDs, p.ID)
		}

		if err := tx.Create(order).Error; err != nil {
			return err
		}

		for _, it := range sorted {
			res := tx.Model(&domain.Product{}).
				Where("id = ? AND stock_quantity >= ?", it.ProductID, it.Quantity).
				UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", it.Quantity))
			if res.Error != nil {
				return res.Error
			}
			// The row is held FOR UPDATE, so a miss here means the engine
			// lost the lock; abort rather than guess.
			if res.RowsAffected == 0 {
				return domain.ErrTransactionConflict
			}
		}

		if err := tx.Where("owner_id = ? AND product_id IN ?", ownerID, productIDs).
			Delete(&domain.CartItem{}).Error; err != nil {
			return err
		}

		placed = order
		return nil
	})
	if err != nil {
		return nil, false, mapMySQLError(err)
	}
	return placed, !replay, nil
}

// mapMySQLError turns engine-level concurrency failures into the retriable
// conflict error. A duplicate idempotency key is a concurrent replay; the
// retry will hit the idempotent read path. Other engine errors are
// persistence failures the caller cannot act on beyond reporting.
func mapMySQLError(err error) error {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case mysqlErrDeadlock, mysqlErrLockWait, mysqlErrDuplicateEntry:
			return domain.ErrTransactionConflict
		}
		return fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}
	return err
}
