package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront-service/internal/domain"
	"storefront-service/internal/repository"
)

type cartRepo struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) repository.CartRepository {
	return &cartRepo{db: db}
}

func (r *cartRepo) FindByOwner(ctx context.Context, ownerID string) ([]domain.CartItem, error) {
	var out []domain.CartItem
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *cartRepo) FindItem(ctx context.Context, ownerID, productID string) (*domain.CartItem, error) {
	var item domain.CartItem
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND product_id = ?", ownerID, productID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *cartRepo) Upsert(ctx context.Context, ownerID, productID string, quantity int64) error {
	item := domain.CartItem{
		OwnerID:   ownerID,
		ProductID: productID,
		Quantity:  quantity,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "owner_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity": gorm.Expr("quantity + VALUES(quantity)"),
		}),
	}).Create(&item).Error
}

func (r *cartRepo) SetQuantity(ctx context.Context, ownerID, productID string, quantity int64) error {
	res := r.db.WithContext(ctx).Model(&domain.CartItem{}).
		Where("owner_id = ? AND product_id = ?", ownerID, productID).
		Update("quantity", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *cartRepo) Remove(ctx context.Context, ownerID, productID string) error {
	return r.db.WithContext(ctx).
		Where("owner_id = ? AND product_id = ?", ownerID, productID).
		Delete(&domain.CartItem{}).Error
}

func (r *cartRepo) Clear(ctx context.Context, ownerID string) error {
	return r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Delete(&domain.CartItem{}).Error
}
