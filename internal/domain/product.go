package domain

import "time"

// Product prices are stored in cents.
type Product struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name          string    `json:"name" gorm:"type:varchar(255);not null"`
	Description   string    `json:"description" gorm:"type:text"`
	SKU           string    `json:"sku" gorm:"type:varchar(64)"`
	ImageURL      string    `json:"imageUrl" gorm:"type:varchar(512)"`
	Price         int64     `json:"price" gorm:"not null"`
	StockQuantity int64     `json:"stockQuantity" gorm:"not null;default:0"`
	IsActive      bool      `json:"isActive" gorm:"not null;default:true"`
	CreatedAt     time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt     time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (Product) TableName() string {
	return "products"
}
