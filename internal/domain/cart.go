package domain

import "time"

// CartItem is a shopper's intent to purchase. One row per (owner, product),
// mutable until checkout converts it into an order line.
type CartItem struct {
	ID        uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	OwnerID   string    `json:"ownerId" gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_owner_product"`
	ProductID string    `json:"productId" gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_owner_product"`
	Quantity  int64     `json:"quantity" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

// CartLine is a display row: a cart item joined with the product it points
// at. Unavailable is set when the product has been deactivated or deleted
// since it was added; such lines are excluded from the total.
type CartLine struct {
	ProductID     string `json:"productId"`
	ProductName   string `json:"productName"`
	UnitPrice     int64  `json:"unitPrice"`
	Quantity      int64  `json:"quantity"`
	StockQuantity int64  `json:"stockQuantity"`
	Unavailable   bool   `json:"unavailable"`
}

type CartSnapshot struct {
	OwnerID string     `json:"ownerId"`
	Lines   []CartLine `json:"lines"`
	Total   int64      `json:"total"`
}
