package domain

import "time"

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// statusSuccessor is the forward fulfilment chain. Cancellation is allowed
// from any non-terminal state.
var statusSuccessor = map[OrderStatus]OrderStatus{
	StatusPending:    StatusProcessing,
	StatusProcessing: StatusShipped,
	StatusShipped:    StatusDelivered,
}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !next.Valid() || s.Terminal() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	return statusSuccessor[s] == next
}

// Order is immutable after commit apart from Status. TotalAmount and the
// item unit prices are snapshots taken inside the checkout transaction.
// IdempotencyKey is NULL when the caller supplied none, so the unique index
// only constrains replayed keys.
type Order struct {
	ID              string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OwnerID         string      `json:"ownerId" gorm:"type:varchar(36);not null;index;uniqueIndex:idx_orders_owner_idem,priority:1"`
	TotalAmount     int64       `json:"totalAmount" gorm:"not null"`
	ShippingAddress string      `json:"shippingAddress" gorm:"type:varchar(500);not null"`
	Status          OrderStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	IdempotencyKey  *string     `json:"-" gorm:"type:varchar(64);uniqueIndex:idx_orders_owner_idem,priority:2"`
	Items           []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time   `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt       time.Time   `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem captures quantity and unit price at the moment of purchase.
// ProductName is copied too, so history survives catalog deletions.
type OrderItem struct {
	ID          uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID     string    `json:"orderId" gorm:"type:varchar(36);not null;index"`
	ProductID   string    `json:"productId" gorm:"type:varchar(36);not null;index"`
	ProductName string    `json:"productName" gorm:"type:varchar(255);not null"`
	Quantity    int64     `json:"quantity" gorm:"not null"`
	UnitPrice   int64     `json:"unitPrice" gorm:"not null"`
	CreatedAt   time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
