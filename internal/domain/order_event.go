package domain

import "time"

type OrderPlacedItem struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
}

type OrderPlacedEvent struct {
	OrderID     string            `json:"orderId"`
	OwnerID     string            `json:"ownerId"`
	TotalAmount int64             `json:"totalAmount"`
	Items       []OrderPlacedItem `json:"items"`
	CreatedAt   time.Time         `json:"createdAt"`
}

type OrderStatusChangedEvent struct {
	OrderID   string      `json:"orderId"`
	OldStatus OrderStatus `json:"oldStatus"`
	NewStatus OrderStatus `json:"newStatus"`
	ChangedAt time.Time   `json:"changedAt"`
}
