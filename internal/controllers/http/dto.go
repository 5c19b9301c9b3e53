package http

type CheckoutItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity"`
}

type CheckoutRequest struct {
	ShippingAddress string                `json:"shippingAddress"`
	Items           []CheckoutItemRequest `json:"items"`
	IdempotencyKey  string                `json:"idempotencyKey"`
}

type CheckoutResponse struct {
	OrderID     string `json:"orderId"`
	TotalAmount int64  `json:"totalAmount"`
	Status      string `json:"status"`
}

type AddCartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity *int64 `json:"quantity" binding:"required"`
}

type ProductRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	SKU           string `json:"sku"`
	ImageURL      string `json:"imageUrl"`
	Price         int64  `json:"price"`
	StockQuantity int64  `json:"stockQuantity"`
	IsActive      *bool  `json:"isActive"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
