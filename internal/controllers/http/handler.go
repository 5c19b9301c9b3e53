package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"storefront-service/internal/domain"
	mongoinfra "storefront-service/internal/infra/mongo"
	"storefront-service/internal/repository"
	"storefront-service/internal/services"
)

const ordersCacheTTL = 10 * time.Second

type Handler struct {
	checkout *services.CheckoutService
	cart     *services.CartService
	catalog  *services.CatalogService
	orders   *services.OrderService
	rdb      *redis.Client
	logger   *zap.Logger
}

func NewHandler(checkout *services.CheckoutService, cart *services.CartService, catalog *services.CatalogService, orders *services.OrderService, rdb *redis.Client, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		checkout: checkout,
		cart:     cart,
		catalog:  catalog,
		orders:   orders,
		rdb:      rdb,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, jwtSecret []byte) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/products", h.ListProducts)
	r.GET("/products/:id", h.GetProduct)

	authed := r.Group("/", AuthMiddleware(jwtSecret))
	{
		authed.GET("/cart", h.GetCart)
		authed.POST("/cart/items", h.AddCartItem)
		authed.PATCH("/cart/items/:productId", h.UpdateCartItem)
		authed.DELETE("/cart/items/:productId", h.RemoveCartItem)
		authed.DELETE("/cart", h.ClearCart)

		authed.POST("/checkout", h.Checkout)

		authed.GET("/orders", h.ListOrders)
		authed.GET("/orders/:id", h.GetOrder)
	}

	admin := r.Group("/", AuthMiddleware(jwtSecret), RequireAdmin())
	{
		admin.POST("/products", h.CreateProduct)
		admin.PATCH("/products/:id", h.UpdateProduct)
		admin.DELETE("/products/:id", h.DeactivateProduct)
		admin.GET("/admin/orders", h.ListAllOrders)
		admin.GET("/admin/orders/:id/audit", h.OrderAuditTrail)
		admin.PATCH("/orders/:id/status", h.UpdateOrderStatus)
	}
}

func (h *Handler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items := make([]repository.CheckoutItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, repository.CheckoutItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	order, err := h.checkout.PlaceOrder(c.Request.Context(), ownerID(c), req.ShippingAddress, items, req.IdempotencyKey)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, CheckoutResponse{
		OrderID:     order.ID,
		TotalAmount: order.TotalAmount,
		Status:      string(order.Status),
	})
}

func (h *Handler) GetCart(c *gin.Context) {
	snapshot, err := h.cart.Snapshot(c.Request.Context(), ownerID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) AddCartItem(c *gin.Context) {
	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.cart.AddItem(c.Request.Context(), ownerID(c), req.ProductID, req.Quantity); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) UpdateCartItem(c *gin.Context) {
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.cart.UpdateQuantity(c.Request.Context(), ownerID(c), c.Param("productId"), *req.Quantity); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) RemoveCartItem(c *gin.Context) {
	if err := h.cart.RemoveItem(c.Request.Context(), ownerID(c), c.Param("productId")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ClearCart(c *gin.Context) {
	if err := h.cart.Clear(c.Request.Context(), ownerID(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) GetProduct(c *gin.Context) {
	p, err := h.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.catalog.CreateProduct(c.Request.Context(), &domain.Product{
		Name:          req.Name,
		Description:   req.Description,
		SKU:           req.SKU,
		ImageURL:      req.ImageURL,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	err := h.catalog.UpdateProduct(c.Request.Context(), &domain.Product{
		ID:          c.Param("id"),
		Name:        req.Name,
		Description: req.Description,
		SKU:         req.SKU,
		ImageURL:    req.ImageURL,
		Price:       req.Price,
		IsActive:    active,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) DeactivateProduct(c *gin.Context) {
	if err := h.catalog.DeactivateProduct(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListOrders serves the owner's history with a short Redis cache; checkout
// invalidates the key when a new order lands.
func (h *Handler) ListOrders(c *gin.Context) {
	owner := ownerID(c)
	cacheKey := services.OrdersCacheKey(owner)
	ctx := c.Request.Context()

	if h.rdb != nil {
		if cached, err := h.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var orders []domain.Order
			if err := json.Unmarshal([]byte(cached), &orders); err == nil {
				c.JSON(http.StatusOK, orders)
				return
			}
		}
	}

	orders, err := h.orders.ListOrders(ctx, owner)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if h.rdb != nil {
		if data, err := json.Marshal(orders); err == nil {
			h.rdb.Set(context.Background(), cacheKey, data, ordersCacheTTL)
		}
	}

	c.JSON(http.StatusOK, orders)
}

func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) ListAllOrders(c *gin.Context) {
	orders, err := h.orders.ListAllOrders(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) OrderAuditTrail(c *gin.Context) {
	entries, err := h.orders.AuditTrail(c.Request.Context(), c.Param("id"), 50)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if entries == nil {
		entries = []*mongoinfra.Entry{}
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order, err := h.orders.UpdateStatus(c.Request.Context(), ownerID(c), c.Param("id"), domain.OrderStatus(req.Status))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// respondError maps the checkout error taxonomy onto HTTP. Validation
// failures carry specific messages; conflicts tell the caller a retry is
// safe because nothing was committed; everything else is a generic 500.
func (h *Handler) respondError(c *gin.Context, err error) {
	var stockErr *domain.InsufficientStockError
	var unavailErr *domain.ProductUnavailableError

	switch {
	case errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrInvalidAddress),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, services.ErrInvalidProduct):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":     stockErr.Error(),
			"productId": stockErr.ProductID,
			"requested": stockErr.Requested,
			"available": stockErr.Available,
		})
	case errors.As(err, &unavailErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":     unavailErr.Error(),
			"productId": unavailErr.ProductID,
		})
	case errors.Is(err, domain.ErrTransactionConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":     "please try again",
			"retriable": true,
		})
	case errors.Is(err, domain.ErrOrderNotFound), errors.Is(err, domain.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidStatusTransition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrPersistenceFailure):
		h.logger.Error("storage failure", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "please try again"})
	default:
		h.logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "please try again"})
	}
}
