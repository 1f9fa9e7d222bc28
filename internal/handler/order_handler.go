package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront-backend/internal/service"
	"storefront-backend/pkg/logger"
)

type OrderHandler struct {
	orderService service.OrderServiceInterface
	logger       *logger.Logger
}

func NewOrderHandler(orderService service.OrderServiceInterface, log *logger.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       log.WithComponent("order_handler"),
	}
}

// CreateOrder handles POST /api/orders. Runs behind OptionalAuth and
// RateLimit; an absent user id means a guest order.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body for create order", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var userID *int64
	if id, ok := currentUserID(c); ok {
		userID = &id
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), userID, req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"order": order})
}

// GetOrderHistory handles GET /api/orders/history?page=&limit=
func (h *OrderHandler) GetOrderHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "10"), 10, 64)

	orders, pagination, err := h.orderService.GetOrderHistory(c.Request.Context(), userID, page, limit)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders, "pagination": pagination})
}

// GetOrder handles GET /api/orders/:id, scoped to the authenticated
// owner. An order owned by someone else reads as 404.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	order, err := h.orderService.GetOrderByID(c.Request.Context(), id, &userID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// LookupGuestOrder handles GET /api/orders/lookup?code=&email= for
// orders placed without an account.
func (h *OrderHandler) LookupGuestOrder(c *gin.Context) {
	code := c.Query("code")
	email := c.Query("email")

	order, err := h.orderService.LookupGuestOrder(c.Request.Context(), code, email)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}
