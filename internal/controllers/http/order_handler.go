package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"orderflow/internal/domain"
	"orderflow/internal/middleware"
	"orderflow/internal/services"
)

// OrderHandler serves the end-user order surface.
type OrderHandler struct {
	checkout *services.CheckoutService
	orders   *services.OrderService
}

func NewOrderHandler(checkout *services.CheckoutService, orders *services.OrderService) *OrderHandler {
	return &OrderHandler{checkout: checkout, orders: orders}
}

func (h *OrderHandler) Register(r gin.IRoutes) {
	r.POST("/order", h.CreateOrder)
	r.GET("/orders", h.ListOrders)
	r.GET("/order/:id", h.GetOrder)
	r.POST("/order/:id/cancel", h.CancelOrder)
	r.GET("/order/:id/track", h.TrackOrder)
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Order details are mandatory.", "error": err.Error()})
		return
	}

	order, err := h.checkout.CreateOrder(c.Request.Context(), middleware.UserID(c), req.Address())
	if err != nil {
		var vErr *domain.ValidationError
		var uErr *domain.UnavailableProductsError
		switch {
		case errors.As(err, &vErr):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Validation failed.", "errors": vErr.Violations})
		case errors.As(err, &uErr):
			c.JSON(http.StatusBadRequest, gin.H{
				"message":             "Some products in your cart are no longer available.",
				"unavailableProducts": uErr.ProductIDs,
			})
		case errors.Is(err, domain.ErrCartEmpty):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Cart is empty. Add products to your cart before placing an order."})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create order."})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Order created successfully. Proceed to payment.",
		"order":    order,
		"nextStep": "payment",
	})
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	orders, pagination, err := h.orders.ListOrders(c.Request.Context(), middleware.UserID(c), c.Query("status"), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch orders."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pagination": pagination, "orders": orders})
}

func orderIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid or missing order id."})
		return 0, false
	}
	return id, true
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}
	order, err := h.orders.GetOrder(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Order not found or does not belong to you."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch order."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}
	err := h.orders.CancelOrder(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		var conflict *domain.StateConflictError
		switch {
		case errors.Is(err, domain.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "Order not found or does not belong to you."})
		case errors.As(err, &conflict):
			c.JSON(http.StatusConflict, gin.H{
				"message": "Cannot cancel order with status: " + string(conflict.Current) + ". Only pending orders can be cancelled.",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to cancel order."})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled successfully.", "orderId": id})
}

func (h *OrderHandler) TrackOrder(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}
	view, err := h.orders.TrackOrder(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Order not found."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch tracking information."})
		return
	}
	c.JSON(http.StatusOK, view)
}
