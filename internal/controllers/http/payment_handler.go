package http

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"orderflow/internal/domain"
	"orderflow/internal/middleware"
	"orderflow/internal/services"
)

// PaymentHandler serves payment initiation and the gateway's callbacks.
// Callback routes carry no user auth; the hash protocol authenticates them.
type PaymentHandler struct {
	payments *services.PaymentService
}

func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// RegisterUser mounts the authenticated endpoints.
func (h *PaymentHandler) RegisterUser(r gin.IRoutes) {
	r.POST("/payment/create-order", h.CreatePayment)
	r.POST("/payment/verify-payment", h.VerifyPayment)
}

// RegisterCallbacks mounts the gateway-invoked endpoints. Gateways have
// been observed using both verbs, so both are accepted on each path.
func (h *PaymentHandler) RegisterCallbacks(r gin.IRoutes) {
	r.POST("/payment/callback-success", h.Callback)
	r.GET("/payment/callback-success", h.Callback)
	r.POST("/payment/callback-failure", h.Callback)
	r.GET("/payment/callback-failure", h.Callback)
}

func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Order ID is required."})
		return
	}

	form, err := h.payments.CreatePayment(c.Request.Context(), middleware.UserID(c), req.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "Order not found."})
		case errors.Is(err, domain.ErrAlreadyPaid):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Order is already paid."})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create payment order."})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment order created successfully.",
		"payment": form,
	})
}

// Callback verifies an inbound gateway callback and always answers with a
// redirect to the frontend, whatever happened.
func (h *PaymentHandler) Callback(c *gin.Context) {
	redirect := h.payments.HandleCallback(c.Request.Context(), callbackValues(c))
	c.Redirect(http.StatusFound, redirect)
}

// callbackValues merges form body and query string; gateways have sent the
// payload in either place.
func callbackValues(c *gin.Context) url.Values {
	values := url.Values{}
	if err := c.Request.ParseForm(); err == nil {
		for k, vs := range c.Request.PostForm {
			for _, v := range vs {
				values.Add(k, v)
			}
		}
	}
	for k, vs := range c.Request.URL.Query() {
		if values.Get(k) != "" {
			continue
		}
		for _, v := range vs {
			values.Add(k, v)
		}
	}
	return values
}

func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Order ID is required."})
		return
	}

	result, err := h.payments.VerifyPayment(c.Request.Context(), middleware.UserID(c), req.OrderID, req.TxnID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Order not found for verification."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to verify payment."})
		return
	}
	c.JSON(http.StatusOK, result)
}
