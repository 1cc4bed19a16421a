package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"orderflow/internal/domain"
	"orderflow/internal/services"
)

// AdminHandler serves the operator surface: status transitions, manual
// shipment provisioning and carrier lookups.
type AdminHandler struct {
	orders    *services.OrderService
	shipments *services.ShipmentService
}

func NewAdminHandler(orders *services.OrderService, shipments *services.ShipmentService) *AdminHandler {
	return &AdminHandler{orders: orders, shipments: shipments}
}

func (h *AdminHandler) Register(r gin.IRoutes) {
	r.GET("/admin/orders", h.ListOrders)
	r.PUT("/admin/order/:id/status", h.UpdateStatus)
	r.POST("/admin/shipment/create", h.CreateShipment)
	r.GET("/admin/shipment/track/:awb", h.TrackShipment)
	r.POST("/admin/shipment/cancel/:awb", h.CancelShipment)
	r.GET("/admin/shipment/label/:awb", h.ShipmentLabel)
	r.GET("/admin/shipment/serviceability/:pincode", h.Serviceability)
}

func (h *AdminHandler) ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	orders, pagination, err := h.orders.ListAllOrders(c.Request.Context(), c.Query("status"), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "pagination": pagination, "orders": orders})
}

func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "status is required"})
		return
	}

	err := h.orders.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		var invalid *domain.InvalidStatusError
		switch {
		case errors.As(err, &invalid):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": invalid.Error()})
		case errors.Is(err, domain.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Order not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to update order status"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orderId": id, "status": req.Status})
}

func (h *AdminHandler) CreateShipment(c *gin.Context) {
	var req CreateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "orderId is required"})
		return
	}

	result := h.shipments.CreateOrderShipment(c.Request.Context(), req.OrderID, services.ShipmentOptions{
		FetchWaybill: req.FetchWaybill,
		WeightGrams:  req.WeightGrams,
	})
	if !result.Success {
		c.JSON(http.StatusBadRequest, result)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *AdminHandler) TrackShipment(c *gin.Context) {
	awb := c.Param("awb")
	if awb == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "waybill is required"})
		return
	}
	tracking, err := h.shipments.Track(c.Request.Context(), awb)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "Failed to track shipment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "tracking": tracking})
}

func (h *AdminHandler) CancelShipment(c *gin.Context) {
	awb := c.Param("awb")
	if awb == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "waybill is required"})
		return
	}
	if err := h.shipments.CancelShipment(c.Request.Context(), awb); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "Failed to cancel shipment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Shipment cancelled"})
}

func (h *AdminHandler) ShipmentLabel(c *gin.Context) {
	awb := c.Param("awb")
	if awb == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "waybill is required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "labelUrl": h.shipments.LabelURL(awb)})
}

func (h *AdminHandler) Serviceability(c *gin.Context) {
	pincode := c.Param("pincode")
	sv, err := h.shipments.Serviceability(c.Request.Context(), pincode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"serviceable": sv.Serviceable,
		"prepaid":     sv.Prepaid,
		"cod":         sv.COD,
	})
}
