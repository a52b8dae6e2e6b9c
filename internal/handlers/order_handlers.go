package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/zemmon-store/internal/middleware"
	"github.com/01moynul/zemmon-store/internal/orders"
)

//
// --- Order Handlers (Login Required) ---
//

// PlaceOrder is the handler for POST /api/orders
func (h *Handlers) PlaceOrder(c *gin.Context) {
	// 1. --- Get caller ---
	p := middleware.PrincipalFrom(c)

	// 2. --- Bind order ---
	var input orders.PlaceOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.respondError(c, badRequest("Invalid order payload"))
		return
	}

	// 3. --- Place it ---
	placed, err := h.Orders.PlaceOrder(c.Request.Context(), p, input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := gin.H{"success": true, "message": "Order placed", "order": placed.Order}
	if placed.PaymentURL != "" {
		resp["paymentUrl"] = placed.PaymentURL
	}
	if placed.PaymentError != "" {
		resp["paymentError"] = placed.PaymentError
	}
	c.JSON(http.StatusCreated, resp)
}

// PayOrder is the handler for POST /api/orders/:id/pay
func (h *Handlers) PayOrder(c *gin.Context) {
	p := middleware.PrincipalFrom(c)

	placed, err := h.Orders.InitiatePayment(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "order": placed.Order, "paymentUrl": placed.PaymentURL})
}

// GetMyOrders is the handler for GET /api/orders
func (h *Handlers) GetMyOrders(c *gin.Context) {
	p := middleware.PrincipalFrom(c)

	list, err := h.Orders.ListUserOrders(c.Request.Context(), p)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "orders": list})
}

// GetOrderDetails is the handler for GET /api/orders/:id
func (h *Handlers) GetOrderDetails(c *gin.Context) {
	p := middleware.PrincipalFrom(c)

	order, err := h.Orders.GetOrder(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

// GetOrderStatus is the handler for GET /api/orders/:id/status
func (h *Handlers) GetOrderStatus(c *gin.Context) {
	p := middleware.PrincipalFrom(c)

	status, err := h.Orders.GetOrderStatus(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "orderId": c.Param("id"), "status": status})
}
