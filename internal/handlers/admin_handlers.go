package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/zemmon-store/internal/middleware"
	"github.com/01moynul/zemmon-store/internal/models"
)

//
// --- Admin Order Handlers (Admin-Only) ---
//

// UpdateStatusInput defines the JSON for an order status change.
type UpdateStatusInput struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// UpdateItemStatusInput defines the JSON for an order item status change.
type UpdateItemStatusInput struct {
	ProductID string            `json:"productId" binding:"required"`
	Size      string            `json:"size" binding:"required"`
	Status    models.ItemStatus `json:"status" binding:"required"`
}

// GetAllOrders is the handler for GET /api/admin/orders
func (h *Handlers) GetAllOrders(c *gin.Context) {
	list, err := h.Orders.ListAllOrders(c.Request.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "orders": list})
}

// UpdateOrderStatus is the handler for PUT /api/admin/orders/:id/status
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	var input UpdateStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.respondError(c, badRequest("Status is required"))
		return
	}

	order, err := h.Orders.UpdateOrderStatus(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"), input.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Order status updated", "order": order})
}

// UpdateOrderItemStatus is the handler for PUT /api/admin/orders/:id/items/status
func (h *Handlers) UpdateOrderItemStatus(c *gin.Context) {
	var input UpdateItemStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.respondError(c, badRequest("Product ID, size and status are required"))
		return
	}

	order, err := h.Orders.UpdateItemStatus(c.Request.Context(), middleware.PrincipalFrom(c),
		c.Param("id"), input.ProductID, input.Size, input.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Item status updated", "order": order})
}
