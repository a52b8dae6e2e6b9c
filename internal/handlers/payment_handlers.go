package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PaymentCallback is the handler for GET /api/payment/callback. It is public:
// the gateway calls it, and the outcome is verified server-side before any
// status change.
func (h *Handlers) PaymentCallback(c *gin.Context) {
	reference := c.Query("tx_ref")
	if reference == "" {
		reference = c.Query("trx_ref")
	}

	order, err := h.Orders.HandlePaymentCallback(c.Request.Context(), reference, c.Query("status"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "orderId": order.ID, "status": order.Status})
}
