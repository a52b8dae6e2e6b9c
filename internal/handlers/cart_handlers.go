package handlers

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/zemmon-store/internal/middleware"
)

//
// --- Cart Handlers (Login Required) ---
//

// AddToCartInput defines the JSON for adding an item to the cart.
type AddToCartInput struct {
	ProductID string `json:"productId" binding:"required"`
	Size      string `json:"size" binding:"required"`
}

// UpdateCartInput defines the JSON for setting a line quantity. Quantity is
// decoded loosely so that "2" and 2 are both accepted.
type UpdateCartInput struct {
	ProductID string `json:"productId" binding:"required"`
	Size      string `json:"size" binding:"required"`
	Quantity  any    `json:"quantity"`
}

// GetCart is the handler for GET /api/cart
func (h *Handlers) GetCart(c *gin.Context) {
	p := middleware.PrincipalFrom(c)

	view, err := h.Cart.GetCart(c.Request.Context(), p.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "cart": view})
}

// AddToCart is the handler for POST /api/cart/items
func (h *Handlers) AddToCart(c *gin.Context) {
	p := middleware.PrincipalFrom(c)

	var input AddToCartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.respondError(c, badRequest("Product ID and size are required"))
		return
	}

	view, err := h.Cart.AddItem(c.Request.Context(), p.ID, input.ProductID, input.Size)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Added to cart", "cart": view})
}

// UpdateCartItem is the handler for PUT /api/cart/items
func (h *Handlers) UpdateCartItem(c *gin.Context) {
	p := middleware.PrincipalFrom(c)

	var input UpdateCartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.respondError(c, badRequest("Product ID and size are required"))
		return
	}

	view, err := h.Cart.SetQuantity(c.Request.Context(), p.ID, input.ProductID, input.Size, parseQuantity(input.Quantity))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Cart updated", "cart": view})
}

// parseQuantity returns NaN for anything that is not a number, which the
// cart service rejects.
func parseQuantity(v any) float64 {
	switch q := v.(type) {
	case float64:
		return q
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(q), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}
