package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/zemmon-store/internal/apperr"
	"github.com/01moynul/zemmon-store/internal/models"
)

//
// --- Product Handlers (Public) ---
//

// ListProducts is the handler for GET /api/products
func (h *Handlers) ListProducts(c *gin.Context) {
	filter := models.ProductFilter{Category: c.Query("category")}

	if raw := c.Query("bestSeller"); raw != "" {
		best, err := strconv.ParseBool(raw)
		if err != nil {
			h.respondError(c, badRequest("bestSeller must be true or false"))
			return
		}
		filter.BestSeller = &best
	}

	products, err := h.Catalog.ListProducts(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, apperr.Dependency("Failed to list products", err))
		return
	}
	if products == nil {
		products = []models.Product{}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "products": products})
}

// GetProduct is the handler for GET /api/products/:id
func (h *Handlers) GetProduct(c *gin.Context) {
	product, err := h.Catalog.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, apperr.Dependency("Failed to load product", err))
		return
	}
	if product == nil {
		h.respondError(c, apperr.ErrProductNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "product": product})
}
