package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/01moynul/zemmon-store/internal/auth"
	"github.com/01moynul/zemmon-store/internal/handlers"
	"github.com/01moynul/zemmon-store/internal/middleware"
)

// CORSMiddleware allows the storefront and admin frontends to call the API
// with bearer tokens.
func CORSMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

func SetupRouter(h *handlers.Handlers, tokens *auth.TokenManager, log *zap.Logger, origins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))

	// --- APPLY THE CORS GUARD ---
	router.Use(CORSMiddleware(origins))

	api := router.Group("/api")
	{
		// --- Ping Route (Public) ---
		api.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})

		// --- Public Product Routes ---
		api.GET("/products", h.ListProducts)
		api.GET("/products/:id", h.GetProduct)

		// --- Payment Gateway Callback (Public, verified server-side) ---
		api.GET("/payment/callback", h.PaymentCallback)

		// --- Protected Routes (Login Required) ---
		user := api.Group("/")
		user.Use(middleware.AuthMiddleware(tokens))
		{
			user.GET("/cart", h.GetCart)
			user.POST("/cart/items", h.AddToCart)
			user.PUT("/cart/items", h.UpdateCartItem)

			user.POST("/orders", h.PlaceOrder)
			user.GET("/orders", h.GetMyOrders)
			user.GET("/orders/:id", h.GetOrderDetails)
			user.GET("/orders/:id/status", h.GetOrderStatus)
			user.POST("/orders/:id/pay", h.PayOrder)
		}

		// --- Admin-Only Routes ---
		admin := api.Group("/admin")
		admin.Use(middleware.AuthMiddleware(tokens))
		admin.Use(middleware.AdminMiddleware())
		{
			admin.GET("/orders", h.GetAllOrders)
			admin.PUT("/orders/:id/status", h.UpdateOrderStatus)
			admin.PUT("/orders/:id/items/status", h.UpdateOrderItemStatus)
		}
	}

	return router
}
