package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/01moynul/zemmon-store/internal/auth"
	"github.com/01moynul/zemmon-store/internal/cart"
	"github.com/01moynul/zemmon-store/internal/config"
	"github.com/01moynul/zemmon-store/internal/database"
	"github.com/01moynul/zemmon-store/internal/handlers"
	"github.com/01moynul/zemmon-store/internal/logger"
	"github.com/01moynul/zemmon-store/internal/orders"
	"github.com/01moynul/zemmon-store/internal/payment"
	"github.com/01moynul/zemmon-store/internal/routes"
	"github.com/01moynul/zemmon-store/internal/store"
	"github.com/01moynul/zemmon-store/internal/store/memstore"
)

// backend is everything the services need from persistence.
type backend interface {
	cart.Store
	cart.Catalog
	orders.Store
	handlers.ProductCatalog
	store.ProductWriter
}

func main() {
	// 0. --- Load Environment Variables (.env) ---
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logg, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logg.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	decimal.MarshalJSONWithoutQuotes = true

	ctx := context.Background()

	// 1. --- Persistence ---
	var db backend
	switch cfg.Driver {
	case config.DriverMemory:
		logg.Warn("using in-memory store, data is lost on restart")
		db = memstore.New()
	default:
		conn, err := database.OpenDB(ctx, cfg.DSN)
		if err != nil {
			logg.Fatal("failed to connect to primary database", zap.Error(err))
		}
		defer conn.Close()

		if err := database.Migrate(ctx, conn); err != nil {
			logg.Fatal("failed to migrate database", zap.Error(err))
		}
		db = store.New(conn)
	}

	// 2. --- Catalog seed ---
	if cfg.ProductsSeedFile != "" {
		products, err := store.LoadProducts(cfg.ProductsSeedFile, time.Now())
		if err != nil {
			logg.Fatal("failed to load product seed", zap.Error(err))
		}
		n, err := store.Seed(ctx, db, products)
		if err != nil {
			logg.Fatal("failed to seed products", zap.Error(err))
		}
		logg.Info("catalog seeded", zap.Int("products", n))
	}

	// 3. --- Payment gateway ---
	var gateway orders.Gateway
	if cfg.PaymentsEnabled() {
		gateway = payment.NewChapaClient(cfg.ChapaBaseURL, cfg.ChapaSecretKey, cfg.PaymentTimeout, logg.Named("chapa"))
	} else {
		logg.Warn("CHAPA_SECRET_KEY not set, online payment disabled")
	}

	// --- Application Setup ---
	app := &handlers.Handlers{
		Cart: cart.NewService(db, db, logg.Named("cart")),
		Orders: orders.NewService(db, db, gateway, orders.Config{
			DeliveryFee:       cfg.DeliveryFee,
			Currency:          cfg.Currency,
			CallbackURL:       cfg.PaymentCallbackURL,
			ReturnURL:         cfg.PaymentReturnURL,
			StrictTransitions: cfg.StrictTransitions,
		}, logg.Named("orders")),
		Catalog: db,
		Log:     logg,
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret)
	router := routes.SetupRouter(app, tokens, logg, cfg.CORSOrigins)

	// --- Start Server with Graceful Shutdown ---
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logg.Info("server starting", zap.String("port", cfg.Port), zap.String("driver", cfg.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("server failed to listen and serve", zap.Error(err))
		}
	}()

	<-stop
	logg.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error("server shutdown failed", zap.Error(err))
		return
	}
	logg.Info("server exited")
}
