package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/01moynul/zemmon-store/internal/models"
)

// Store drivers accepted in STORE_DRIVER.
const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// Config is the application configuration read from the environment.
type Config struct {
	Port   string
	Env    string
	Driver string
	DSN    string

	JWTSecret   string
	CORSOrigins []string

	ProductsSeedFile string

	DeliveryFee       decimal.Decimal
	Currency          string
	StrictTransitions bool

	ChapaBaseURL       string
	ChapaSecretKey     string
	PaymentCallbackURL string
	PaymentReturnURL   string
	PaymentTimeout     time.Duration
}

// Load reads the configuration from the environment. Call godotenv.Load
// first if a .env file should be honoured.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("APP_ENV", "development"),
		Driver:             strings.ToLower(getEnv("STORE_DRIVER", DriverMySQL)),
		DSN:                getEnv("DB_DSN_PRIMARY", "root:root@tcp(127.0.0.1:3306)/zemmon_store?parseTime=true"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		CORSOrigins:        splitList(getEnv("CORS_ORIGIN", "http://localhost:3000")),
		ProductsSeedFile:   os.Getenv("PRODUCTS_SEED_FILE"),
		Currency:           getEnv("CURRENCY", "ETB"),
		ChapaBaseURL:       strings.TrimRight(getEnv("CHAPA_BASE_URL", "https://api.chapa.co"), "/"),
		ChapaSecretKey:     os.Getenv("CHAPA_SECRET_KEY"),
		PaymentCallbackURL: os.Getenv("PAYMENT_CALLBACK_URL"),
		PaymentReturnURL:   os.Getenv("PAYMENT_RETURN_URL"),
	}

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return nil, fmt.Errorf("invalid PORT %q: %w", cfg.Port, err)
	}

	if cfg.Driver != DriverMySQL && cfg.Driver != DriverMemory {
		return nil, fmt.Errorf("invalid STORE_DRIVER %q (want %s or %s)", cfg.Driver, DriverMySQL, DriverMemory)
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is not set")
	}

	fee, err := decimal.NewFromString(getEnv("DELIVERY_FEE", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid DELIVERY_FEE: %w", err)
	}
	if !models.IsMoney(fee) {
		return nil, fmt.Errorf("DELIVERY_FEE %s must be non-negative with at most %d decimals", fee, models.MoneyPlaces)
	}
	cfg.DeliveryFee = fee

	strict, err := strconv.ParseBool(getEnv("STRICT_STATUS_TRANSITIONS", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid STRICT_STATUS_TRANSITIONS: %w", err)
	}
	cfg.StrictTransitions = strict

	timeout, err := time.ParseDuration(getEnv("PAYMENT_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYMENT_TIMEOUT: %w", err)
	}
	cfg.PaymentTimeout = timeout

	return cfg, nil
}

// PaymentsEnabled reports whether online payment can be offered.
func (c *Config) PaymentsEnabled() bool {
	return c.ChapaSecretKey != ""
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
