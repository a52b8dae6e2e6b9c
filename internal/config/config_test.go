package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "APP_ENV", "STORE_DRIVER", "DB_DSN_PRIMARY", "CORS_ORIGIN", "PRODUCTS_SEED_FILE",
		"DELIVERY_FEE", "CURRENCY", "CHAPA_BASE_URL", "CHAPA_SECRET_KEY",
		"PAYMENT_CALLBACK_URL", "PAYMENT_RETURN_URL", "PAYMENT_TIMEOUT", "STRICT_STATUS_TRANSITIONS",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverMySQL, cfg.Driver)
	assert.True(t, cfg.DeliveryFee.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "ETB", cfg.Currency)
	assert.Equal(t, "https://api.chapa.co", cfg.ChapaBaseURL)
	assert.Equal(t, 15*time.Second, cfg.PaymentTimeout)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.False(t, cfg.StrictTransitions)
	assert.False(t, cfg.PaymentsEnabled())
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("DELIVERY_FEE", "12.50")
	t.Setenv("CORS_ORIGIN", "https://shop.example, https://admin.example ,")
	t.Setenv("CHAPA_BASE_URL", "https://chapa.test/")
	t.Setenv("CHAPA_SECRET_KEY", "sk")
	t.Setenv("STRICT_STATUS_TRANSITIONS", "true")
	t.Setenv("PAYMENT_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Driver)
	assert.True(t, cfg.DeliveryFee.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, []string{"https://shop.example", "https://admin.example"}, cfg.CORSOrigins)
	assert.Equal(t, "https://chapa.test", cfg.ChapaBaseURL)
	assert.True(t, cfg.PaymentsEnabled())
	assert.True(t, cfg.StrictTransitions)
	assert.Equal(t, 3*time.Second, cfg.PaymentTimeout)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string][2]string{
		"missing secret":  {"JWT_SECRET", ""},
		"bad port":        {"PORT", "http"},
		"bad driver":      {"STORE_DRIVER", "postgres"},
		"bad fee":         {"DELIVERY_FEE", "ten"},
		"negative fee":    {"DELIVERY_FEE", "-1"},
		"sub-cent fee":    {"DELIVERY_FEE", "10.005"},
		"bad strict flag": {"STRICT_STATUS_TRANSITIONS", "maybe"},
		"bad timeout":     {"PAYMENT_TIMEOUT", "soon"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv(kv[0], kv[1])

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
