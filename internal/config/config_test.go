package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PAYMENT_SWEEP_INTERVAL_SEC", "")
	t.Setenv("BOOKING_SWEEP_AT", "")

	cfg := Load()

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, "23:50", cfg.Sweeps.BookingSweepAt)
	assert.Equal(t, time.Minute, cfg.Sweeps.PaymentSweepInterval)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, "config/policy.csv", cfg.RBACPolicyPath)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PAYMENT_SWEEP_INTERVAL_SEC", "15")
	t.Setenv("DB_PORT", "not-a-number")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("ELASTICSEARCH_ENABLED", "true")

	cfg := Load()

	assert.Equal(t, 15*time.Second, cfg.Sweeps.PaymentSweepInterval)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.Elasticsearch.Enabled)
}
