package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "travel-api", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "jwt", cfg.Auth.Mode)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, 2, cfg.Auth.MaxOwners)
	assert.Equal(t, "live", cfg.Payment.Gateway)
	assert.Equal(t, time.Hour, cfg.Exchange.CacheTTL)
	assert.Equal(t, 16000.0, cfg.Exchange.FallbackRates["IDR"])
	assert.Equal(t, 465, cfg.Mail.Port)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MAIL_ADMIN_EMAILS", "ops@example.com, finance@example.com,")
	t.Setenv("EXCHANGE_FALLBACK_RATES", "idr=15500, EUR=0.9")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("EXCHANGE_CACHE_TTL", "10m")
	t.Setenv("AUTH_CLIENT_SITE_URL", "https://tour.example.com")
	t.Setenv("AUTH_VERIFY_TTL", "30m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"ops@example.com", "finance@example.com"}, cfg.Mail.AdminEmails)
	assert.Equal(t, map[string]float64{"IDR": 15500, "EUR": 0.9}, cfg.Exchange.FallbackRates)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 10*time.Minute, cfg.Exchange.CacheTTL)
	assert.Equal(t, "https://tour.example.com", cfg.Auth.ClientSiteURL)
	assert.Equal(t, 30*time.Minute, cfg.Auth.VerifyTTL)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown auth mode", map[string]string{"AUTH_MODE": "oauth"}},
		{"default secret in production", map[string]string{"APP_ENVIRONMENT": "production"}},
		{"session auth without database", map[string]string{"AUTH_MODE": "session", "DATABASE_ENABLED": "false"}},
		{"bcrypt cost too low", map[string]string{"AUTH_BCRYPT_COST": "2"}},
		{"unknown gateway", map[string]string{"PAYMENT_GATEWAY": "bank"}},
		{"bad fallback rate", map[string]string{"EXCHANGE_FALLBACK_RATES": "IDR=abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
