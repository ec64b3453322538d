package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/bentansusanto/travel-api/pkg/config"
)

func getTestConfig() *Config {
	cfg := DefaultConfig()

	if host := os.Getenv("TEST_REDIS_HOST"); host != "" {
		cfg.Host = host
	}
	if password := os.Getenv("TEST_REDIS_PASSWORD"); password != "" {
		cfg.Password = password
	}

	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Host != "localhost" {
		t.Errorf("Expected host 'localhost', got '%s'", cfg.Host)
	}
	if cfg.Port != 6379 {
		t.Errorf("Expected port 6379, got %d", cfg.Port)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("Expected max retries 3, got %d", cfg.MaxRetries)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(config.RedisConfig{
		Host:     "cache.internal",
		Port:     6380,
		DB:       2,
		PoolSize: 0,
	})

	if cfg.Addr() != "cache.internal:6380" {
		t.Errorf("Expected addr 'cache.internal:6380', got '%s'", cfg.Addr())
	}
	if cfg.DB != 2 {
		t.Errorf("Expected DB 2, got %d", cfg.DB)
	}
	if cfg.PoolSize != 20 {
		t.Errorf("Expected default pool size 20 to survive a zero override, got %d", cfg.PoolSize)
	}
}

func TestNewClient_InvalidConfig(t *testing.T) {
	cfg := &Config{
		Host:          "invalid-host-that-does-not-exist",
		Port:          9999,
		MaxRetries:    0,
		RetryInterval: 100 * time.Millisecond,
		DialTimeout:   500 * time.Millisecond,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := NewClient(ctx, cfg); err == nil {
		t.Error("Expected error for invalid host, got nil")
	}
}

func TestClient_GetSetIntegration(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run")
	}

	ctx := context.Background()
	client, err := NewClient(ctx, getTestConfig())
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer client.Close()

	key := "test:travel-api:" + time.Now().Format("150405.000000")
	defer client.Del(ctx, key)

	if _, found, err := client.Get(ctx, key); err != nil || found {
		t.Fatalf("Expected missing key, got found=%v err=%v", found, err)
	}

	if err := client.Set(ctx, key, "16250.5", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	val, found, err := client.Get(ctx, key)
	if err != nil || !found || val != "16250.5" {
		t.Errorf("Expected '16250.5', got '%s' found=%v err=%v", val, found, err)
	}

	ok, err := client.SetNX(ctx, key, "other", time.Minute)
	if err != nil || ok {
		t.Errorf("Expected SetNX to refuse an existing key, got ok=%v err=%v", ok, err)
	}
}
