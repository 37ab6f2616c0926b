package config

import (
	"reflect"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func TestDefaults(t *testing.T) {
	cfg := fromViper(newTestViper())

	if cfg.Server.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Server.Port)
	}
	if !cfg.Server.IsDevelopment() {
		t.Errorf("Expected development env by default, got %s", cfg.Server.Env)
	}
	if cfg.Database.Driver != DriverPostgres {
		t.Errorf("Expected postgres driver, got %s", cfg.Database.Driver)
	}
	if cfg.Database.ConnMaxLifetime != 5*time.Minute {
		t.Errorf("Expected 5m connection lifetime, got %s", cfg.Database.ConnMaxLifetime)
	}
	if cfg.RateLimit.Enabled {
		t.Error("Rate limiting should be disabled by default")
	}
	if cfg.PhoneRegistry.CheckTimeout != 10*time.Second ||
		cfg.PhoneRegistry.BulkTimeout != 60*time.Second ||
		cfg.PhoneRegistry.CleanupTimeout != 30*time.Second {
		t.Errorf("Unexpected registry timeouts: %+v", cfg.PhoneRegistry)
	}
	if cfg.Jobs.StatusRefreshSpec != "@every 1h" {
		t.Errorf("Unexpected status refresh spec %q", cfg.Jobs.StatusRefreshSpec)
	}
	if cfg.Jobs.PhoneCleanupSpec != "" {
		t.Errorf("Phone cleanup job should be off by default, got %q", cfg.Jobs.PhoneCleanupSpec)
	}
	if cfg.Jobs.PhoneCleanupDays != 90 {
		t.Errorf("Expected 90 cleanup days, got %d", cfg.Jobs.PhoneCleanupDays)
	}

	expectedOrigins := []string{"http://localhost:5173", "http://localhost:3000"}
	if !reflect.DeepEqual(cfg.CORS.Origins, expectedOrigins) {
		t.Errorf("Expected origins %v, got %v", expectedOrigins, cfg.CORS.Origins)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_DRIVER", "MEMORY")
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("PHONE_REGISTRY_URL", "http://registry.internal:8000/")
	t.Setenv("PHONE_REGISTRY_API_KEY", "secret")
	t.Setenv("CORS_ORIGINS", " https://a.example.com , ,https://b.example.com")

	cfg := fromViper(newTestViper())

	if cfg.Server.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Database.Driver != DriverMemory {
		t.Errorf("Expected memory driver, got %s", cfg.Database.Driver)
	}
	if !cfg.RateLimit.Enabled || cfg.RateLimit.Window != 30*time.Second {
		t.Errorf("Unexpected rate limit config: %+v", cfg.RateLimit)
	}
	if cfg.PhoneRegistry.URL != "http://registry.internal:8000" {
		t.Errorf("Trailing slash should be trimmed, got %s", cfg.PhoneRegistry.URL)
	}
	if cfg.PhoneRegistry.APIKey != "secret" {
		t.Errorf("Expected api key from env, got %q", cfg.PhoneRegistry.APIKey)
	}

	expectedOrigins := []string{"https://a.example.com", "https://b.example.com"}
	if !reflect.DeepEqual(cfg.CORS.Origins, expectedOrigins) {
		t.Errorf("Expected origins %v, got %v", expectedOrigins, cfg.CORS.Origins)
	}
}

func TestRedisAddr(t *testing.T) {
	r := RedisConfig{Host: "cache", Port: "6380"}
	if r.Addr() != "cache:6380" {
		t.Errorf("Expected cache:6380, got %s", r.Addr())
	}
}
