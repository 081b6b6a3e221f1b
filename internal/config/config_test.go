package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ALLOWED_ORIGIN", "")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "")
	t.Setenv("DASHBOARD_CACHE_TTL_SECONDS", "")
	t.Setenv("RECOMPUTE_DEBOUNCE_MS", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("unexpected address %q", cfg.Address())
	}
	if cfg.AccessTokenTTLMinutes != 480 {
		t.Fatalf("expected default token TTL 480, got %d", cfg.AccessTokenTTLMinutes)
	}
	if cfg.DashboardCacheTTLSeconds != 60 {
		t.Fatalf("expected default cache TTL 60, got %d", cfg.DashboardCacheTTLSeconds)
	}
	if cfg.RecomputeDebounceMillis != 250 {
		t.Fatalf("expected default debounce 250, got %d", cfg.RecomputeDebounceMillis)
	}
	if len(cfg.KafkaBrokers) != 0 {
		t.Fatalf("expected no brokers, got %v", cfg.KafkaBrokers)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "60")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092 ,")
	t.Setenv("AUTH_SECRET", "  super-secret  ")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected port 9090, got %q", cfg.Port)
	}
	if cfg.AccessTokenTTLMinutes != 60 {
		t.Fatalf("expected token TTL 60, got %d", cfg.AccessTokenTTLMinutes)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[0] != "broker-1:9092" || cfg.KafkaBrokers[1] != "broker-2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if cfg.AuthSecret != "super-secret" {
		t.Fatalf("expected trimmed secret, got %q", cfg.AuthSecret)
	}
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "not-a-number")
	t.Setenv("DASHBOARD_CACHE_TTL_SECONDS", "-5")

	cfg := Load()
	if cfg.AccessTokenTTLMinutes != 480 {
		t.Fatalf("expected fallback TTL 480, got %d", cfg.AccessTokenTTLMinutes)
	}
	if cfg.DashboardCacheTTLSeconds != 60 {
		t.Fatalf("expected fallback cache TTL 60, got %d", cfg.DashboardCacheTTLSeconds)
	}
}
