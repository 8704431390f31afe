package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LLM_API_KEY", "sk-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("unexpected port: %q", cfg.Port)
	}
	if cfg.Extract.Model == "" || cfg.Extract.MaxRetries != 3 {
		t.Errorf("unexpected extract defaults: %+v", cfg.Extract)
	}
	if cfg.StaleSessionTTL != 24*time.Hour {
		t.Errorf("unexpected stale TTL: %v", cfg.StaleSessionTTL)
	}
	if !cfg.Audit.Enabled || cfg.Audit.QueueSize != 64 {
		t.Errorf("unexpected audit defaults: %+v", cfg.Audit)
	}
	if cfg.Timeout.ProvisionStep != 30*time.Second {
		t.Errorf("unexpected provision step timeout: %v", cfg.Timeout.ProvisionStep)
	}
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("PORT", "9090")
	t.Setenv("STALE_SESSION_TTL", "2h")
	t.Setenv("RATE_LIMIT_REQUESTS", "5")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LLM_TEMPERATURE", "0.7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "9090" || cfg.StaleSessionTTL != 2*time.Hour {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.RateLimit.RequestsPerWindow != 5 {
		t.Errorf("rate limit override not applied: %+v", cfg.RateLimit)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("origin list not parsed: %v", cfg.AllowedOrigins)
	}
	if cfg.Extract.Temperature != 0.7 {
		t.Errorf("temperature override not applied: %v", cfg.Extract.Temperature)
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("FLAG", "yes")
	if !getEnvBool("FLAG", false) {
		t.Error("expected yes to parse as true")
	}
	t.Setenv("FLAG", "junk")
	if getEnvBool("FLAG", false) {
		t.Error("expected junk to fall back")
	}
}
