package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port default = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Assistant.FreeDailyQuota != 5 {
		t.Errorf("Assistant.FreeDailyQuota default = %d, want 5", cfg.Assistant.FreeDailyQuota)
	}
	if cfg.Assistant.USDIDRRate != 16000 {
		t.Errorf("Assistant.USDIDRRate default = %v, want 16000", cfg.Assistant.USDIDRRate)
	}
	if got := cfg.Auth.GetTokenTTL(); got != 24*time.Hour {
		t.Errorf("Auth.GetTokenTTL default = %v, want 24h", got)
	}
}

func TestConfig_PortEnvOverride(t *testing.T) {
	t.Setenv("FINASSIST_PORT", "9090")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d after env override, want %d", cfg.Server.Port, 9090)
	}
}

func TestConfig_JWTSecretEnvOverride(t *testing.T) {
	t.Setenv("FINASSIST_JWT_SECRET", "env-secret")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Auth.JWTSecret != "env-secret" {
		t.Errorf("Auth.JWTSecret = %q after env override", cfg.Auth.JWTSecret)
	}
}

func TestConfig_USDIDRRateEnvIgnoresInvalid(t *testing.T) {
	t.Setenv("FINASSIST_USD_IDR_RATE", "not-a-number")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Assistant.USDIDRRate != 16000 {
		t.Errorf("Assistant.USDIDRRate = %v, want default retained", cfg.Assistant.USDIDRRate)
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "finassist.toml")
	content := `
[server]
port = 9191

[assistant]
free_daily_quota = 10
quote_refresh = "*/5 * * * *"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("Server.Port = %d, want 9191", cfg.Server.Port)
	}
	if cfg.Assistant.FreeDailyQuota != 10 {
		t.Errorf("Assistant.FreeDailyQuota = %d, want 10", cfg.Assistant.FreeDailyQuota)
	}
	if cfg.Assistant.QuoteRefresh != "*/5 * * * *" {
		t.Errorf("Assistant.QuoteRefresh = %q", cfg.Assistant.QuoteRefresh)
	}
	// Untouched sections keep their defaults
	if cfg.Storage.Path != "data/finassist" {
		t.Errorf("Storage.Path = %q, want default", cfg.Storage.Path)
	}
}

func TestLoadConfig_MissingFileSkipped(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/finassist.toml")
	if err != nil {
		t.Fatalf("LoadConfig with missing file: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want default", cfg.Server.Port)
	}
}

func TestEODHDConfig_TimeoutFallback(t *testing.T) {
	c := &EODHDConfig{Timeout: "bogus"}
	if got := c.GetTimeout(); got != 30*time.Second {
		t.Errorf("GetTimeout = %v, want 30s fallback", got)
	}
	c.Timeout = "5s"
	if got := c.GetTimeout(); got != 5*time.Second {
		t.Errorf("GetTimeout = %v, want 5s", got)
	}
}

func TestIsProduction(t *testing.T) {
	cfg := &Config{Environment: "Production"}
	if !cfg.IsProduction() {
		t.Error("expected production")
	}
	cfg.Environment = "development"
	if cfg.IsProduction() {
		t.Error("expected non-production")
	}
}
