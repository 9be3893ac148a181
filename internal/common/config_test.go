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
	if cfg.Clients.Kite.Endpoint != "https://mcp.kite.trade/sse" {
		t.Errorf("Kite.Endpoint default = %q", cfg.Clients.Kite.Endpoint)
	}
	if cfg.Clients.Kite.Retries != 3 {
		t.Errorf("Kite.Retries default = %d, want 3", cfg.Clients.Kite.Retries)
	}
	if cfg.Clients.Kite.Backoff != 1.5 {
		t.Errorf("Kite.Backoff default = %v, want 1.5", cfg.Clients.Kite.Backoff)
	}
}

func TestConfig_PortEnvOverride(t *testing.T) {
	t.Setenv("INVESTR_PORT", "9090")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d after env override, want %d", cfg.Server.Port, 9090)
	}
}

func TestConfig_EndpointEnvOverrides(t *testing.T) {
	t.Setenv("MCP_SSE_URL", "https://broker.example/sse")
	t.Setenv("API_BASE_URL", "https://financials.example")
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Clients.Kite.Endpoint != "https://broker.example/sse" {
		t.Errorf("Kite.Endpoint = %q after env override", cfg.Clients.Kite.Endpoint)
	}
	if cfg.Clients.Screener.BaseURL != "https://financials.example" {
		t.Errorf("Screener.BaseURL = %q after env override", cfg.Clients.Screener.BaseURL)
	}
	if cfg.Clients.Gemini.APIKey != "test-key" {
		t.Errorf("Gemini.APIKey = %q after env override", cfg.Clients.Gemini.APIKey)
	}
}

func TestLoadConfig_FileMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "investr.toml")
	content := `
environment = "production"

[server]
port = 9999

[clients.kite]
retries = 5
base_delay = "250ms"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if !cfg.IsProduction() {
		t.Error("expected production environment")
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Clients.Kite.Retries != 5 {
		t.Errorf("Kite.Retries = %d, want 5", cfg.Clients.Kite.Retries)
	}
	if got := cfg.Clients.Kite.GetBaseDelay(); got != 250*time.Millisecond {
		t.Errorf("Kite.GetBaseDelay() = %v, want 250ms", got)
	}
	// Untouched keys keep their defaults.
	if cfg.Clients.Kite.Endpoint != "https://mcp.kite.trade/sse" {
		t.Errorf("Kite.Endpoint = %q, want default", cfg.Clients.Kite.Endpoint)
	}
}

func TestLoadConfig_MissingFileIsSkipped(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/investr.toml")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want default 8080", cfg.Server.Port)
	}
}

func TestKiteConfig_DurationFallbacks(t *testing.T) {
	cfg := KiteConfig{BaseDelay: "garbage", Timeout: ""}
	if got := cfg.GetBaseDelay(); got != time.Second {
		t.Errorf("GetBaseDelay() = %v, want 1s fallback", got)
	}
	if got := cfg.GetTimeout(); got != 30*time.Second {
		t.Errorf("GetTimeout() = %v, want 30s fallback", got)
	}
}
