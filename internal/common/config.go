// Package common provides shared configuration and logging for InvestR
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for InvestR
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Clients     ClientsConfig `toml:"clients"`
	Thesis      ThesisConfig  `toml:"thesis"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	FrontendOrigin string `toml:"frontend_origin"` // CORS origin for the web UI
}

// ClientsConfig holds external client configurations
type ClientsConfig struct {
	Kite       KiteConfig       `toml:"kite"`
	MarketData MarketDataConfig `toml:"marketdata"`
	Screener   ScreenerConfig   `toml:"screener"`
	Gemini     GeminiConfig     `toml:"gemini"`
}

// KiteConfig holds the broker MCP session configuration
type KiteConfig struct {
	Endpoint  string            `toml:"endpoint"`
	Transport string            `toml:"transport"` // "sse" or "http" (streamable)
	Headers   map[string]string `toml:"headers"`
	Retries   int               `toml:"retries"`
	BaseDelay string            `toml:"base_delay"` // first retry delay, duration string
	Backoff   float64           `toml:"backoff"`    // multiplier applied per attempt
	Timeout   string            `toml:"timeout"`
}

// GetBaseDelay parses and returns the base retry delay
func (c *KiteConfig) GetBaseDelay() time.Duration {
	d, err := time.ParseDuration(c.BaseDelay)
	if err != nil {
		return time.Second
	}
	return d
}

// GetTimeout parses and returns the per-call timeout duration
func (c *KiteConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// MarketDataConfig holds the historical price API configuration
type MarketDataConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *MarketDataConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// ScreenerConfig holds the financial statements API configuration
type ScreenerConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *ScreenerConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// ThesisConfig holds thesis generation and lookup configuration
type ThesisConfig struct {
	ArticlesDir    string `toml:"articles_dir"`     // company KB markdown articles
	ReportsDir     string `toml:"reports_dir"`      // generated thesis documents
	StageTwoPrompt string `toml:"stage_two_prompt"` // optional path overriding the embedded prompt
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string `toml:"level"`
	FilePath string `toml:"file_path"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			FrontendOrigin: "http://localhost:5173",
		},
		Clients: ClientsConfig{
			Kite: KiteConfig{
				Endpoint:  "https://mcp.kite.trade/sse",
				Transport: "sse",
				Retries:   3,
				BaseDelay: "1s",
				Backoff:   1.5,
				Timeout:   "30s",
			},
			MarketData: MarketDataConfig{
				BaseURL:   "https://query1.finance.yahoo.com",
				RateLimit: 5,
				Timeout:   "30s",
			},
			Screener: ScreenerConfig{
				BaseURL:   "https://api-indian-financial-markets-485071544262.asia-south1.run.app",
				RateLimit: 5,
				Timeout:   "30s",
			},
			Gemini: GeminiConfig{
				Model: "gemini-2.5-flash",
			},
		},
		Thesis: ThesisConfig{
			ArticlesDir: "data/articles",
			ReportsDir:  "data/reports",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// Later files override earlier ones; missing files are skipped.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("INVESTR_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("INVESTR_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("INVESTR_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if origin := os.Getenv("FRONTEND_ORIGIN"); origin != "" {
		config.Server.FrontendOrigin = origin
	}

	if level := os.Getenv("INVESTR_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	// The MCP endpoint keeps its historical variable name so existing
	// deployments carry over without changes.
	if url := os.Getenv("MCP_SSE_URL"); url != "" {
		config.Clients.Kite.Endpoint = url
	}

	if url := os.Getenv("API_BASE_URL"); url != "" {
		config.Clients.Screener.BaseURL = url
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.Clients.Gemini.APIKey = key
	}

	if dir := os.Getenv("INVESTR_ARTICLES_DIR"); dir != "" {
		config.Thesis.ArticlesDir = dir
	}

	if dir := os.Getenv("INVESTR_REPORTS_DIR"); dir != "" {
		config.Thesis.ReportsDir = dir
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
