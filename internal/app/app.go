// Package app wires configuration, clients, and services into one unit
// shared by the server entry point and tests.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/investrlabs/investr/internal/clients/gemini"
	"github.com/investrlabs/investr/internal/clients/kite"
	"github.com/investrlabs/investr/internal/clients/marketdata"
	"github.com/investrlabs/investr/internal/clients/screener"
	"github.com/investrlabs/investr/internal/common"
	"github.com/investrlabs/investr/internal/interfaces"
	"github.com/investrlabs/investr/internal/services/portfolio"
	"github.com/investrlabs/investr/internal/services/thesis"
)

// App holds all initialized clients and services.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	SessionManager   interfaces.SessionManager
	MarketDataClient interfaces.MarketDataClient
	ScreenerClient   interfaces.ScreenerClient
	GeminiClient     interfaces.GeminiClient
	PortfolioService interfaces.PortfolioService
	ThesisService    interfaces.ThesisService
	StartupTime      time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, logging, clients, and services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	// Load configuration - check provided path, INVESTR_CONFIG, then
	// binary dir, then fallback for development
	if configPath == "" {
		configPath = os.Getenv("INVESTR_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "investr.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/investr.toml"
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	sessionManager := kite.NewManager(config.Clients.Kite,
		kite.WithLogger(logger),
	)

	marketDataClient := marketdata.NewClient(
		marketdata.WithBaseURL(config.Clients.MarketData.BaseURL),
		marketdata.WithLogger(logger),
		marketdata.WithRateLimit(config.Clients.MarketData.RateLimit),
		marketdata.WithTimeout(config.Clients.MarketData.GetTimeout()),
	)

	screenerClient := screener.NewClient(config.Clients.Screener.BaseURL,
		screener.WithLogger(logger),
		screener.WithRateLimit(config.Clients.Screener.RateLimit),
		screener.WithTimeout(config.Clients.Screener.GetTimeout()),
	)

	var geminiClient interfaces.GeminiClient
	if config.Clients.Gemini.APIKey != "" {
		client, err := gemini.NewClient(context.Background(), config.Clients.Gemini.APIKey,
			gemini.WithLogger(logger),
			gemini.WithModel(config.Clients.Gemini.Model),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Gemini client")
		} else {
			geminiClient = client
		}
	} else {
		logger.Warn().Msg("Gemini API key not configured - thesis generation will be unavailable")
	}

	portfolioService := portfolio.NewService(sessionManager, logger)
	thesisService := thesis.NewService(geminiClient, marketDataClient, screenerClient, config.Thesis, logger)

	a := &App{
		Config:           config,
		Logger:           logger,
		SessionManager:   sessionManager,
		MarketDataClient: marketDataClient,
		ScreenerClient:   screenerClient,
		GeminiClient:     geminiClient,
		PortfolioService: portfolioService,
		ThesisService:    thesisService,
		StartupTime:      startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// Close releases all resources held by the App.
func (a *App) Close() {
	if a.SessionManager != nil {
		if err := a.SessionManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Session close failed")
		}
		a.SessionManager = nil
	}
}
