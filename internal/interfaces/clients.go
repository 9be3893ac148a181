// Package interfaces defines client and service contracts for InvestR
package interfaces

import (
	"context"

	"github.com/investrlabs/investr/internal/models"
)

// SessionManager brokers access to the single long-lived MCP session.
type SessionManager interface {
	// Invoke calls a named tool and returns the normalized result
	Invoke(ctx context.Context, tool string, args map[string]any) (any, error)

	// GetLoginURL requests a broker login URL via the login tool
	GetLoginURL(ctx context.Context) (string, error)

	// GetHoldings fetches raw holdings records with bounded retries
	GetHoldings(ctx context.Context) ([]map[string]any, error)

	// Close tears down the session handle; safe to call repeatedly
	Close() error
}

// MarketDataClient fetches historical price series
type MarketDataClient interface {
	// GetMonthlyCloses returns ~10 years of monthly closing prices,
	// trying NSE then BSE listings for the symbol
	GetMonthlyCloses(ctx context.Context, symbol string) (*models.PriceSeries, error)
}

// ScreenerClient fetches financial statement data
type ScreenerClient interface {
	// GetFinancials returns financial statements, preferring standalone
	// over consolidated reporting
	GetFinancials(ctx context.Context, symbol string) (*models.FinancialData, error)
}

// GeminiClient generates AI content
type GeminiClient interface {
	// GenerateContent generates text from a prompt
	GenerateContent(ctx context.Context, prompt string) (string, error)
}
