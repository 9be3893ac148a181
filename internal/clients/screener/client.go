// Package screener provides a client for the financial statements API
package screener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/investrlabs/investr/internal/common"
	"github.com/investrlabs/investr/internal/interfaces"
	"github.com/investrlabs/investr/internal/models"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// financialTypes is the lookup order: standalone statements preferred,
// consolidated as fallback.
var financialTypes = []string{"standalone", "consolidated"}

// Client implements the ScreenerClient interface
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new screener client
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("screener API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// GetFinancials retrieves financial statements for a symbol, trying
// standalone then consolidated reporting. A 404 moves to the next type;
// no data under either type is an error.
func (c *Client) GetFinancials(ctx context.Context, symbol string) (*models.FinancialData, error) {
	var lastErr error

	for _, finType := range financialTypes {
		path := fmt.Sprintf("/companies/%s/financials/%s", url.PathEscape(symbol), finType)

		data, err := c.get(ctx, path)
		if err != nil {
			lastErr = err
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
				c.logger.Debug().Str("symbol", symbol).Str("type", finType).Msg("No financial data for type")
			} else {
				c.logger.Warn().Err(err).Str("symbol", symbol).Str("type", finType).Msg("Financials fetch failed")
			}
			continue
		}

		data.Symbol = symbol
		if data.FinancialType == "" {
			data.FinancialType = finType
		}
		c.logger.Debug().Str("symbol", symbol).Str("type", data.FinancialType).Msg("Fetched financial statements")
		return data, nil
	}

	return nil, fmt.Errorf("no financial data for %s: %w", symbol, lastErr)
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string) (*models.FinancialData, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("Screener API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	var data models.FinancialData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &data, nil
}

// Ensure Client implements ScreenerClient
var _ interfaces.ScreenerClient = (*Client)(nil)
