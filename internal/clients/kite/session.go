// Package kite manages the single long-lived MCP session to the broker's
// tool service and normalizes the loosely-typed results it returns.
package kite

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/investrlabs/investr/internal/common"
)

const (
	loginTool    = "login"
	holdingsTool = "get_holdings"

	DefaultRetries   = 3
	DefaultBaseDelay = time.Second
	DefaultBackoff   = 1.5
)

// ToolSession is the minimal contract the manager needs from an
// established connection. It exists so tests can substitute a fake
// without a network dependency.
type ToolSession interface {
	CallTool(ctx context.Context, name string, args map[string]any) (any, error)
	Close() error
}

// Dialer establishes a new ToolSession.
type Dialer func(ctx context.Context) (ToolSession, error)

// Manager owns the process-wide broker session. The handle is created
// lazily on first use; creation and teardown are serialized so
// concurrent callers share a single connection.
type Manager struct {
	endpoint  string
	dial      Dialer
	logger    *common.Logger
	retries   int
	baseDelay time.Duration
	backoff   float64

	mu      sync.Mutex
	session ToolSession
}

// ManagerOption configures the manager
type ManagerOption func(*Manager)

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithDialer overrides how sessions are established (used by tests).
func WithDialer(dial Dialer) ManagerOption {
	return func(m *Manager) {
		m.dial = dial
	}
}

// WithRetryPolicy sets the holdings retry policy.
func WithRetryPolicy(retries int, baseDelay time.Duration, backoff float64) ManagerOption {
	return func(m *Manager) {
		if retries > 0 {
			m.retries = retries
		}
		if baseDelay > 0 {
			m.baseDelay = baseDelay
		}
		if backoff > 0 {
			m.backoff = backoff
		}
	}
}

// NewManager creates a session manager for the configured MCP endpoint.
func NewManager(cfg common.KiteConfig, opts ...ManagerOption) *Manager {
	m := &Manager{
		endpoint:  cfg.Endpoint,
		logger:    common.NewSilentLogger(),
		retries:   DefaultRetries,
		baseDelay: DefaultBaseDelay,
		backoff:   DefaultBackoff,
	}
	if cfg.Retries > 0 {
		m.retries = cfg.Retries
	}
	if d := cfg.GetBaseDelay(); d > 0 {
		m.baseDelay = d
	}
	if cfg.Backoff > 0 {
		m.backoff = cfg.Backoff
	}
	m.dial = newMCPDialer(cfg)

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// ensureSession returns the shared session, establishing it if needed.
// The mutex is held across the full connect: two concurrent first
// callers must never produce two connections.
func (m *Manager) ensureSession(ctx context.Context) (ToolSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		return m.session, nil
	}

	m.logger.Info().Str("endpoint", m.endpoint).Msg("Establishing MCP session")

	session, err := m.dial(ctx)
	if err != nil {
		return nil, &ConnectionError{Endpoint: m.endpoint, Err: err}
	}

	m.session = session
	return session, nil
}

// Close tears down the session handle. Safe to call with no session
// established, and safe to call repeatedly.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return nil
	}

	err := m.session.Close()
	m.session = nil
	if err != nil {
		return fmt.Errorf("closing MCP session: %w", err)
	}
	return nil
}

// Invoke calls a named tool and returns the normalized result.
func (m *Manager) Invoke(ctx context.Context, tool string, args map[string]any) (any, error) {
	raw, err := m.callRaw(ctx, tool, args)
	if err != nil {
		return nil, err
	}
	return NormalizeToolResult(raw), nil
}

func (m *Manager) callRaw(ctx context.Context, tool string, args map[string]any) (any, error) {
	session, err := m.ensureSession(ctx)
	if err != nil {
		return nil, err
	}
	return session.CallTool(ctx, tool, args)
}

// GetLoginURL invokes the broker's login tool and extracts the login URL
// from whatever shape the tool returns.
func (m *Manager) GetLoginURL(ctx context.Context) (string, error) {
	raw, err := m.callRaw(ctx, loginTool, map[string]any{})
	if err != nil {
		return "", err
	}

	url := ExtractURL(raw)
	if url == "" {
		return "", &ProtocolError{Tool: loginTool, Reason: "no URL found in login response"}
	}

	m.logger.Debug().Str("url", url).Msg("Extracted login URL")
	return url, nil
}

// GetHoldings fetches the raw holdings records under a bounded retry
// loop. The broker requires an external login handshake that completes
// asynchronously, so early failures are expected and treated as
// transient until retries are exhausted.
func (m *Manager) GetHoldings(ctx context.Context) ([]map[string]any, error) {
	var lastErr error

	for attempt := 0; attempt < m.retries; attempt++ {
		raw, err := m.callRaw(ctx, holdingsTool, map[string]any{})
		if err == nil {
			return coerceHoldings(NormalizeToolResult(raw)), nil
		}

		lastErr = err
		m.logger.Warn().Err(err).Int("attempt", attempt+1).Int("retries", m.retries).
			Msg("Holdings fetch failed")

		if attempt == m.retries-1 {
			break
		}
		if err := m.sleep(ctx, m.delayFor(attempt)); err != nil {
			lastErr = err
			break
		}
	}

	return nil, &UpstreamError{Tool: holdingsTool, Attempts: m.retries, Err: lastErr}
}

// delayFor computes the backoff delay for a completed attempt.
func (m *Manager) delayFor(attempt int) time.Duration {
	delay := float64(m.baseDelay)
	for i := 0; i <= attempt; i++ {
		delay *= m.backoff
	}
	return time.Duration(delay)
}

// sleep waits for d or until the context is cancelled, whichever comes
// first. Shutdown must not hang on a retry backoff.
func (m *Manager) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// coerceHoldings reduces a normalized holdings result to a list of
// record maps: a {"holdings": [...]} wrapper unwraps, a bare map becomes
// a one-element list, anything else is empty.
func coerceHoldings(data any) []map[string]any {
	if wrapper, ok := data.(map[string]any); ok {
		if inner, exists := wrapper["holdings"]; exists {
			data = inner
		}
	}

	switch v := data.(type) {
	case []any:
		records := make([]map[string]any, 0, len(v))
		for _, item := range v {
			if rec, ok := item.(map[string]any); ok {
				records = append(records, rec)
			}
		}
		return records
	case map[string]any:
		return []map[string]any{v}
	default:
		return []map[string]any{}
	}
}

// --- MCP transport wiring ---

// headerTransport injects static auth headers on every request.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}

// newMCPDialer builds the production dialer from config.
func newMCPDialer(cfg common.KiteConfig) Dialer {
	return func(ctx context.Context) (ToolSession, error) {
		httpClient := &http.Client{Timeout: 0} // SSE streams stay open; per-call bounds come from ctx
		if len(cfg.Headers) > 0 {
			httpClient.Transport = &headerTransport{base: http.DefaultTransport, headers: cfg.Headers}
		}

		var transport mcp.Transport
		switch cfg.Transport {
		case "http":
			transport = &mcp.StreamableClientTransport{Endpoint: cfg.Endpoint, HTTPClient: httpClient}
		default:
			transport = &mcp.SSEClientTransport{Endpoint: cfg.Endpoint, HTTPClient: httpClient}
		}

		impl := &mcp.Implementation{Name: "investr", Version: common.GetVersion()}
		client := mcp.NewClient(impl, nil)

		session, err := client.Connect(ctx, transport, nil)
		if err != nil {
			return nil, err
		}
		return &mcpSession{session: session}, nil
	}
}

// mcpSession adapts *mcp.ClientSession to the ToolSession contract.
type mcpSession struct {
	session *mcp.ClientSession
}

func (s *mcpSession) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	result, err := s.session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return nil, err
	}
	if result.IsError {
		if text, ok := asText(unwrapEnvelope(result)); ok && text != "" {
			return nil, errors.New(text)
		}
		return nil, fmt.Errorf("tool %s reported an error", name)
	}
	return result, nil
}

func (s *mcpSession) Close() error {
	return s.session.Close()
}
