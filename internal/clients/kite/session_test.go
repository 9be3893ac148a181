package kite

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/investrlabs/investr/internal/common"
)

// fakeSession is an in-memory ToolSession for tests.
type fakeSession struct {
	callFn     func(tool string, args map[string]any) (any, error)
	calls      atomic.Int32
	closeCalls atomic.Int32
}

func (f *fakeSession) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	f.calls.Add(1)
	return f.callFn(name, args)
}

func (f *fakeSession) Close() error {
	f.closeCalls.Add(1)
	return nil
}

func newTestManager(t *testing.T, session ToolSession, opts ...ManagerOption) (*Manager, *atomic.Int32) {
	t.Helper()
	var dials atomic.Int32
	base := []ManagerOption{
		WithDialer(func(ctx context.Context) (ToolSession, error) {
			dials.Add(1)
			return session, nil
		}),
		WithRetryPolicy(3, time.Millisecond, 1.5),
	}
	m := NewManager(common.KiteConfig{Endpoint: "https://mcp.test/sse"}, append(base, opts...)...)
	return m, &dials
}

func TestManager_SingleConnectUnderConcurrency(t *testing.T) {
	session := &fakeSession{callFn: func(tool string, args map[string]any) (any, error) {
		return "URL: https://kite.test/login", nil
	}}

	// Slow dialer so concurrent first callers pile up behind the connect.
	var dials atomic.Int32
	m := NewManager(common.KiteConfig{Endpoint: "https://mcp.test/sse"},
		WithDialer(func(ctx context.Context) (ToolSession, error) {
			dials.Add(1)
			time.Sleep(10 * time.Millisecond)
			return session, nil
		}),
	)

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.GetLoginURL(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), dials.Load(), "concurrent first use must establish exactly one session")
}

func TestManager_GetLoginURL(t *testing.T) {
	session := &fakeSession{callFn: func(tool string, args map[string]any) (any, error) {
		require.Equal(t, "login", tool)
		return map[string]any{"text": "Login here URL: https://kite.test/connect/login"}, nil
	}}
	m, _ := newTestManager(t, session)

	url, err := m.GetLoginURL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://kite.test/connect/login", url)
}

func TestManager_GetLoginURL_NoURLIsProtocolError(t *testing.T) {
	session := &fakeSession{callFn: func(tool string, args map[string]any) (any, error) {
		return "nothing useful here", nil
	}}
	m, _ := newTestManager(t, session)

	_, err := m.GetLoginURL(context.Background())
	require.Error(t, err)

	var protoErr *ProtocolError
	assert.True(t, errors.As(err, &protoErr))
}

func TestManager_GetLoginURL_ConnectFailure(t *testing.T) {
	m := NewManager(common.KiteConfig{Endpoint: "https://mcp.test/sse"},
		WithDialer(func(ctx context.Context) (ToolSession, error) {
			return nil, fmt.Errorf("dial tcp: refused")
		}),
	)

	_, err := m.GetLoginURL(context.Background())
	require.Error(t, err)

	var connErr *ConnectionError
	assert.True(t, errors.As(err, &connErr))
}

func TestManager_GetHoldings_RetriesThenFails(t *testing.T) {
	session := &fakeSession{callFn: func(tool string, args map[string]any) (any, error) {
		return nil, fmt.Errorf("login not completed")
	}}
	m, _ := newTestManager(t, session)

	_, err := m.GetHoldings(context.Background())
	require.Error(t, err)

	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, 3, upErr.Attempts)
	assert.ErrorContains(t, upErr.Err, "login not completed")
	assert.Equal(t, int32(3), session.calls.Load(), "permanently failing backend is retried exactly retries times")
}

func TestManager_GetHoldings_FirstAttemptSucceeds(t *testing.T) {
	session := &fakeSession{callFn: func(tool string, args map[string]any) (any, error) {
		return `{"holdings":[{"tradingsymbol":"INFY","quantity":10}]}`, nil
	}}
	m, _ := newTestManager(t, session, WithRetryPolicy(3, 5*time.Second, 1.5))

	start := time.Now()
	holdings, err := m.GetHoldings(context.Background())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second, "success must not incur backoff delay")

	require.Len(t, holdings, 1)
	assert.Equal(t, "INFY", holdings[0]["tradingsymbol"])
	assert.Equal(t, int32(1), session.calls.Load())
}

func TestManager_GetHoldings_SingleMapCoercedToList(t *testing.T) {
	session := &fakeSession{callFn: func(tool string, args map[string]any) (any, error) {
		return map[string]any{"tradingsymbol": "TCS"}, nil
	}}
	m, _ := newTestManager(t, session)

	holdings, err := m.GetHoldings(context.Background())
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.Equal(t, "TCS", holdings[0]["tradingsymbol"])
}

func TestManager_GetHoldings_NonListIsEmpty(t *testing.T) {
	session := &fakeSession{callFn: func(tool string, args map[string]any) (any, error) {
		return "no structured data", nil
	}}
	m, _ := newTestManager(t, session)

	holdings, err := m.GetHoldings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, holdings)
}

func TestManager_GetHoldings_RetrySleepInterruptedByCancel(t *testing.T) {
	session := &fakeSession{callFn: func(tool string, args map[string]any) (any, error) {
		return nil, fmt.Errorf("still pending")
	}}
	m, _ := newTestManager(t, session, WithRetryPolicy(3, 10*time.Second, 1.5))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := m.GetHoldings(ctx)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second, "cancellation must interrupt the retry sleep")
}

func TestManager_CloseIsIdempotent(t *testing.T) {
	session := &fakeSession{callFn: func(tool string, args map[string]any) (any, error) {
		return "URL: https://kite.test/login", nil
	}}
	m, dials := newTestManager(t, session)

	// No session yet: close is a no-op.
	require.NoError(t, m.Close())
	assert.Equal(t, int32(0), session.closeCalls.Load())

	_, err := m.GetLoginURL(context.Background())
	require.NoError(t, err)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.Equal(t, int32(1), session.closeCalls.Load())

	// A fresh call after close runs a new connect cycle.
	_, err = m.GetLoginURL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), dials.Load())
}

func TestManager_InvokeNormalizes(t *testing.T) {
	session := &fakeSession{callFn: func(tool string, args map[string]any) (any, error) {
		return `{"status":"ok"}`, nil
	}}
	m, _ := newTestManager(t, session)

	got, err := m.Invoke(context.Background(), "get_profile", map[string]any{})
	require.NoError(t, err)

	msg, ok := got.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ok", msg["status"])
}
