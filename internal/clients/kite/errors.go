package kite

import "fmt"

// ConnectionError indicates the MCP session could not be established.
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("kite: failed to connect to %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// UpstreamError indicates a tool call failed after exhausting retries.
type UpstreamError struct {
	Tool     string
	Attempts int
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("kite: %s failed after %d attempts: %v", e.Tool, e.Attempts, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ProtocolError indicates a tool response could not be reduced to the
// expected shape (e.g. no URL in a login result).
type ProtocolError struct {
	Tool   string
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("kite: %s returned an unusable response: %s", e.Tool, e.Reason)
}
