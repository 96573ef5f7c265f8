// ABOUTME: Defines the transport error taxonomy - sentinel errors plus
// ABOUTME: typed wrappers that survive errors.Is/As chains.
package mcp

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNotConnected is returned when a send is attempted before the
	// transport knows where to deliver messages.
	ErrNotConnected = errors.New("mcp: not connected")

	// ErrSessionExpired is returned when the server rejects a previously
	// issued session id.
	ErrSessionExpired = errors.New("mcp: session expired")
)

// ConnectionError reports a failure to bring a transport to a ready state.
// It is fatal to client construction.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("mcp: connect %s: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// TransportError reports a network fault or non-2xx status during an
// established session. It is surfaced to the caller; the SSE listener's
// own reconnect loop is the only place such faults are retried.
type TransportError struct {
	// Status is the HTTP status code, or 0 for network-level failures.
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("mcp: transport error: unexpected status %d", e.Status)
	}
	return fmt.Sprintf("mcp: transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError reports a misbehaving or compromised server: an endpoint
// redirecting to a foreign origin, or an unexpected event inside a
// single-response stream. Never retried.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string { return "mcp: protocol violation: " + e.Reason }
