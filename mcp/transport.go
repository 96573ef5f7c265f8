// ABOUTME: Defines the Transport contract and server configuration, plus
// ABOUTME: the factory that selects a strategy with auto-detection.
package mcp

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"
)

// TransportType selects the wire strategy for a server.
type TransportType string

const (
	// TransportSSE is the legacy long-lived SSE channel with a
	// side-channel POST for outgoing messages.
	TransportSSE TransportType = "sse"

	// TransportStreamableHTTP is one POST per call whose response is
	// either a JSON body or a one-shot event stream.
	TransportStreamableHTTP TransportType = "streamable_http"

	// TransportAutoDetect probes streamable HTTP first and falls back
	// to SSE.
	TransportAutoDetect TransportType = "auto_detect"
)

// ParseTransportType maps a config string onto a TransportType. Unknown
// or empty values select auto-detection.
func ParseTransportType(s string) TransportType {
	switch strings.ToLower(s) {
	case "sse":
		return TransportSSE
	case "streamable_http", "streamable-http", "streamable", "http":
		return TransportStreamableHTTP
	default:
		return TransportAutoDetect
	}
}

// Transport is the strategy contract shared by both wire implementations.
// A transport owns its HTTP client and, for SSE, its listener goroutine;
// instances are not shared across clients.
type Transport interface {
	// Connect brings the transport to a ready state, failing with a
	// ConnectionError if that takes longer than the configured timeout.
	Connect(ctx context.Context) error

	// SendMessage delivers one envelope and blocks until the matching
	// response arrives. Notifications (zero id) return an empty envelope
	// as soon as the POST is accepted. Callers needing a deadline on the
	// wait cancel ctx.
	SendMessage(ctx context.Context, req *Request) (*Response, error)

	// Initialize performs the MCP handshake in whatever shape this
	// strategy requires.
	Initialize(ctx context.Context) error

	// NextRequestID returns the next request id for this transport
	// instance. Ids start at 1, increase strictly, and are never reused.
	NextRequestID() uint64

	// Close releases all resources. Idempotent and best effort: it
	// never returns a meaningful error.
	Close() error
}

// ServerConfig describes one MCP server and how to reach it. It is
// immutable once a transport has been constructed from it.
type ServerConfig struct {
	// Name labels this server in logs and manifests.
	Name string

	// Transport picks the wire strategy; empty means auto-detect.
	Transport string

	// URL is the server endpoint: the stream URL for SSE, the message
	// endpoint for streamable HTTP.
	URL string

	// Headers are attached verbatim to every outgoing request.
	Headers map[string]string

	// Timeout bounds connection establishment and each POST.
	Timeout time.Duration

	// SSEReadTimeout bounds the idle gap between events on the SSE
	// stream. Server push cadence is unbounded, so keep this large.
	SSEReadTimeout time.Duration

	// MaxRetries caps how many times the SSE listener reconnects after
	// a read failure before stopping for good. Zero selects the default;
	// a negative value disables reconnection entirely.
	MaxRetries int

	// RetryInterval is the fixed pause between reconnect attempts.
	RetryInterval time.Duration

	// Logger receives transport diagnostics. Nil discards them.
	Logger *slog.Logger
}

const (
	defaultTimeout        = 60 * time.Second
	defaultSSEReadTimeout = 5 * time.Minute
	defaultMaxRetries     = 3
	defaultRetryInterval  = 2 * time.Second
)

func (c ServerConfig) withDefaults() ServerConfig {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.SSEReadTimeout <= 0 {
		c.SSEReadTimeout = defaultSSEReadTimeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	} else if c.MaxRetries == 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = defaultRetryInterval
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

// NewTransport constructs the strategy selected by config. Explicit
// selections construct directly; auto-detection probes streamable HTTP
// with a pre-initialize handshake and falls back to SSE when the probe
// fails for any reason. The returned transport still needs Connect —
// for a successfully probed streamable transport that is a no-op, and
// the transport is already pre-initialized.
func NewTransport(ctx context.Context, config ServerConfig) Transport {
	config = config.withDefaults()
	switch ParseTransportType(config.Transport) {
	case TransportSSE:
		return newSSETransport(config)
	case TransportStreamableHTTP:
		return newStreamableTransport(config)
	default:
		return autoDetectTransport(ctx, config)
	}
}

func autoDetectTransport(ctx context.Context, config ServerConfig) Transport {
	st := newStreamableTransport(config)
	err := st.preInitialize(ctx)
	if err == nil {
		return st
	}
	st.Close()

	// Any probe failure selects SSE, including transient network errors
	// unrelated to transport mismatch. SSE's own Connect provides the
	// equivalent readiness check.
	config.Logger.Info("streamable HTTP detection failed, falling back to SSE",
		"url", config.URL, "error", err)
	return newSSETransport(config)
}
