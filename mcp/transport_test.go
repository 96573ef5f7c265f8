// ABOUTME: Tests for transport selection - explicit strategy construction
// ABOUTME: and the streamable-HTTP probe with SSE fallback.
package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTransportType(t *testing.T) {
	tests := []struct {
		in   string
		want TransportType
	}{
		{"sse", TransportSSE},
		{"SSE", TransportSSE},
		{"streamable_http", TransportStreamableHTTP},
		{"streamable-http", TransportStreamableHTTP},
		{"http", TransportStreamableHTTP},
		{"auto_detect", TransportAutoDetect},
		{"", TransportAutoDetect},
		{"bogus", TransportAutoDetect},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseTransportType(tt.in), "input %q", tt.in)
	}
}

func TestConfigDefaults(t *testing.T) {
	c := ServerConfig{URL: "http://example.com"}.withDefaults()
	assert.Equal(t, defaultTimeout, c.Timeout)
	assert.Equal(t, defaultSSEReadTimeout, c.SSEReadTimeout)
	assert.Equal(t, defaultMaxRetries, c.MaxRetries)
	assert.Equal(t, defaultRetryInterval, c.RetryInterval)
	assert.NotNil(t, c.Logger)

	c = ServerConfig{URL: "http://example.com", MaxRetries: -1}.withDefaults()
	assert.Equal(t, 0, c.MaxRetries)
}

func TestNewTransportExplicit(t *testing.T) {
	ctx := context.Background()

	tr := NewTransport(ctx, ServerConfig{URL: "http://example.com/sse", Transport: "sse"})
	_, ok := tr.(*sseTransport)
	assert.True(t, ok, "want *sseTransport, got %T", tr)

	tr = NewTransport(ctx, ServerConfig{URL: "http://example.com/mcp", Transport: "streamable_http"})
	_, ok = tr.(*streamableTransport)
	assert.True(t, ok, "want *streamableTransport, got %T", tr)
}

func TestAutoDetectSelectsStreamable(t *testing.T) {
	server := newStreamableServer(t, func(w http.ResponseWriter, r *http.Request, req Request) {
		switch req.Method {
		case "initialize":
			writeJSONResponse(w, req, `{"capabilities":{}}`)
		default:
			w.WriteHeader(http.StatusAccepted)
		}
	})

	config := testConfig(server.srv.URL)
	config.Transport = "auto_detect"
	tr := NewTransport(context.Background(), config)
	defer tr.Close()

	st, ok := tr.(*streamableTransport)
	require.True(t, ok, "want *streamableTransport, got %T", tr)
	assert.True(t, st.preInitialized)

	// A full initialize after a successful probe only sends the
	// notification, never a second initialize request.
	require.NoError(t, tr.Connect(context.Background()))
	require.NoError(t, tr.Initialize(context.Background()))
	assert.Equal(t, 1, server.methodCount("initialize"))
	assert.Equal(t, 1, server.methodCount("notifications/initialized"))
}

func TestAutoDetectFallsBackToSSE(t *testing.T) {
	tests := map[string]http.HandlerFunc{
		"not found": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		},
		"rpc error": func(w http.ResponseWriter, r *http.Request) {
			var req Request
			_ = json.NewDecoder(r.Body).Decode(&req)
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(Response{
				JSONRPC: jsonRPCVersion,
				ID:      req.ID,
				Error:   &RPCError{Code: -32601, Message: "method not found"},
			})
		},
	}

	for name, handler := range tests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(handler)
			defer srv.Close()

			config := testConfig(srv.URL)
			config.Transport = "auto_detect"
			config.Timeout = time.Second
			tr := NewTransport(context.Background(), config)
			defer tr.Close()

			_, ok := tr.(*sseTransport)
			assert.True(t, ok, "want *sseTransport fallback, got %T", tr)
		})
	}
}

func TestAutoDetectFallsBackOnNetworkError(t *testing.T) {
	// Unreachable server: even transient-looking failures select SSE.
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	config := testConfig(url)
	config.Transport = "auto_detect"
	config.Timeout = time.Second
	tr := NewTransport(context.Background(), config)
	defer tr.Close()

	_, ok := tr.(*sseTransport)
	assert.True(t, ok, "want *sseTransport fallback, got %T", tr)
}
