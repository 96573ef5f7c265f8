// ABOUTME: Implements the streamable HTTP transport - one POST per call
// ABOUTME: with session propagation and JSON-or-SSE response handling.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

// sessionHeader carries the opaque server-issued session token.
const sessionHeader = "Mcp-Session-Id"

// streamableTransport implements Transport as a single POST per call.
// It holds no background resources; the only mutable state is the
// session id the server issues on its first response.
type streamableTransport struct {
	config ServerConfig
	http   *http.Client
	log    *slog.Logger

	requestID atomic.Uint64

	mu             sync.Mutex
	sessionID      string
	preInitialized bool
}

func newStreamableTransport(config ServerConfig) *streamableTransport {
	return &streamableTransport{
		config: config,
		http:   &http.Client{Timeout: config.Timeout},
		log:    config.Logger.With("transport", "streamable_http", "url", config.URL),
	}
}

// Connect is a no-op: the protocol is stateless per request and session
// establishment happens on the first send.
func (t *streamableTransport) Connect(ctx context.Context) error { return nil }

// SendMessage POSTs one envelope and decodes whatever the server answers
// with - a JSON body or a one-shot event stream.
func (t *streamableTransport) SendMessage(ctx context.Context, req *Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "encode request")
	}

	hr, err := http.NewRequestWithContext(ctx, http.MethodPost, t.config.URL, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	hr.Header.Set("Content-Type", "application/json")
	hr.Header.Set("Accept", "application/json, text/event-stream")
	for k, v := range t.config.Headers {
		hr.Header.Set(k, v)
	}

	t.mu.Lock()
	session := t.sessionID
	t.mu.Unlock()
	if session != "" {
		hr.Header.Set(sessionHeader, session)
	}

	resp, err := t.http.Do(hr)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && session != "" {
		return nil, ErrSessionExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{Status: resp.StatusCode}
	}

	if issued := resp.Header.Get(sessionHeader); issued != "" && issued != session {
		t.mu.Lock()
		t.sessionID = issued
		t.mu.Unlock()
		t.log.Debug("session id issued", "session", issued)
	}

	return t.decodeResponse(resp)
}

func (t *streamableTransport) decodeResponse(resp *http.Response) (*Response, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	if len(data) == 0 {
		return &Response{}, nil
	}

	contentType := resp.Header.Get("Content-Type")
	switch {
	case strings.Contains(contentType, "application/json"):
		var msg Response
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, errors.Wrap(err, "decode response")
		}
		return &msg, nil
	case strings.Contains(contentType, "text/event-stream"):
		return decodeEventStream(bytes.NewReader(data))
	default:
		t.log.Warn("ignoring response with unexpected content type", "contentType", contentType)
		return &Response{}, nil
	}
}

// decodeEventStream consumes a single-use response stream. Every event
// must be a message event; the last decoded message wins.
func decodeEventStream(r io.Reader) (*Response, error) {
	reader := newSSEReader(r)
	var last *Response
	for {
		ev, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &TransportError{Err: err}
		}
		// An absent event name defaults to "message" per the SSE spec.
		if ev.Event != "" && ev.Event != "message" {
			return nil, &ProtocolError{
				Reason: "unexpected event " + strconv.Quote(ev.Event) + " in response stream",
			}
		}
		var msg Response
		if err := json.Unmarshal([]byte(ev.Data), &msg); err != nil {
			return nil, errors.Wrap(err, "decode stream message")
		}
		last = &msg
	}
	if last == nil {
		return &Response{}, nil
	}
	return last, nil
}

// preInitialize sends the initialize request without the follow-up
// notification. The auto-detect probe uses it as a readiness check; a
// later full Initialize then only needs to send the notification.
func (t *streamableTransport) preInitialize(ctx context.Context) error {
	resp, err := t.SendMessage(ctx, newInitializeRequest(t.NextRequestID()))
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return &TransportError{Err: resp.Error}
	}
	t.mu.Lock()
	t.preInitialized = true
	t.mu.Unlock()
	return nil
}

// Initialize performs the handshake, skipping the initialize request if
// the auto-detect probe already sent it.
func (t *streamableTransport) Initialize(ctx context.Context) error {
	t.mu.Lock()
	ready := t.preInitialized
	t.mu.Unlock()
	if !ready {
		if err := t.preInitialize(ctx); err != nil {
			return errors.Wrap(err, "initialize")
		}
	}
	if _, err := t.SendMessage(ctx, newInitializedNotification()); err != nil {
		return errors.Wrap(err, "initialized notification")
	}
	return nil
}

// NextRequestID returns the next request id for this transport.
func (t *streamableTransport) NextRequestID() uint64 { return t.requestID.Add(1) }

// Close releases the HTTP client. There are no background resources.
func (t *streamableTransport) Close() error {
	t.http.CloseIdleConnections()
	return nil
}
