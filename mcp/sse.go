// ABOUTME: Implements the SSE transport - a long-lived event stream for
// ABOUTME: inbound messages plus a side-channel POST for outbound ones.
package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// sseEvent is one parsed SSE event.
type sseEvent struct {
	Event string
	Data  string
}

// sseReader reads SSE events from a stream one at a time. Events are
// separated by blank lines; id:, retry: and comment lines are skipped.
type sseReader struct {
	scanner *bufio.Scanner
}

func newSSEReader(r io.Reader) *sseReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &sseReader{scanner: s}
}

// Next returns the next event, or io.EOF when the stream ends.
func (r *sseReader) Next() (sseEvent, error) {
	var ev sseEvent
	var dataLines []string
	seen := false

	flush := func() sseEvent {
		ev.Data = strings.Join(dataLines, "\n")
		return ev
	}

	for r.scanner.Scan() {
		line := r.scanner.Text()
		if line == "" {
			if seen {
				return flush(), nil
			}
			continue
		}
		switch {
		case strings.HasPrefix(line, "event:"):
			ev.Event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			seen = true
		case strings.HasPrefix(line, "data:"):
			data := strings.TrimPrefix(line, "data:")
			dataLines = append(dataLines, strings.TrimPrefix(data, " "))
			seen = true
		}
	}
	if err := r.scanner.Err(); err != nil {
		return sseEvent{}, err
	}
	if seen {
		// Stream ended mid-event without a trailing blank line.
		return flush(), nil
	}
	return sseEvent{}, io.EOF
}

// closeGracePeriod bounds how long Close waits for the listener to exit
// before abandoning it.
const closeGracePeriod = 10 * time.Second

// sseTransport implements Transport over a long-lived SSE stream. One
// listener goroutine owns all reads; it learns the message endpoint from
// the server's endpoint event and routes each message event to the
// caller waiting on its request id.
type sseTransport struct {
	config ServerConfig
	base   *url.URL
	http   *http.Client
	log    *slog.Logger

	requestID atomic.Uint64

	mu       sync.Mutex
	started  bool
	endpoint *url.URL
	pending  map[uint64]chan *Response
	fatal    error

	// connected is closed once the endpoint event has been accepted.
	connected   chan struct{}
	connectOnce sync.Once

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	cancel   context.CancelFunc
}

func newSSETransport(config ServerConfig) *sseTransport {
	return &sseTransport{
		config: config,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext:           (&net.Dialer{Timeout: config.Timeout}).DialContext,
				ResponseHeaderTimeout: config.Timeout,
			},
		},
		log:       config.Logger.With("transport", "sse", "url", config.URL),
		pending:   make(map[uint64]chan *Response),
		connected: make(chan struct{}),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Connect spawns the listener and blocks until the server announces its
// message endpoint or the configured timeout elapses.
func (t *sseTransport) Connect(ctx context.Context) error {
	base, err := url.Parse(t.config.URL)
	if err != nil {
		return &ConnectionError{URL: t.config.URL, Err: err}
	}

	t.mu.Lock()
	if !t.started {
		t.started = true
		t.base = base
		lctx, cancel := context.WithCancel(context.Background())
		t.cancel = cancel
		go t.listen(lctx)
	}
	t.mu.Unlock()

	timer := time.NewTimer(t.config.Timeout)
	defer timer.Stop()

	select {
	case <-t.connected:
		return nil
	case <-t.done:
		t.mu.Lock()
		err := t.fatal
		t.mu.Unlock()
		if err == nil {
			err = errors.New("listener stopped")
		}
		return &ConnectionError{URL: t.config.URL, Err: err}
	case <-timer.C:
		return &ConnectionError{URL: t.config.URL, Err: context.DeadlineExceeded}
	case <-ctx.Done():
		return &ConnectionError{URL: t.config.URL, Err: ctx.Err()}
	}
}

// listen runs until a stop signal, a protocol violation, or an exhausted
// retry budget. Reconnects use a fixed pause between attempts; receiving
// the endpoint event resets the budget.
func (t *sseTransport) listen(ctx context.Context) {
	defer close(t.done)

	retries := 0
	for {
		reset, err := t.stream(ctx)
		if t.stopped() || ctx.Err() != nil {
			return
		}
		if reset {
			retries = 0
		}

		var pv *ProtocolError
		if errors.As(err, &pv) {
			t.log.Error("stopping SSE listener", "error", err)
			t.fail(err)
			return
		}
		if retries >= t.config.MaxRetries {
			t.log.Error("giving up on SSE connection", "attempts", retries+1, "error", err)
			t.fail(&TransportError{Err: errors.Wrap(err, "retries exhausted")})
			return
		}
		retries++
		t.log.Warn("SSE connection lost, retrying",
			"attempt", retries, "max", t.config.MaxRetries, "error", err)

		select {
		case <-time.After(t.config.RetryInterval):
		case <-t.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// stream opens one SSE connection and consumes events until it breaks.
// reset reports whether an endpoint event arrived on this connection.
func (t *sseTransport) stream(ctx context.Context) (reset bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.base.String(), nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-store")
	for k, v := range t.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := t.http.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, &TransportError{Status: resp.StatusCode}
	}
	t.log.Debug("SSE stream established")

	// The connect timeout does not apply between events; the watchdog
	// enforces the separate, much larger read timeout instead.
	watchdog := time.AfterFunc(t.config.SSEReadTimeout, func() { resp.Body.Close() })
	defer watchdog.Stop()

	reader := newSSEReader(resp.Body)
	for {
		ev, err := reader.Next()
		if err != nil {
			if err == io.EOF {
				err = errors.New("event stream closed by server")
			}
			return reset, err
		}
		watchdog.Reset(t.config.SSEReadTimeout)

		switch ev.Event {
		case "endpoint":
			endpoint, err := t.resolveEndpoint(ev.Data)
			if err != nil {
				return reset, err
			}
			t.mu.Lock()
			t.endpoint = endpoint
			t.mu.Unlock()
			t.log.Info("received message endpoint", "endpoint", endpoint.String())
			t.connectOnce.Do(func() { close(t.connected) })
			reset = true
		case "message":
			var msg Response
			if err := json.Unmarshal([]byte(ev.Data), &msg); err != nil {
				t.log.Warn("discarding unparseable server message", "error", err)
				continue
			}
			t.deliver(&msg)
		default:
			t.log.Warn("ignoring unknown SSE event", "event", ev.Event)
		}
	}
}

// resolveEndpoint resolves the endpoint event data against the stream URL
// and rejects endpoints on a foreign origin.
func (t *sseTransport) resolveEndpoint(raw string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, &ProtocolError{Reason: "unparseable endpoint URL " + raw}
	}
	endpoint := t.base.ResolveReference(ref)
	if endpoint.Scheme != t.base.Scheme || endpoint.Host != t.base.Host {
		return nil, &ProtocolError{
			Reason: "endpoint origin " + endpoint.Scheme + "://" + endpoint.Host +
				" does not match connection origin",
		}
	}
	return endpoint, nil
}

// deliver hands a response to the caller registered for its id. Responses
// nobody claimed are dropped; the server may only answer ids we issued.
func (t *sseTransport) deliver(msg *Response) {
	t.mu.Lock()
	ch, ok := t.pending[msg.ID]
	if ok {
		delete(t.pending, msg.ID)
	}
	t.mu.Unlock()
	if !ok {
		t.log.Debug("no caller waiting for response", "id", msg.ID)
		return
	}
	ch <- msg
}

func (t *sseTransport) fail(err error) {
	t.mu.Lock()
	if t.fatal == nil {
		t.fatal = err
	}
	t.mu.Unlock()
}

func (t *sseTransport) stopped() bool {
	select {
	case <-t.stop:
		return true
	default:
		return false
	}
}

// SendMessage POSTs the envelope to the learned endpoint. Calls with an
// id block until the listener routes the matching response; concurrent
// calls with distinct ids are safe. Notifications return immediately.
func (t *sseTransport) SendMessage(ctx context.Context, req *Request) (*Response, error) {
	t.mu.Lock()
	endpoint, fatal := t.endpoint, t.fatal
	t.mu.Unlock()
	if fatal != nil {
		return nil, fatal
	}
	if endpoint == nil {
		return nil, ErrNotConnected
	}

	var waiter chan *Response
	if !req.IsNotification() {
		waiter = make(chan *Response, 1)
		t.mu.Lock()
		t.pending[req.ID] = waiter
		t.mu.Unlock()
		defer func() {
			t.mu.Lock()
			delete(t.pending, req.ID)
			t.mu.Unlock()
		}()
	}

	if err := t.post(ctx, endpoint, req); err != nil {
		return nil, err
	}
	if req.IsNotification() {
		return &Response{}, nil
	}

	select {
	case msg := <-waiter:
		return msg, nil
	case <-t.done:
		t.mu.Lock()
		fatal := t.fatal
		t.mu.Unlock()
		if fatal != nil {
			return nil, fatal
		}
		return nil, &TransportError{Err: errors.New("listener stopped while awaiting response")}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *sseTransport) post(ctx context.Context, endpoint *url.URL, req *Request) error {
	body, err := json.Marshal(req)
	if err != nil {
		return errors.Wrap(err, "encode request")
	}

	ctx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()
	hr, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	hr.Header.Set("Content-Type", "application/json")
	for k, v := range t.config.Headers {
		hr.Header.Set(k, v)
	}

	resp, err := t.http.Do(hr)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &TransportError{Status: resp.StatusCode}
	}
	return nil
}

// Initialize sends initialize and the initialized notification as two
// ordinary calls over the already-open channel.
func (t *sseTransport) Initialize(ctx context.Context) error {
	if _, err := t.SendMessage(ctx, newInitializeRequest(t.NextRequestID())); err != nil {
		return errors.Wrap(err, "initialize")
	}
	if _, err := t.SendMessage(ctx, newInitializedNotification()); err != nil {
		return errors.Wrap(err, "initialized notification")
	}
	return nil
}

// NextRequestID returns the next request id for this transport.
func (t *sseTransport) NextRequestID() uint64 { return t.requestID.Add(1) }

// Close signals the listener to stop and waits for it with a bounded
// grace period. A listener stuck in a read is abandoned.
func (t *sseTransport) Close() error {
	t.stopOnce.Do(func() {
		close(t.stop)

		t.mu.Lock()
		started := t.started
		cancel := t.cancel
		t.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		t.http.CloseIdleConnections()

		if started {
			select {
			case <-t.done:
			case <-time.After(closeGracePeriod):
				t.log.Warn("SSE listener did not stop in time, abandoning")
			}
		}
	})
	return nil
}
