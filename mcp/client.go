// ABOUTME: Defines the Client facade - composes a transport strategy and
// ABOUTME: exposes the MCP handshake and tool operations on top of it.
package mcp

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
)

// Client drives one MCP server over whichever transport the factory
// selected. Clients do not share transports.
type Client struct {
	transport Transport
}

// NewClient constructs a transport per config and connects it.
func NewClient(ctx context.Context, config ServerConfig) (*Client, error) {
	transport := NewTransport(ctx, config)
	if err := transport.Connect(ctx); err != nil {
		_ = transport.Close()
		return nil, err
	}
	return &Client{transport: transport}, nil
}

// NewClientWithTransport wraps an already connected transport. The client
// takes ownership and closes it on Close.
func NewClientWithTransport(transport Transport) *Client {
	return &Client{transport: transport}
}

// Initialize performs the MCP handshake. Each strategy knows its own
// handshake shape, so this delegates entirely.
func (c *Client) Initialize(ctx context.Context) error {
	return c.transport.Initialize(ctx)
}

// SendMessage forwards one envelope to the active transport.
func (c *Client) SendMessage(ctx context.Context, req *Request) (*Response, error) {
	return c.transport.SendMessage(ctx, req)
}

// ListTools retrieves available tools from the server. A missing result
// yields an empty slice, not an error.
func (c *Client) ListTools(ctx context.Context) ([]ToolInfo, error) {
	req := NewRequest(c.transport.NextRequestID(), "tools/list", map[string]any{})
	resp, err := c.transport.SendMessage(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}

	var result ToolsListResult
	if len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, &result); err != nil {
			return nil, errors.Wrap(err, "decode tools/list result")
		}
	}
	if result.Tools == nil {
		result.Tools = []ToolInfo{}
	}
	return result.Tools, nil
}

// CallTool executes a tool on the server.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*ToolCallResult, error) {
	req := NewRequest(c.transport.NextRequestID(), "tools/call", ToolCallParams{
		Name:      name,
		Arguments: args,
	})
	resp, err := c.transport.SendMessage(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}

	var result ToolCallResult
	if len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, &result); err != nil {
			return nil, errors.Wrap(err, "decode tools/call result")
		}
	}
	if result.Content == nil {
		result.Content = []ContentBlock{}
	}
	return &result, nil
}

// Close shuts the transport down.
func (c *Client) Close() error {
	return c.transport.Close()
}
