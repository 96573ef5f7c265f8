// ABOUTME: Defines MCP protocol types - JSON-RPC 2.0 envelopes, tool info,
// ABOUTME: and the initialize handshake payloads.
package mcp

import "encoding/json"

const (
	jsonRPCVersion = "2.0"

	// protocolVersion is the MCP revision negotiated at initialize time.
	protocolVersion = "2025-06-27"

	clientName    = "mcplink"
	clientVersion = "0.1.0"
)

// Request is a JSON-RPC 2.0 request envelope. A zero ID marks a
// notification: the field is omitted on the wire and no response is
// expected. Non-zero ids are assigned by the owning transport and are
// strictly increasing within that transport's lifetime.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// NewRequest builds a call envelope with the given id.
func NewRequest(id uint64, method string, params any) *Request {
	return &Request{JSONRPC: jsonRPCVersion, ID: id, Method: method, Params: params}
}

// NewNotification builds a fire-and-forget envelope with no id.
func NewNotification(method string, params any) *Request {
	return &Request{JSONRPC: jsonRPCVersion, Method: method, Params: params}
}

// IsNotification reports whether the request expects no response.
func (r *Request) IsNotification() bool { return r.ID == 0 }

// Response is a JSON-RPC 2.0 response envelope, correlated to a Request
// by equal ID.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC error.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *RPCError) Error() string { return e.Message }

// InitializeParams is the payload of the initialize request.
type InitializeParams struct {
	ProtocolVersion string     `json:"protocolVersion"`
	Capabilities    any        `json:"capabilities"`
	ClientInfo      ClientInfo `json:"clientInfo"`
}

// ClientInfo identifies this client to the server.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func newInitializeRequest(id uint64) *Request {
	return NewRequest(id, "initialize", InitializeParams{
		ProtocolVersion: protocolVersion,
		Capabilities:    map[string]any{},
		ClientInfo:      ClientInfo{Name: clientName, Version: clientVersion},
	})
}

func newInitializedNotification() *Request {
	return NewNotification("notifications/initialized", map[string]any{})
}

// ToolInfo describes an MCP tool.
type ToolInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// ToolsListResult is the response from tools/list.
type ToolsListResult struct {
	Tools []ToolInfo `json:"tools"`
}

// ToolCallParams is the input for tools/call.
type ToolCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ToolCallResult is the response from tools/call.
type ToolCallResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// ContentBlock is an MCP content block.
type ContentBlock struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}
