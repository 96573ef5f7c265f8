// ABOUTME: Tests for JSON-RPC envelope encoding - notification id
// ABOUTME: suppression and response/error decoding.
package mcp_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389-research/mcplink/mcp"
)

func TestRequestMarshal(t *testing.T) {
	req := mcp.NewRequest(7, "tools/list", nil)
	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":7,"method":"tools/list"}`, string(data))
}

func TestNotificationMarshalOmitsID(t *testing.T) {
	n := mcp.NewNotification("notifications/initialized", map[string]any{})
	assert.True(t, n.IsNotification())

	data, err := json.Marshal(n)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	_, hasID := raw["id"]
	assert.False(t, hasID, "notification must not carry an id: %s", data)
}

func TestRequestWithParams(t *testing.T) {
	req := mcp.NewRequest(1, "tools/call", mcp.ToolCallParams{
		Name:      "search",
		Arguments: map[string]any{"query": "golang"},
	})
	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"jsonrpc": "2.0",
		"id": 1,
		"method": "tools/call",
		"params": {"name": "search", "arguments": {"query": "golang"}}
	}`, string(data))
}

func TestResponseUnmarshal(t *testing.T) {
	var resp mcp.Response
	require.NoError(t, json.Unmarshal([]byte(`{
		"jsonrpc": "2.0",
		"id": 42,
		"result": {"tools": [{"name": "echo", "description": "echoes input"}]}
	}`), &resp))

	assert.Equal(t, uint64(42), resp.ID)
	require.Nil(t, resp.Error)

	var result mcp.ToolsListResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	require.Len(t, result.Tools, 1)
	assert.Equal(t, "echo", result.Tools[0].Name)
}

func TestResponseUnmarshalError(t *testing.T) {
	var resp mcp.Response
	require.NoError(t, json.Unmarshal([]byte(`{
		"jsonrpc": "2.0",
		"id": 3,
		"error": {"code": -32601, "message": "method not found"}
	}`), &resp))

	require.NotNil(t, resp.Error)
	assert.Equal(t, -32601, resp.Error.Code)
	assert.EqualError(t, resp.Error, "method not found")
}

func TestToolCallResultUnmarshal(t *testing.T) {
	var result mcp.ToolCallResult
	require.NoError(t, json.Unmarshal([]byte(`{
		"content": [
			{"type": "text", "text": "hello"},
			{"type": "image", "mimeType": "image/png", "data": "aGk="}
		],
		"isError": false
	}`), &result))

	require.Len(t, result.Content, 2)
	assert.Equal(t, "hello", result.Content[0].Text)
	assert.Equal(t, "image/png", result.Content[1].MimeType)
	assert.False(t, result.IsError)
}
