// ABOUTME: Implements the Tool adapter - wraps tools served over MCP so
// ABOUTME: they satisfy the local tool.Tool interface.
package mcp

import (
	"context"

	"github.com/2389-research/mcplink/tool"
)

// ToolCaller is the interface for invoking MCP tools.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (*ToolCallResult, error)
}

// ToolAdapter wraps one served MCP tool to implement tool.Tool.
type ToolAdapter struct {
	info   ToolInfo
	caller ToolCaller
}

// NewToolAdapter creates an adapter for a served tool.
func NewToolAdapter(info ToolInfo, caller ToolCaller) *ToolAdapter {
	return &ToolAdapter{info: info, caller: caller}
}

// Name returns the tool name.
func (a *ToolAdapter) Name() string { return a.info.Name }

// Description returns the tool description.
func (a *ToolAdapter) Description() string { return a.info.Description }

// InputSchema returns the JSON schema for tool parameters.
func (a *ToolAdapter) InputSchema() map[string]any { return a.info.InputSchema }

// Execute calls the remote tool and converts its content blocks.
//
// When CallTool fails the method returns both an error Result and the
// error itself, so callers can either propagate the failure or keep
// handling tool.Result values uniformly.
func (a *ToolAdapter) Execute(ctx context.Context, params map[string]any) (*tool.Result, error) {
	mcpResult, err := a.caller.CallTool(ctx, a.info.Name, params)
	if err != nil {
		return tool.NewErrorResult(a.info.Name, err.Error()), err
	}

	output := ContentText(mcpResult.Content)
	result := tool.NewResult(a.info.Name, !mcpResult.IsError, output, "")
	if mcpResult.IsError {
		result.Error = output
	}
	return result, nil
}

// ToolManager keeps a server's tool adapters current.
type ToolManager struct {
	client *Client
	tools  map[string]*ToolAdapter
}

// NewToolManager creates a manager backed by client.
func NewToolManager(client *Client) *ToolManager {
	return &ToolManager{client: client, tools: make(map[string]*ToolAdapter)}
}

// Refresh reloads the tool list from the server.
func (m *ToolManager) Refresh(ctx context.Context) error {
	infos, err := m.client.ListTools(ctx)
	if err != nil {
		return err
	}
	m.tools = make(map[string]*ToolAdapter)
	for _, info := range infos {
		m.tools[info.Name] = NewToolAdapter(info, m.client)
	}
	return nil
}

// Tools returns all available tool adapters.
func (m *ToolManager) Tools() []*ToolAdapter {
	tools := make([]*ToolAdapter, 0, len(m.tools))
	for _, t := range m.tools {
		tools = append(tools, t)
	}
	return tools
}

// Get retrieves a specific tool adapter.
func (m *ToolManager) Get(name string) (*ToolAdapter, bool) {
	t, ok := m.tools[name]
	return t, ok
}

// RegisterAll adds every adapter to a tool registry.
func (m *ToolManager) RegisterAll(registry *tool.Registry) {
	for _, t := range m.tools {
		registry.Register(t)
	}
}
