// ABOUTME: One-shot convenience helpers - connect, initialize, run one
// ABOUTME: operation against a server, and tear the client down again.
package mcp

import (
	"context"
	"strings"
)

// FetchTools connects to a server, performs the handshake, lists its
// tools, and closes the client.
func FetchTools(ctx context.Context, config ServerConfig) ([]ToolInfo, error) {
	client, err := NewClient(ctx, config)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	if err := client.Initialize(ctx); err != nil {
		return nil, err
	}
	return client.ListTools(ctx)
}

// ExecuteTool runs one tool call end to end. Every failure is folded into
// the returned text instead of an error, so the result can be handed
// straight to a model or a user.
func ExecuteTool(ctx context.Context, config ServerConfig, toolName string, toolArgs map[string]any) string {
	client, err := NewClient(ctx, config)
	if err != nil {
		return executeToolError(config, err)
	}
	defer client.Close()

	if err := client.Initialize(ctx); err != nil {
		return executeToolError(config, err)
	}
	result, err := client.CallTool(ctx, toolName, toolArgs)
	if err != nil {
		return executeToolError(config, err)
	}
	return ContentText(result.Content)
}

func executeToolError(config ServerConfig, err error) string {
	config.withDefaults().Logger.Error("tool execution failed", "error", err)
	return "Error executing tool: " + err.Error()
}

// ContentText flattens content blocks into a single text block,
// summarizing non-text blocks by type.
func ContentText(blocks []ContentBlock) string {
	var parts []string
	for _, block := range blocks {
		switch block.Type {
		case "text":
			parts = append(parts, block.Text)
		case "image", "resource":
			parts = append(parts, "["+block.Type+": "+block.MimeType+"]")
		}
	}
	return strings.Join(parts, "\n")
}
