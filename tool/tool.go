// ABOUTME: Defines the core Tool interface - the local abstraction that
// ABOUTME: remote MCP tools are adapted onto.
package tool

import "context"

// Tool is the interface for an executable capability.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description.
	Description() string

	// Execute runs the tool with the given parameters.
	Execute(ctx context.Context, params map[string]any) (*Result, error)
}

// SchemaProvider is implemented by tools that publish a JSON schema for
// their parameters.
type SchemaProvider interface {
	InputSchema() map[string]any
}
