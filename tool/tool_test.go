// ABOUTME: Tests for the tool registry and result constructors.
package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTool struct {
	name string
	desc string
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Description() string { return s.desc }
func (s *stubTool) Execute(ctx context.Context, params map[string]any) (*Result, error) {
	return NewResult(s.name, true, "ok", ""), nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, 0, r.Len())

	r.Register(&stubTool{name: "echo", desc: "v1"})
	require.Equal(t, 1, r.Len())

	got, ok := r.Get("echo")
	require.True(t, ok)
	assert.Equal(t, "v1", got.Description())

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistryRegisterReplaces(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "echo", desc: "v1"})
	r.Register(&stubTool{name: "echo", desc: "v2"})

	require.Equal(t, 1, r.Len())
	got, _ := r.Get("echo")
	assert.Equal(t, "v2", got.Description())
}

func TestRegistryListSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "zeta"})
	r.Register(&stubTool{name: "alpha"})
	r.Register(&stubTool{name: "mid"})

	list := r.List()
	require.Len(t, list, 3)
	assert.Equal(t, "alpha", list[0].Name())
	assert.Equal(t, "mid", list[1].Name())
	assert.Equal(t, "zeta", list[2].Name())
}

func TestNewResult(t *testing.T) {
	res := NewResult("calc", true, "42", "")
	assert.Equal(t, "calc", res.ToolName)
	assert.True(t, res.Success)
	assert.Equal(t, "42", res.Output)
	assert.NotNil(t, res.Metadata)
}

func TestNewErrorResult(t *testing.T) {
	res := NewErrorResult("calc", "boom")
	assert.False(t, res.Success)
	assert.Equal(t, "boom", res.Error)
	assert.Empty(t, res.Output)
}
