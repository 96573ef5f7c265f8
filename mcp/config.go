// ABOUTME: Parses mcpServers JSON manifests into ServerConfig values,
// ABOUTME: carrying per-server transport selection and timeouts.
package mcp

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// serverManifest mirrors the mcpServers layout shared by MCP hosts.
type serverManifest struct {
	MCPServers map[string]*manifestEntry `json:"mcpServers"`
}

type manifestEntry struct {
	URL       string            `json:"url"`
	Transport string            `json:"transport"`
	Headers   map[string]string `json:"headers"`
	// Timeouts are whole seconds on the wire.
	Timeout        int `json:"timeout"`
	SSEReadTimeout int `json:"sseReadTimeout"`
}

// ParseServers decodes an mcpServers manifest. Entries without an
// explicit transport are auto-detected at connect time.
func ParseServers(data []byte) (map[string]ServerConfig, error) {
	var manifest serverManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, errors.Wrap(err, "parse mcpServers manifest")
	}

	servers := make(map[string]ServerConfig, len(manifest.MCPServers))
	for name, entry := range manifest.MCPServers {
		if entry.URL == "" {
			return nil, errors.Errorf("server %q: url is required", name)
		}
		config := ServerConfig{
			Name:      name,
			Transport: entry.Transport,
			URL:       entry.URL,
			Headers:   entry.Headers,
		}
		if entry.Timeout > 0 {
			config.Timeout = time.Duration(entry.Timeout) * time.Second
		}
		if entry.SSEReadTimeout > 0 {
			config.SSEReadTimeout = time.Duration(entry.SSEReadTimeout) * time.Second
		}
		servers[name] = config
	}
	return servers, nil
}
