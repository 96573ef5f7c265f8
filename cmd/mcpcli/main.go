// ABOUTME: Command-line client for MCP servers - lists tools and invokes
// ABOUTME: them over SSE or streamable HTTP transports.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/2389-research/mcplink/mcp"
)

var (
	flagTransport string
	flagHeaders   []string
	flagTimeout   time.Duration
	flagVerbose   bool
	flagArgs      string
)

func main() {
	root := &cobra.Command{
		Use:           "mcpcli",
		Short:         "Talk to MCP servers over SSE or streamable HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flagTransport, "transport", "t", "auto_detect",
		"transport strategy: sse, streamable_http, or auto_detect")
	root.PersistentFlags().StringArrayVarP(&flagHeaders, "header", "H", nil,
		"extra HTTP header, key=value (repeatable)")
	root.PersistentFlags().DurationVar(&flagTimeout, "timeout", 60*time.Second,
		"per-request timeout")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false,
		"log transport activity to stderr")

	toolsCmd := &cobra.Command{
		Use:   "tools <url>",
		Short: "List the tools a server exposes",
		Args:  cobra.ExactArgs(1),
		RunE:  runTools,
	}

	callCmd := &cobra.Command{
		Use:   "call <url> <tool>",
		Short: "Invoke a tool and print its output",
		Args:  cobra.ExactArgs(2),
		RunE:  runCall,
	}
	callCmd.Flags().StringVar(&flagArgs, "args", "{}", "tool arguments as a JSON object")

	root.AddCommand(toolsCmd, callCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func serverConfig(url string) (mcp.ServerConfig, error) {
	headers := make(map[string]string, len(flagHeaders))
	for _, h := range flagHeaders {
		key, value, ok := strings.Cut(h, "=")
		if !ok {
			return mcp.ServerConfig{}, errors.Errorf("malformed header %q, want key=value", h)
		}
		headers[key] = value
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if flagVerbose {
		logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelDebug}))
	}

	return mcp.ServerConfig{
		Transport: flagTransport,
		URL:       url,
		Headers:   headers,
		Timeout:   flagTimeout,
		Logger:    logger,
	}, nil
}

func runTools(cmd *cobra.Command, args []string) error {
	config, err := serverConfig(args[0])
	if err != nil {
		return err
	}

	tools, err := mcp.FetchTools(cmd.Context(), config)
	if err != nil {
		return err
	}
	if len(tools) == 0 {
		fmt.Println("no tools")
		return nil
	}
	for _, t := range tools {
		fmt.Printf("%s\t%s\n", t.Name, t.Description)
	}
	return nil
}

func runCall(cmd *cobra.Command, args []string) error {
	config, err := serverConfig(args[0])
	if err != nil {
		return err
	}

	var toolArgs map[string]any
	if err := json.Unmarshal([]byte(flagArgs), &toolArgs); err != nil {
		return errors.Wrap(err, "parse --args")
	}

	fmt.Println(mcp.ExecuteTool(cmd.Context(), config, args[1], toolArgs))
	return nil
}
