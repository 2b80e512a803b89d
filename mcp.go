package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spachava753/term-mcp/internal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve through the MCP Go SDK on stdio",
	Long: `Serve the same tools, prompts and resources through the MCP Go SDK stdio transport.

Use this mode with clients that rely on SDK features such as structured tool output.`,
	RunE: runMCP,
}

var mcpLogTraffic bool

func init() {
	mcpCmd.Flags().BoolVar(&mcpLogTraffic, "log-traffic", false, "log every MCP message to stderr")
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	env, cleanup, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	server := internal.GetServer(version(), env.tools)

	var t mcp.Transport = &mcp.StdioTransport{}
	if mcpLogTraffic {
		t = &mcp.LoggingTransport{Transport: t, Writer: cmd.ErrOrStderr()}
	}

	env.log.Info("serving MCP on stdio")
	if err := server.Run(ctx, t); err != nil && !errors.Is(err, context.Canceled) {
		env.log.Error("server failed", zap.Error(err))
		return err
	}
	return nil
}
