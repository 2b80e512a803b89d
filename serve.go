package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spachava753/term-mcp/internal"
	"github.com/spachava753/term-mcp/internal/jsonrpc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve newline-delimited JSON-RPC 2.0 on stdin/stdout",
	Long: `Serve MCP requests as newline-delimited JSON-RPC 2.0 messages on stdin and stdout.

Every request gets exactly one response line. Notifications (requests without an id)
are processed but not answered. Logs go to stderr.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	env, cleanup, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	d := internal.NewDispatcher(env.tools, version(), env.metrics, env.log)
	env.log.Info("serving JSON-RPC on stdio", zap.Strings("methods", d.Methods()))

	if err := jsonrpc.Serve(ctx, d, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		env.log.Error("server stopped", zap.Error(err))
		return err
	}
	env.log.Info("server stopped")
	return nil
}
