package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"runtime/debug"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spachava753/term-mcp/internal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const appName = "term-mcp"

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "MCP server that drives an interactive shell",
	Long: `term-mcp runs one interactive shell on a pseudo-terminal and exposes it over
the Model Context Protocol with three tools:
  - write_to_terminal: run a command and wait until the terminal is idle
  - read_terminal_output: read the last lines the terminal produced
  - send_control_character: send Control-<letter>, for example Control-C

Configuration is read from TERM_MCP_* environment variables; flags override them.`,
	Version:       version(),
	SilenceUsage:  true,
	SilenceErrors: true,
	// stdin is a pipe when an MCP client launched us
	RunE: func(cmd *cobra.Command, args []string) error {
		if isTerminal(os.Stdin) {
			return cmd.Help()
		}
		return runServe(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().String("shell", "", "shell to run (default $SHELL or /bin/bash)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("metrics-addr", "", "serve prometheus metrics on this address")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)

	rootCmd.SetVersionTemplate(fmt.Sprintf("%s %s\n", appName, version()))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func version() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok || bi.Main.Version == "" {
		return "dev"
	}
	return bi.Main.Version
}

func isTerminal(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*internal.Config, error) {
	cfg, err := internal.Load()
	if err != nil {
		return nil, err
	}
	if shell, _ := cmd.Flags().GetString("shell"); shell != "" {
		cfg.Shell.Path = shell
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		cfg.Metrics.Addr = addr
	}
	return cfg, nil
}

// environment is everything a transport needs to serve requests.
type environment struct {
	cfg     *internal.Config
	log     *zap.Logger
	metrics *internal.Metrics
	tools   *internal.Tools
}

func setup(ctx context.Context, cmd *cobra.Command) (*environment, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	log, err := internal.NewLogger(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := internal.NewMetrics(reg)

	tools, err := internal.Start(cfg, log, metrics)
	if err != nil {
		_ = log.Sync()
		return nil, nil, err
	}

	stopMetrics := serveMetrics(ctx, cfg.Metrics.Addr, reg, log)

	cleanup := func() {
		stopMetrics()
		if err := tools.Terminal().Close(); err != nil {
			log.Debug("closing terminal", zap.Error(err))
		}
		_ = log.Sync()
	}
	return &environment{cfg: cfg, log: log, metrics: metrics, tools: tools}, cleanup, nil
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, log *zap.Logger) func() {
	if addr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}
