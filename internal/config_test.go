package internal

import (
	"testing"
	"time"

	"github.com/nalgeon/be"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SHELL", "/bin/sh")

	cfg, err := Load()
	be.Err(t, err, nil)
	be.Equal(t, cfg.Shell.Path, "/bin/sh")
	be.Equal(t, cfg.Shell.Term, "dumb")
	be.Equal(t, cfg.Exec, DefaultExecConfig())
	be.Equal(t, cfg.Validation, DefaultValidationConfig())
	be.Equal(t, cfg.Log.Level, "info")
	be.Equal(t, cfg.Metrics.Addr, "")
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TERM_MCP_SHELL_PATH", "/bin/zsh")
	t.Setenv("TERM_MCP_SHELL_ARGS", "-i,--no-rcs")
	t.Setenv("TERM_MCP_EXEC_CEILING", "45s")
	t.Setenv("TERM_MCP_EXEC_IDLE_THRESHOLD", "2.5")
	t.Setenv("TERM_MCP_VALIDATION_DEFAULT_LINES", "10")
	t.Setenv("TERM_MCP_LOG_LEVEL", "debug")
	t.Setenv("TERM_MCP_METRICS_ADDR", ":9090")

	cfg, err := Load()
	be.Err(t, err, nil)
	be.Equal(t, cfg.Shell.Path, "/bin/zsh")
	be.Equal(t, cfg.Shell.Args, []string{"-i", "--no-rcs"})
	be.Equal(t, cfg.Exec.Ceiling, 45*time.Second)
	be.Equal(t, cfg.Exec.IdleThreshold, 2.5)
	be.Equal(t, cfg.Validation.DefaultLines, 10)
	be.Equal(t, cfg.Log.Level, "debug")
	be.Equal(t, cfg.Metrics.Addr, ":9090")
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("TERM_MCP_EXEC_CEILING", "0s")
	_, err := Load()
	be.Err(t, err, "ceiling must be positive")
}

func TestLoadUnparsable(t *testing.T) {
	t.Setenv("TERM_MCP_EXEC_POLL_INTERVAL", "soon")
	_, err := Load()
	be.Err(t, err, "failed to load config")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	be.Err(t, cfg.Validate(), nil)

	cfg.Validation.DefaultLines = 2000
	be.Err(t, cfg.Validate(), "default lines")

	cfg = Default()
	cfg.Exec.IdleThreshold = -1
	be.Err(t, cfg.Validate(), "idle threshold")
}

func TestNewLogger(t *testing.T) {
	log, err := NewLogger(LogConfig{Level: "debug", Development: true})
	be.Err(t, err, nil)
	be.True(t, log != nil)

	_, err = NewLogger(LogConfig{Level: "loud"})
	be.True(t, err != nil)
}
