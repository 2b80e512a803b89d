package internal

import (
	"fmt"

	"go.uber.org/zap"
)

// Start spawns the shell described by cfg and wires the terminal tools around it.
// Closing the returned Tools' Terminal ends the shell.
func Start(cfg *Config, log *zap.Logger, metrics *Metrics) (*Tools, error) {
	log = orNop(log)

	session, err := StartSession(cfg.Shell, log.Named("session"))
	if err != nil {
		return nil, fmt.Errorf("failed to start shell session: %w", err)
	}

	tracker := NewActivityTracker(session.PID(), cfg.Exec.IdleThreshold, log.Named("activity"))
	terminal := NewTerminal(session, tracker, cfg.Exec, log, metrics)
	return NewTools(terminal, NewValidator(cfg.Validation), log), nil
}
