package internal

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Terminal bundles the components that share one shell session. Executions run one
// at a time; individual writes, from a command or a control character, never interleave.
type Terminal struct {
	session Session
	reader  *OutputReader
	exec    *Executor
	control *ControlSender

	// execMu is held for a whole execution, polling included.
	execMu sync.Mutex
}

// NewTerminal builds the reader, executor and control sender around session.
func NewTerminal(session Session, probe ActivityProbe, cfg ExecConfig, log *zap.Logger, metrics *Metrics) *Terminal {
	reader := NewOutputReader(session, cfg.DrainQuiet, cfg.DrainMax)
	writer := &serialSession{Session: session}
	return &Terminal{
		session: session,
		reader:  reader,
		exec:    NewExecutor(writer, reader, probe, cfg, log, metrics),
		control: NewControlSender(writer, log, metrics),
	}
}

// Execute runs command; concurrent callers wait their turn.
func (t *Terminal) Execute(ctx context.Context, command string) (ExecResult, error) {
	t.execMu.Lock()
	defer t.execMu.Unlock()
	return t.exec.Execute(ctx, command)
}

// SendControl writes Control-<letter> right away, even while a command is being
// polled, so Control-C can interrupt it.
func (t *Terminal) SendControl(letter string) error {
	return t.control.Send(letter)
}

// Tail drains pending output and returns the last n lines. It does not wait for
// a running command.
func (t *Terminal) Tail(ctx context.Context, n int) string {
	t.reader.ReadPending(ctx)
	return t.reader.Tail(n)
}

// Snapshot drains pending output and returns the whole buffer.
func (t *Terminal) Snapshot(ctx context.Context) string {
	t.reader.ReadPending(ctx)
	return t.reader.Snapshot()
}

// Close shuts down the underlying session.
func (t *Terminal) Close() error {
	return t.session.Close()
}

// serialSession makes each Write atomic with respect to the others.
type serialSession struct {
	Session
	mu sync.Mutex
}

func (s *serialSession) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Session.Write(p)
}
