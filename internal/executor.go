package internal

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type execState int

const (
	stateIdle execState = iota
	stateWriting
	statePolling
	stateDraining
	stateDone
	stateTimedOut
)

func (s execState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateWriting:
		return "writing"
	case statePolling:
		return "polling"
	case stateDraining:
		return "draining"
	case stateDone:
		return "done"
	case stateTimedOut:
		return "timed_out"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ExecResult describes one finished command.
type ExecResult struct {
	ID string `json:"id"`
	// LinesOutput is the line count of the buffer after the command minus the count before it.
	LinesOutput int           `json:"lines_output"`
	TimedOut    bool          `json:"timed_out"`
	Elapsed     time.Duration `json:"elapsed"`
	// Output holds the last LinesOutput lines of the buffer.
	Output string `json:"output"`
	// LastActive is the last busy process seen while polling, if any.
	LastActive *ActivitySnapshot `json:"last_active,omitempty"`
}

// Executor runs one command at a time against a shell session and decides when it has
// finished by watching CPU activity in the shell's process tree.
type Executor struct {
	session Session
	reader  *OutputReader
	probe   ActivityProbe
	cfg     ExecConfig
	log     *zap.Logger
	metrics *Metrics
}

// NewExecutor wires an executor. Callers must serialize Execute; see Terminal.
func NewExecutor(session Session, reader *OutputReader, probe ActivityProbe, cfg ExecConfig, log *zap.Logger, metrics *Metrics) *Executor {
	return &Executor{
		session: session,
		reader:  reader,
		probe:   probe,
		cfg:     cfg,
		log:     orNop(log).Named("executor"),
		metrics: metrics,
	}
}

// Execute writes command to the shell and returns once the shell looks idle or the
// ceiling has passed. Hitting the ceiling is not an error: whatever was captured is
// returned with TimedOut set. Only a failed write, or ctx ending, produces an error.
func (e *Executor) Execute(ctx context.Context, command string) (ExecResult, error) {
	res := ExecResult{ID: uuid.NewString()}
	log := e.log.With(zap.String("exec", res.ID))

	var (
		state   = stateIdle
		before  int
		written time.Time
		ctxErr  error
	)

	move := func(next execState) {
		log.Debug("state", zap.Stringer("from", state), zap.Stringer("to", next))
		state = next
	}

	for state != stateDone && state != stateTimedOut {
		switch state {
		case stateIdle:
			e.reader.ReadPending(ctx)
			before = e.reader.LineCount()
			move(stateWriting)

		case stateWriting:
			if _, err := io.WriteString(e.session, command+"\n"); err != nil {
				execErr := &ExecutionError{Op: ToolWriteToTerminal, Input: command, Err: err}
				log.Error("write failed", zap.Error(err))
				e.metrics.RecordExecution(res, execErr)
				return res, execErr
			}
			written = time.Now()
			if ctxErr = sleep(ctx, e.cfg.SettleDelay); ctxErr != nil {
				move(stateDraining)
				continue
			}
			move(statePolling)

		case statePolling:
			e.reader.ReadPending(ctx)
			snap, active := e.probe.ActiveProcess(ctx)
			if !active || snap.CPUPercent < e.cfg.IdleThreshold {
				move(stateDraining)
				continue
			}
			res.LastActive = &snap
			if time.Since(written) > e.cfg.Ceiling {
				log.Warn("ceiling reached, returning partial output",
					zap.Duration("ceiling", e.cfg.Ceiling),
					zap.Int32("pid", snap.PID),
					zap.String("process", snap.Name),
					zap.Float64("cpu_percent", snap.CPUPercent))
				move(stateTimedOut)
				continue
			}
			if ctxErr = sleep(ctx, e.cfg.PollInterval); ctxErr != nil {
				move(stateDraining)
			}

		case stateDraining:
			// trailing output is often flushed right as the process exits
			if ctxErr == nil {
				ctxErr = sleep(ctx, e.cfg.FinalDelay)
			}
			e.reader.ReadPending(ctx)
			move(stateDone)
		}
	}

	e.reader.ReadPending(ctx)
	after := e.reader.LineCount()

	res.LinesOutput = after - before
	res.TimedOut = state == stateTimedOut
	res.Elapsed = time.Since(written)
	if res.LinesOutput > 0 {
		res.Output = e.reader.Tail(res.LinesOutput)
	}

	if ctxErr != nil {
		log.Info("execution interrupted", zap.Error(ctxErr))
		err := fmt.Errorf("execution interrupted: %w", ctxErr)
		e.metrics.RecordExecution(res, err)
		return res, err
	}

	log.Info("command finished",
		zap.Int("lines", res.LinesOutput),
		zap.Bool("timed_out", res.TimedOut),
		zap.Duration("elapsed", res.Elapsed))
	e.metrics.RecordExecution(res, nil)
	return res, nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
