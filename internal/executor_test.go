package internal

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nalgeon/be"
)

func newTestExecutor(s *fakeSession, probe ActivityProbe, cfg ExecConfig) *Executor {
	reader := NewOutputReader(s, cfg.DrainQuiet, cfg.DrainMax)
	return NewExecutor(s, reader, probe, cfg, nil, nil)
}

func TestExecuteLineDelta(t *testing.T) {
	s := newFakeSession()
	s.respond = func(p []byte) []byte {
		return []byte("alpha\r\nbeta\r\ngamma\r\n")
	}
	cfg := fastExecConfig()
	e := newTestExecutor(s, &fakeProbe{}, cfg)

	res, err := e.Execute(t.Context(), "printf stuff")
	be.Err(t, err, nil)
	be.Equal(t, res.LinesOutput, 3)
	be.True(t, !res.TimedOut)
	be.True(t, res.Elapsed < cfg.Ceiling)
	be.Equal(t, res.Output, "beta\ngamma\n")
	be.Equal(t, s.written(), []string{"printf stuff\n"})
}

func TestExecuteIgnoresEarlierOutput(t *testing.T) {
	s := newFakeSession()
	s.respond = func(p []byte) []byte { return []byte("x\n") }
	e := newTestExecutor(s, &fakeProbe{}, fastExecConfig())

	// a prompt printed before the command must not count toward its delta
	s.emit("prompt$ \nmotd\n")

	res, err := e.Execute(t.Context(), "true")
	be.Err(t, err, nil)
	be.Equal(t, res.LinesOutput, 1)
}

func TestExecuteWaitsForActivity(t *testing.T) {
	s := newFakeSession()
	probe := &fakeProbe{fn: func(call int) (ActivitySnapshot, bool) {
		if call <= 3 {
			// output trickles in while the process is busy
			s.emit("tick\n")
			return busy(42)
		}
		return ActivitySnapshot{}, false
	}}
	cfg := fastExecConfig()
	cfg.Ceiling = time.Second
	e := newTestExecutor(s, probe, cfg)

	res, err := e.Execute(t.Context(), "make")
	be.Err(t, err, nil)
	be.Equal(t, probe.count(), 4)
	be.Equal(t, res.LinesOutput, 3)
	be.True(t, !res.TimedOut)
	be.True(t, res.LastActive != nil)
	be.Equal(t, res.LastActive.PID, int32(42))
}

func TestExecuteBelowThresholdIsIdle(t *testing.T) {
	s := newFakeSession()
	probe := &fakeProbe{fn: func(call int) (ActivitySnapshot, bool) {
		return ActivitySnapshot{PID: 7, CPUPercent: 0.5, Active: true}, true
	}}
	e := newTestExecutor(s, probe, fastExecConfig())

	res, err := e.Execute(t.Context(), "sleep 100")
	be.Err(t, err, nil)
	be.Equal(t, probe.count(), 1)
	be.True(t, !res.TimedOut)
}

func TestExecuteCeiling(t *testing.T) {
	s := newFakeSession()
	probe := &fakeProbe{fn: func(call int) (ActivitySnapshot, bool) { return busy(99) }}
	cfg := fastExecConfig()
	cfg.Ceiling = 60 * time.Millisecond
	e := newTestExecutor(s, probe, cfg)

	start := time.Now()
	res, err := e.Execute(t.Context(), "while :; do :; done")
	be.Err(t, err, nil)
	be.True(t, res.TimedOut)
	be.True(t, res.Elapsed >= cfg.Ceiling)
	be.True(t, time.Since(start) < 2*time.Second)
}

func TestExecuteWriteFailure(t *testing.T) {
	s := newFakeSession()
	s.writeErr = ErrSessionClosed
	probe := &fakeProbe{}
	e := newTestExecutor(s, probe, fastExecConfig())

	_, err := e.Execute(t.Context(), "ls")
	be.Err(t, err, ErrSessionClosed)

	var execErr *ExecutionError
	be.True(t, errors.As(err, &execErr))
	be.Equal(t, execErr.Op, ToolWriteToTerminal)
	be.Equal(t, execErr.Input, "ls")

	// a dead session is never mistaken for an idle one
	be.Equal(t, probe.count(), 0)
}

func TestExecuteCancelled(t *testing.T) {
	s := newFakeSession()
	probe := &fakeProbe{fn: func(call int) (ActivitySnapshot, bool) { return busy(1) }}
	cfg := fastExecConfig()
	cfg.Ceiling = time.Minute
	e := newTestExecutor(s, probe, cfg)

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := e.Execute(ctx, "yes")
	be.Err(t, err, context.DeadlineExceeded)
	be.True(t, strings.Contains(err.Error(), "interrupted"))
	be.True(t, time.Since(start) < 5*time.Second)
}

func TestExecStateString(t *testing.T) {
	be.Equal(t, stateIdle.String(), "idle")
	be.Equal(t, stateTimedOut.String(), "timed_out")
	be.Equal(t, execState(42).String(), "state(42)")
}
