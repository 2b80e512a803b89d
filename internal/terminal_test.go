package internal

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nalgeon/be"
)

// overlapProbe reports the shell busy for a few polls after every write and counts
// writes that land while a previous command is still being polled.
type overlapProbe struct {
	remaining atomic.Int32
	overlaps  atomic.Int32
}

func (p *overlapProbe) onWrite() {
	if p.remaining.Load() > 0 {
		p.overlaps.Add(1)
	}
	p.remaining.Store(3)
}

func TestTerminalSerializesExecutions(t *testing.T) {
	probe := &overlapProbe{}
	s := newFakeSession()
	s.respond = func(p []byte) []byte {
		probe.onWrite()
		return append([]byte("ran "), p...)
	}

	cfg := fastExecConfig()
	term := NewTerminal(s, probeFunc(func() (ActivitySnapshot, bool) {
		if probe.remaining.Add(-1) >= 0 {
			return busy(1)
		}
		probe.remaining.Store(0)
		return ActivitySnapshot{}, false
	}), cfg, nil, nil)

	var wg sync.WaitGroup
	results := make([]ExecResult, 4)
	errs := make([]error, 4)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = term.Execute(t.Context(), "echo hi")
		}()
	}
	wg.Wait()

	for _, err := range errs {
		be.Err(t, err, nil)
	}

	be.Equal(t, probe.overlaps.Load(), int32(0))
	be.Equal(t, len(s.written()), 4)
	for _, res := range results {
		// each command saw exactly its own output line
		be.Equal(t, res.LinesOutput, 1)
	}
}

func TestTerminalReadsDoNotWrite(t *testing.T) {
	s := newFakeSession()
	term := NewTerminal(s, &fakeProbe{}, fastExecConfig(), nil, nil)

	s.emit("a\nb\nc")
	be.Equal(t, term.Tail(t.Context(), 2), "b\nc")
	be.Equal(t, term.Snapshot(t.Context()), "a\nb\nc")
	be.Equal(t, len(s.written()), 0)
}

func TestTerminalSendControl(t *testing.T) {
	s := newFakeSession()
	term := NewTerminal(s, &fakeProbe{}, fastExecConfig(), nil, nil)

	be.Err(t, term.SendControl("D"), nil)
	be.Equal(t, s.written(), []string{"\x04"})
	be.Err(t, term.Close(), nil)
}

func TestTerminalSendControlDuringExecution(t *testing.T) {
	var polled, interrupted atomic.Bool
	s := newFakeSession()
	s.respond = func(p []byte) []byte {
		if string(p) == "\x03" {
			interrupted.Store(true)
			return []byte("^C\n")
		}
		return nil
	}

	cfg := fastExecConfig()
	cfg.Ceiling = 5 * time.Second
	term := NewTerminal(s, probeFunc(func() (ActivitySnapshot, bool) {
		polled.Store(true)
		if interrupted.Load() {
			return ActivitySnapshot{}, false
		}
		return busy(1)
	}), cfg, nil, nil)

	type outcome struct {
		res ExecResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := term.Execute(t.Context(), "yes")
		done <- outcome{res, err}
	}()

	for !polled.Load() {
		time.Sleep(time.Millisecond)
	}

	start := time.Now()
	be.Err(t, term.SendControl("c"), nil)
	be.True(t, time.Since(start) < time.Second)

	select {
	case out := <-done:
		be.Err(t, out.err, nil)
		be.True(t, !out.res.TimedOut)
	case <-time.After(cfg.Ceiling):
		t.Fatal("execution kept polling after Control-C")
	}
	be.Equal(t, s.written(), []string{"yes\n", "\x03"})
}
