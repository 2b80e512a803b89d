package internal

import (
	"context"
	"sync"
	"time"
)

// fakeSession is an in-memory Session. respond, when set, produces the terminal
// output for each write.
type fakeSession struct {
	mu       sync.Mutex
	writes   [][]byte
	writeErr error
	respond  func(p []byte) []byte

	output chan []byte
	done   chan struct{}
	once   sync.Once
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		output: make(chan []byte, 64),
		done:   make(chan struct{}),
	}
}

func (f *fakeSession) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.writes = append(f.writes, append([]byte(nil), p...))
	if f.respond != nil {
		if out := f.respond(p); len(out) > 0 {
			f.output <- out
		}
	}
	return len(p), nil
}

// emit queues terminal output as if the shell had printed it.
func (f *fakeSession) emit(s string) {
	f.output <- []byte(s)
}

func (f *fakeSession) written() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.writes))
	for i, w := range f.writes {
		out[i] = string(w)
	}
	return out
}

func (f *fakeSession) Output() <-chan []byte { return f.output }

func (f *fakeSession) PID() int { return 0 }

func (f *fakeSession) Done() <-chan struct{} { return f.done }

func (f *fakeSession) Close() error {
	f.once.Do(func() { close(f.done) })
	return nil
}

// fakeProbe reports activity according to fn; a nil fn means always idle.
type fakeProbe struct {
	mu    sync.Mutex
	calls int
	fn    func(call int) (ActivitySnapshot, bool)
}

func (p *fakeProbe) ActiveProcess(ctx context.Context) (ActivitySnapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.fn == nil {
		return ActivitySnapshot{}, false
	}
	return p.fn(p.calls)
}

func (p *fakeProbe) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type probeFunc func() (ActivitySnapshot, bool)

func (f probeFunc) ActiveProcess(ctx context.Context) (ActivitySnapshot, bool) { return f() }

func busy(pid int32) (ActivitySnapshot, bool) {
	return ActivitySnapshot{PID: pid, Name: "busy", CPUPercent: 99, Active: true}, true
}

// fastExecConfig keeps executor tests in the millisecond range.
func fastExecConfig() ExecConfig {
	return ExecConfig{
		SettleDelay:   5 * time.Millisecond,
		PollInterval:  5 * time.Millisecond,
		FinalDelay:    5 * time.Millisecond,
		Ceiling:       100 * time.Millisecond,
		IdleThreshold: 1.0,
		DrainQuiet:    5 * time.Millisecond,
		DrainMax:      50 * time.Millisecond,
	}
}
