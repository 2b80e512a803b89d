package internal

import (
	"context"
	"strings"
	"sync"
	"time"
)

// OutputBuffer is the append-only text of everything the terminal has produced.
// It is never truncated; readers slice it by lines.
type OutputBuffer struct {
	mu        sync.RWMutex
	data      strings.Builder
	pendingCR bool
}

// NewOutputBuffer creates an empty buffer
func NewOutputBuffer() *OutputBuffer {
	return &OutputBuffer{}
}

// Append adds terminal output. CRLF pairs are folded into LF, including pairs split
// across two calls; a lone CR is kept.
func (b *OutputBuffer) Append(p []byte) {
	if len(p) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	s := string(p)
	if b.pendingCR {
		b.pendingCR = false
		if s[0] != '\n' {
			b.data.WriteByte('\r')
		}
	}
	if strings.HasSuffix(s, "\r") {
		b.pendingCR = true
		s = s[:len(s)-1]
	}
	b.data.WriteString(strings.ReplaceAll(s, "\r\n", "\n"))
}

// Snapshot returns the whole buffer.
func (b *OutputBuffer) Snapshot() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.data.String()
}

// LineCount counts lines the way the executor diffs them: newlines plus one.
func (b *OutputBuffer) LineCount() int {
	return countLines(b.Snapshot())
}

// Tail returns the last n lines, or the whole buffer when it has n lines or fewer.
func (b *OutputBuffer) Tail(n int) string {
	return tailLines(b.Snapshot(), n)
}

func countLines(s string) int {
	return strings.Count(s, "\n") + 1
}

func tailLines(s string, n int) string {
	if n <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}

// OutputReader owns the read side of a session and feeds its buffer.
type OutputReader struct {
	src   <-chan []byte
	buf   *OutputBuffer
	quiet time.Duration
	max   time.Duration

	// drainMu keeps concurrent drains from reordering chunks.
	drainMu sync.Mutex
}

// NewOutputReader reads from the session's output stream. quiet is how long the stream must
// stay silent before a drain ends; max caps a single drain against a continuously
// writing process.
func NewOutputReader(session Session, quiet, max time.Duration) *OutputReader {
	if quiet <= 0 {
		quiet = 50 * time.Millisecond
	}
	if max < quiet {
		max = quiet
	}
	return &OutputReader{
		src:   session.Output(),
		buf:   NewOutputBuffer(),
		quiet: quiet,
		max:   max,
	}
}

// ReadPending moves everything the terminal has produced so far into the buffer.
// A quiet stream is the normal "no new output" case and is not an error.
func (r *OutputReader) ReadPending(ctx context.Context) {
	r.drainMu.Lock()
	defer r.drainMu.Unlock()

	deadline := time.NewTimer(r.max)
	defer deadline.Stop()
	idle := time.NewTimer(r.quiet)
	defer idle.Stop()

	for {
		select {
		case chunk, ok := <-r.src:
			if !ok {
				return
			}
			r.buf.Append(chunk)
			idle.Reset(r.quiet)
		case <-idle.C:
			return
		case <-deadline.C:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Buffer exposes the accumulated output.
func (r *OutputReader) Buffer() *OutputBuffer {
	return r.buf
}

func (r *OutputReader) Snapshot() string { return r.buf.Snapshot() }

func (r *OutputReader) Tail(n int) string { return r.buf.Tail(n) }

func (r *OutputReader) LineCount() int { return r.buf.LineCount() }
