package internal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session is the handle to the interactive shell. Writes go to the terminal input and
// every byte the terminal produces is delivered, in order, on Output.
type Session interface {
	io.Writer
	// Output is closed when the terminal reaches EOF.
	Output() <-chan []byte
	// PID is the shell's process ID, the root of the tree watched for activity.
	PID() int
	// Done is closed once the shell process has exited.
	Done() <-chan struct{}
	Close() error
}

// outputQueueSize bounds the chunks held between the PTY reader and the next drain.
// A full queue blocks the reader, which in turn blocks the shell on write.
const outputQueueSize = 1024

// PTYSession is a shell process attached to a pseudo-terminal.
type PTYSession struct {
	ID        string
	Shell     string
	StartedAt time.Time

	cmd    *exec.Cmd
	ptmx   *os.File
	output chan []byte
	done   chan struct{}
	log    *zap.Logger

	mu       sync.RWMutex
	closed   bool
	exitCode *int
}

// StartSession spawns the configured shell on a new pseudo-terminal.
func StartSession(cfg ShellConfig, log *zap.Logger) (*PTYSession, error) {
	shell := defaultShell(cfg.Path)
	cmd := exec.Command(shell, cfg.Args...)
	if cfg.WorkingDir != "" {
		cmd.Dir = cfg.WorkingDir
	}
	term := cfg.Term
	if term == "" {
		term = "dumb"
	}
	cmd.Env = append(os.Environ(), "TERM="+term)

	cols, rows := cfg.Cols, cfg.Rows
	if cols <= 0 {
		cols = 80
	}
	if rows <= 0 {
		rows = 24
	}

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
	if err != nil {
		return nil, fmt.Errorf("failed to start PTY: %w", err)
	}

	if !cfg.Echo {
		if err := disableEcho(ptmx); err != nil {
			ptmx.Close()
			_ = cmd.Process.Kill()
			_ = cmd.Wait()
			return nil, fmt.Errorf("failed to disable terminal echo: %w", err)
		}
	}

	s := &PTYSession{
		ID:        uuid.New().String(),
		Shell:     shell,
		StartedAt: time.Now(),
		cmd:       cmd,
		ptmx:      ptmx,
		output:    make(chan []byte, outputQueueSize),
		done:      make(chan struct{}),
	}
	s.log = orNop(log).With(zap.String("session", s.ID))

	go s.readOutput()
	go s.monitorProcess()

	s.log.Info("shell session started", zap.String("shell", shell), zap.Int("pid", cmd.Process.Pid))
	return s, nil
}

// readOutput copies terminal output into the queue until EOF.
func (s *PTYSession) readOutput() {
	defer close(s.output)

	buf := make([]byte, 4096)
	for {
		n, err := s.ptmx.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.output <- chunk
		}
		if err != nil {
			// Linux reports EIO on the master once the slave side is gone.
			if !errors.Is(err, io.EOF) && !errors.Is(err, syscall.EIO) && !errors.Is(err, os.ErrClosed) {
				s.log.Warn("terminal read failed", zap.Error(err))
			}
			return
		}
	}
}

// monitorProcess waits for the shell to exit and marks the session closed.
func (s *PTYSession) monitorProcess() {
	err := s.cmd.Wait()

	code := 0
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}

	s.mu.Lock()
	s.closed = true
	s.exitCode = &code
	s.mu.Unlock()
	close(s.done)

	s.log.Warn("shell exited", zap.Int("exit_code", code))
}

// Write sends raw bytes to the terminal input.
func (s *PTYSession) Write(p []byte) (int, error) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return 0, ErrSessionClosed
	}

	n, err := s.ptmx.Write(p)
	if err != nil && (errors.Is(err, os.ErrClosed) || errors.Is(err, syscall.EIO)) {
		return n, fmt.Errorf("%w: %v", ErrSessionClosed, err)
	}
	return n, err
}

func (s *PTYSession) Output() <-chan []byte { return s.output }

func (s *PTYSession) PID() int { return s.cmd.Process.Pid }

func (s *PTYSession) Done() <-chan struct{} { return s.done }

// ExitCode returns the shell's exit code once it has terminated.
func (s *PTYSession) ExitCode() *int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exitCode
}

// Close kills the shell and releases the terminal.
func (s *PTYSession) Close() error {
	s.mu.Lock()
	wasClosed := s.closed
	s.closed = true
	s.mu.Unlock()

	if !wasClosed && s.cmd.Process != nil {
		_ = s.cmd.Process.Signal(syscall.SIGHUP)
		select {
		case <-s.done:
		case <-time.After(2 * time.Second):
			_ = s.cmd.Process.Kill()
		}
	}
	return s.ptmx.Close()
}
