package jsonrpc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// MaxLineSize bounds a single framed request.
const MaxLineSize = 4 << 20

// Serve reads newline-delimited requests from r and writes one response line per
// request to w. Responses to notifications are not written. Blank lines are skipped.
// Serve returns nil when r reaches EOF, or ctx.Err() once ctx is done.
//
// Requests are handled one at a time, in arrival order.
func Serve(ctx context.Context, d *Dispatcher, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)

	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			line := bytes.Clone(scanner.Bytes())
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	out := &lineWriter{w: w}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("reading requests: %w", err)
					}
				default:
				}
				return nil
			}
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			resp := d.Handle(ctx, line)
			if resp.IsNotification() {
				continue
			}
			if err := out.Write(resp); err != nil {
				return fmt.Errorf("writing response: %w", err)
			}
		}
	}
}

type lineWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lineWriter) Write(resp *Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		// a handler returned something unencodable
		data, err = json.Marshal(errorResponse(resp.ID, NewError(CodeInternalError, "Internal error", err.Error())))
		if err != nil {
			return err
		}
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, err = l.w.Write(data)
	return err
}
