package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func TestServe(t *testing.T) {
	d := newTestDispatcher(t)

	in := strings.Join([]string{
		`{"jsonrpc":"2.0","method":"subtract","params":[5,3],"id":1}`,
		``,
		`{"jsonrpc":"2.0","method":"ping"}`,
		`not json`,
		`{"jsonrpc":"2.0","method":"missing","id":"b"}`,
	}, "\n") + "\n"

	var out bytes.Buffer
	err := Serve(t.Context(), d, strings.NewReader(in), &out)
	be.Err(t, err, nil)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	be.Equal(t, len(lines), 3)

	var first, second, third Response
	be.Err(t, json.Unmarshal([]byte(lines[0]), &first), nil)
	be.Err(t, json.Unmarshal([]byte(lines[1]), &second), nil)
	be.Err(t, json.Unmarshal([]byte(lines[2]), &third), nil)

	be.Equal(t, string(first.ID), "1")
	be.Equal(t, string(first.Result.(json.RawMessage)), "2")

	be.Equal(t, second.Error.Code, CodeParseError)
	be.Equal(t, string(second.ID), "null")

	be.Equal(t, third.Error.Code, CodeMethodNotFound)
	be.Equal(t, string(third.ID), `"b"`)
}

func TestServeAnswersInvalidRequestsWithoutID(t *testing.T) {
	d := newTestDispatcher(t)

	in := strings.Join([]string{
		`{"jsonrpc":"1.0","method":"ping"}`,
		`{"jsonrpc":"2.0","method":1,"params":"bar"}`,
		`{"jsonrpc":"2.0","method":"ping","params":"bar"}`,
		`{"jsonrpc":"2.0","method":"missing"}`,
		`{"jsonrpc":"2.0","method":"ping"}`,
	}, "\n") + "\n"

	var out bytes.Buffer
	err := Serve(t.Context(), d, strings.NewReader(in), &out)
	be.Err(t, err, nil)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	be.Equal(t, len(lines), 4)

	want := []int{CodeInvalidRequest, CodeInvalidRequest, CodeInvalidRequest, CodeMethodNotFound}
	for i, line := range lines {
		var resp Response
		be.Err(t, json.Unmarshal([]byte(line), &resp), nil)
		be.Equal(t, resp.Error.Code, want[i])
		be.Equal(t, string(resp.ID), "null")
	}
}

func TestServeCancelled(t *testing.T) {
	d := newTestDispatcher(t)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	// the pipe never delivers a line, so only ctx can end Serve
	r, w := io.Pipe()
	defer w.Close()

	err := Serve(ctx, d, r, &bytes.Buffer{})
	be.Err(t, err, context.Canceled)
}
