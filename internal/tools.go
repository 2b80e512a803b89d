package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// Tools implements the three terminal tools on top of one Terminal. Arguments are
// validated before anything is written to the session.
type Tools struct {
	terminal  *Terminal
	validator *Validator
	log       *zap.Logger
}

func NewTools(terminal *Terminal, validator *Validator, log *zap.Logger) *Tools {
	return &Tools{terminal: terminal, validator: validator, log: orNop(log).Named("tools")}
}

// Terminal returns the terminal the tools operate on.
func (t *Tools) Terminal() *Terminal {
	return t.terminal
}

// WriteToTerminal validates and runs a command, returning the line delta.
func (t *Tools) WriteToTerminal(ctx context.Context, args WriteToTerminalArgs) (WriteToTerminalOutput, error) {
	command, err := t.validator.Command(args.Command)
	if err != nil {
		t.log.Info("command rejected", zap.Error(err))
		return WriteToTerminalOutput{}, err
	}

	res, err := t.terminal.Execute(ctx, command)
	if err != nil {
		return WriteToTerminalOutput{}, err
	}
	return WriteToTerminalOutput{LinesOutput: res.LinesOutput, TimedOut: res.TimedOut}, nil
}

// ReadTerminalOutput returns the last linesOfOutput lines of the terminal.
func (t *Tools) ReadTerminalOutput(ctx context.Context, args ReadTerminalOutputArgs) (ReadTerminalOutputOutput, error) {
	n, err := t.validator.Lines(args.LinesOfOutput)
	if err != nil {
		return ReadTerminalOutputOutput{}, err
	}
	return ReadTerminalOutputOutput{Lines: n, Output: t.terminal.Tail(ctx, n)}, nil
}

// SendControlCharacter writes Control-<letter> to the terminal.
func (t *Tools) SendControlCharacter(ctx context.Context, args SendControlCharacterArgs) (SendControlCharacterOutput, error) {
	letter, err := t.validator.ControlLetter(args.Letter)
	if err != nil {
		return SendControlCharacterOutput{}, err
	}
	if err := t.terminal.SendControl(letter); err != nil {
		return SendControlCharacterOutput{}, err
	}
	return SendControlCharacterOutput{Letter: letter}, nil
}

func writeText(out WriteToTerminalOutput) string {
	text := fmt.Sprintf("%d lines were output after sending the command to the terminal. "+
		"Read the last %d lines of terminal contents to orient yourself. "+
		"Never assume that the command was executed or that it was successful.",
		out.LinesOutput, out.LinesOutput)
	if out.TimedOut {
		text += " The command was still running when the wait limit was reached."
	}
	return text
}

func controlText(out SendControlCharacterOutput) string {
	return "Sent control character: Control-" + out.Letter
}

// List returns the tool descriptors for tools/list.
func (t *Tools) List() []ToolDescriptor {
	defs := []*mcp.Tool{&WriteToTerminalToolDef, &ReadTerminalOutputToolDef, &SendControlCharacterToolDef}
	list := make([]ToolDescriptor, 0, len(defs))
	for _, def := range defs {
		list = append(list, ToolDescriptor{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		})
	}
	return list
}

// Call decodes raw arguments for the named tool and runs it.
func (t *Tools) Call(ctx context.Context, name string, raw json.RawMessage) (ToolResult, error) {
	switch name {
	case ToolWriteToTerminal:
		var args WriteToTerminalArgs
		if err := decodeArgs(raw, &args); err != nil {
			return ToolResult{}, err
		}
		out, err := t.WriteToTerminal(ctx, args)
		if err != nil {
			return ToolResult{}, err
		}
		return textResult(writeText(out)), nil

	case ToolReadTerminalOutput:
		var args ReadTerminalOutputArgs
		if err := decodeArgs(raw, &args); err != nil {
			return ToolResult{}, err
		}
		out, err := t.ReadTerminalOutput(ctx, args)
		if err != nil {
			return ToolResult{}, err
		}
		return textResult(out.Output), nil

	case ToolSendControlCharacter:
		var args SendControlCharacterArgs
		if err := decodeArgs(raw, &args); err != nil {
			return ToolResult{}, err
		}
		out, err := t.SendControlCharacter(ctx, args)
		if err != nil {
			return ToolResult{}, err
		}
		return textResult(controlText(out)), nil
	}
	return ToolResult{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
}

func decodeArgs(raw json.RawMessage, v any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return invalid("arguments", "%v", err)
	}
	return nil
}

// WriteToTerminalTool handles write_to_terminal for the SDK server
func (t *Tools) WriteToTerminalTool(ctx context.Context, req *mcp.CallToolRequest, args WriteToTerminalArgs) (*mcp.CallToolResult, WriteToTerminalOutput, error) {
	out, err := t.WriteToTerminal(ctx, args)
	if err != nil {
		return nil, WriteToTerminalOutput{}, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: writeText(out)},
		},
	}, out, nil
}

// ReadTerminalOutputTool handles read_terminal_output for the SDK server
func (t *Tools) ReadTerminalOutputTool(ctx context.Context, req *mcp.CallToolRequest, args ReadTerminalOutputArgs) (*mcp.CallToolResult, ReadTerminalOutputOutput, error) {
	out, err := t.ReadTerminalOutput(ctx, args)
	if err != nil {
		return nil, ReadTerminalOutputOutput{}, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: out.Output},
		},
	}, out, nil
}

// SendControlCharacterTool handles send_control_character for the SDK server
func (t *Tools) SendControlCharacterTool(ctx context.Context, req *mcp.CallToolRequest, args SendControlCharacterArgs) (*mcp.CallToolResult, SendControlCharacterOutput, error) {
	out, err := t.SendControlCharacter(ctx, args)
	if err != nil {
		return nil, SendControlCharacterOutput{}, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: controlText(out)},
		},
	}, out, nil
}

// Tool definitions
var WriteToTerminalToolDef = mcp.Tool{
	Name: ToolWriteToTerminal,
	Description: "Write text to the active terminal session and press enter. " +
		"Waits until the terminal is idle, or a time limit passes, and reports how many lines were output.",
	InputSchema: &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"command": {
				Type:        "string",
				Description: "command to write to the terminal, a newline is appended",
			},
		},
		Required: []string{"command"},
	},
	Annotations: &mcp.ToolAnnotations{
		DestructiveHint: ptr(true),
		OpenWorldHint:   ptr(true),
		Title:           "Write To Terminal",
	},
}

var ReadTerminalOutputToolDef = mcp.Tool{
	Name:        ToolReadTerminalOutput,
	Description: "Read the last lines of output from the active terminal session",
	InputSchema: &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"linesOfOutput": {
				Type:        "number",
				Description: "number of trailing lines to read (default 25)",
			},
		},
	},
	Annotations: &mcp.ToolAnnotations{
		ReadOnlyHint: true,
		Title:        "Read Terminal Output",
	},
}

var SendControlCharacterToolDef = mcp.Tool{
	Name:        ToolSendControlCharacter,
	Description: "Send a control character to the active terminal session, for example C to send Control-C",
	InputSchema: &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"letter": {
				Type:        "string",
				Description: "letter of the control character, for example C for Control-C",
			},
		},
		Required: []string{"letter"},
	},
	Annotations: &mcp.ToolAnnotations{
		DestructiveHint: ptr(true),
		Title:           "Send Control Character",
	},
}

func ptr[T any](t T) *T {
	return &t
}
