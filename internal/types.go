package internal

// Tool names as exposed over tools/list and tools/call.
const (
	ToolWriteToTerminal      = "write_to_terminal"
	ToolReadTerminalOutput   = "read_terminal_output"
	ToolSendControlCharacter = "send_control_character"
)

// WriteToTerminalArgs represents arguments for running a command in the terminal
type WriteToTerminalArgs struct {
	Command string `json:"command" jsonschema:"command to write to the terminal, a newline is appended"`
}

// WriteToTerminalOutput represents the result of running a command
type WriteToTerminalOutput struct {
	LinesOutput int  `json:"lines_output" jsonschema:"number of lines the terminal produced while the command ran"`
	TimedOut    bool `json:"timed_out" jsonschema:"whether the wait ceiling was reached before the terminal went idle"`
}

// ReadTerminalOutputArgs represents arguments for reading the tail of the terminal
type ReadTerminalOutputArgs struct {
	// float so that fractional values can be rejected instead of silently truncated
	LinesOfOutput *float64 `json:"linesOfOutput,omitempty" jsonschema:"number of trailing lines to read (default 25)"`
}

// ReadTerminalOutputOutput represents the terminal tail
type ReadTerminalOutputOutput struct {
	Lines  int    `json:"lines" jsonschema:"number of lines requested"`
	Output string `json:"output" jsonschema:"last lines of terminal output"`
}

// SendControlCharacterArgs represents arguments for sending a control character
type SendControlCharacterArgs struct {
	Letter string `json:"letter" jsonschema:"letter of the control character, for example C for Control-C"`
}

// SendControlCharacterOutput represents the result of sending a control character
type SendControlCharacterOutput struct {
	Letter string `json:"letter" jsonschema:"upper-cased letter that was sent"`
}

// Content is one block of a tool or prompt result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult is the body of a tools/call result.
type ToolResult struct {
	Content []Content `json:"content"`
}

func textResult(text string) ToolResult {
	return ToolResult{Content: []Content{{Type: "text", Text: text}}}
}

// ToolDescriptor is one entry of tools/list.
type ToolDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema any    `json:"inputSchema"`
}

// PromptArgument describes a prompt argument.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// PromptDescriptor is one entry of prompts/list.
type PromptDescriptor struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Arguments   []PromptArgument `json:"arguments"`
}

// PromptMessage is one message of a rendered prompt.
type PromptMessage struct {
	Role    string  `json:"role"`
	Content Content `json:"content"`
}

// PromptResult is the body of a prompts/get result.
type PromptResult struct {
	Description string          `json:"description"`
	Messages    []PromptMessage `json:"messages"`
}

// ResourceDescriptor is one entry of resources/list.
type ResourceDescriptor struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MIMEType    string `json:"mimeType"`
}

// ResourceContents is one entry of a resources/read result.
type ResourceContents struct {
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType"`
	Text     string `json:"text"`
}
