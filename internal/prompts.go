package internal

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type prompt struct {
	name        string
	description string
	text        string
}

var prompts = []prompt{
	{
		name:        "terminal_help",
		description: "Get help with terminal commands and operations",
		text: `You are a terminal assistant. Help the user with shell commands and terminal operations.

Available tools:
- write_to_terminal: Execute commands in the terminal
- read_terminal_output: Read terminal output
- send_control_character: Send control characters (like Ctrl+C)

Common commands:
- ls: List files and directories
- cd: Change directory
- pwd: Print working directory
- mkdir: Create directory
- cp: Copy files
- mv: Move/rename files
- cat: Display file contents
- grep: Search for text patterns
- ps: Show running processes
- top/htop: Monitor system resources

When the user asks for help with terminal operations, provide clear explanations and examples.`,
	},
	{
		name:        "file_operations",
		description: "Common file and directory operations",
		text: `You are a file operations assistant. Help with file and directory management.

Common file operations:
- Create files: touch filename
- Edit files: echo redirection or a non-interactive tool such as sed
- View files: cat, head, tail
- Find files: find /path -name "pattern"
- Archive files: tar, zip

Directory operations:
- Create: mkdir dirname
- Remove: rmdir (empty directories only)
- Navigate: cd path
- List contents: ls -la

Interactive editors and pagers do not work well in this terminal; prefer commands that exit on their own.`,
	},
	{
		name:        "system_info",
		description: "Get system information and status",
		text: `You are a system information assistant. Help gather system details.

Useful commands:
- uname -a: System information
- df -h: Disk usage
- free -h: Memory usage
- who: Logged in users
- uptime: System uptime
- lscpu: CPU information
- lsblk: Block devices
- ip addr: Network interfaces

The system://info resource has a summary of the host. Provide clear, organized information about the system's current state.`,
	},
	{
		name:        "process_management",
		description: "Manage running processes",
		text: `You are a process management assistant. Help with running processes.

Process commands:
- ps aux: List all processes
- kill PID: Terminate a process
- nice: Set process priority
- nohup: Run in background
- jobs: List background jobs
- fg/bg: Foreground/background control

A command that keeps running is returned after a time limit; use send_control_character with C to interrupt it.`,
	},
}

func findPrompt(name string) (prompt, bool) {
	for _, p := range prompts {
		if p.name == name {
			return p, true
		}
	}
	return prompt{}, false
}

// ListPrompts returns the prompt descriptors for prompts/list.
func ListPrompts() []PromptDescriptor {
	list := make([]PromptDescriptor, 0, len(prompts))
	for _, p := range prompts {
		list = append(list, PromptDescriptor{Name: p.name, Description: p.description, Arguments: []PromptArgument{}})
	}
	return list
}

// GetPrompt renders a prompt. None of the prompts take arguments.
func GetPrompt(name string) (PromptResult, error) {
	p, ok := findPrompt(name)
	if !ok {
		return PromptResult{}, fmt.Errorf("%w: %s", ErrUnknownPrompt, name)
	}
	return PromptResult{
		Description: p.description,
		Messages: []PromptMessage{
			{Role: "user", Content: Content{Type: "text", Text: p.text}},
		},
	}, nil
}

func addPrompts(server *mcp.Server) {
	for _, p := range prompts {
		server.AddPrompt(&mcp.Prompt{Name: p.name, Description: p.description}, promptHandler(p.name))
	}
}

func promptHandler(name string) mcp.PromptHandler {
	return func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		res, err := GetPrompt(name)
		if err != nil {
			return nil, err
		}
		messages := make([]*mcp.PromptMessage, 0, len(res.Messages))
		for _, m := range res.Messages {
			messages = append(messages, &mcp.PromptMessage{
				Role:    mcp.Role(m.Role),
				Content: &mcp.TextContent{Text: m.Content.Text},
			})
		}
		return &mcp.GetPromptResult{Description: res.Description, Messages: messages}, nil
	}
}
