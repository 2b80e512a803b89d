package internal

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

const (
	TerminalOutputURI = "terminal://output"
	SystemInfoURI     = "system://info"
)

var resources = []ResourceDescriptor{
	{
		URI:         TerminalOutputURI,
		Name:        "Terminal Output Buffer",
		Description: "Everything the terminal session has output so far",
		MIMEType:    "text/plain",
	},
	{
		URI:         SystemInfoURI,
		Name:        "System Information",
		Description: "Basic information about the host running the terminal",
		MIMEType:    "text/plain",
	},
}

// ListResources returns the resource descriptors for resources/list.
func ListResources() []ResourceDescriptor {
	return append([]ResourceDescriptor(nil), resources...)
}

// ReadResource returns the current contents of uri.
func ReadResource(ctx context.Context, terminal *Terminal, uri string) (ResourceContents, error) {
	switch uri {
	case TerminalOutputURI:
		return ResourceContents{URI: uri, MIMEType: "text/plain", Text: terminal.Snapshot(ctx)}, nil
	case SystemInfoURI:
		text, err := systemInfo(ctx)
		if err != nil {
			return ResourceContents{}, fmt.Errorf("cannot get system info: %w", err)
		}
		return ResourceContents{URI: uri, MIMEType: "text/plain", Text: text}, nil
	}
	return ResourceContents{}, fmt.Errorf("%w: %s", ErrUnknownResource, uri)
}

func systemInfo(ctx context.Context) (string, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "System Information:\n")
	fmt.Fprintf(&b, "OS: %s %s\n", info.OS, info.KernelVersion)
	fmt.Fprintf(&b, "Platform: %s %s (%s)\n", info.Platform, info.PlatformVersion, info.KernelArch)
	fmt.Fprintf(&b, "Hostname: %s\n", info.Hostname)
	fmt.Fprintf(&b, "Uptime: %s\n", (time.Duration(info.Uptime) * time.Second).String())
	fmt.Fprintf(&b, "CPUs: %d\n", runtime.NumCPU())

	// memory is best effort; some sandboxes hide /proc/meminfo
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		fmt.Fprintf(&b, "Memory: %d MiB total, %d MiB available (%.1f%% used)\n",
			vm.Total>>20, vm.Available>>20, vm.UsedPercent)
	}

	if wd, err := os.Getwd(); err == nil {
		fmt.Fprintf(&b, "Current Directory: %s\n", wd)
	}
	if user := os.Getenv("USER"); user != "" {
		fmt.Fprintf(&b, "User: %s\n", user)
	}
	return b.String(), nil
}

func addResources(server *mcp.Server, terminal *Terminal) {
	for _, r := range resources {
		server.AddResource(&mcp.Resource{
			URI:         r.URI,
			Name:        r.Name,
			Description: r.Description,
			MIMEType:    r.MIMEType,
		}, resourceHandler(terminal))
	}
}

func resourceHandler(terminal *Terminal) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		contents, err := ReadResource(ctx, terminal, req.Params.URI)
		if err != nil {
			return nil, err
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{URI: contents.URI, MIMEType: contents.MIMEType, Text: contents.Text},
			},
		}, nil
	}
}
