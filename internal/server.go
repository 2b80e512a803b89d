package internal

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// GetServer builds an MCP SDK server exposing the same tools, prompts and resources
// as the JSON-RPC dispatcher.
func GetServer(version string, tools *Tools) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Title:   "Terminal MCP",
		Version: version,
	}, &mcp.ServerOptions{
		HasTools:     true,
		HasPrompts:   true,
		HasResources: true,
	})

	mcp.AddTool(server, &WriteToTerminalToolDef, tools.WriteToTerminalTool)
	mcp.AddTool(server, &ReadTerminalOutputToolDef, tools.ReadTerminalOutputTool)
	mcp.AddTool(server, &SendControlCharacterToolDef, tools.SendControlCharacterTool)

	addPrompts(server)
	addResources(server, tools.Terminal())

	return server
}
