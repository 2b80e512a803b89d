package internal

import (
	"context"
	"errors"

	"github.com/spachava753/term-mcp/internal/jsonrpc"
	"go.uber.org/zap"
)

// ProtocolVersion is reported by initialize when the client does not ask for one.
const ProtocolVersion = "2025-06-18"

// ServerName identifies this server in initialize responses.
const ServerName = "term-mcp"

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type initializeResult struct {
	ProtocolVersion string                    `json:"protocolVersion"`
	Capabilities    map[string]map[string]any `json:"capabilities"`
	ServerInfo      serverInfo                `json:"serverInfo"`
}

// NewDispatcher builds the MCP method table over tools. Tool, prompt and resource
// failures are translated into structured JSON-RPC errors.
func NewDispatcher(tools *Tools, version string, metrics *Metrics, log *zap.Logger) *jsonrpc.Dispatcher {
	log = orNop(log).Named("rpc")
	d := jsonrpc.NewDispatcher()
	if metrics != nil {
		d.SetObserver(metrics.ObserveRPC)
	}

	d.MustRegister(
		jsonrpc.Method{
			Name:   "initialize",
			Shape:  jsonrpc.AnyParams,
			Params: []string{"protocolVersion", "capabilities", "clientInfo"},
			Handler: func(ctx context.Context, p jsonrpc.Params) (any, error) {
				protocol := ProtocolVersion
				if err := p.Decode("protocolVersion", &protocol); err != nil {
					return nil, err
				}
				var client serverInfo
				_ = p.Decode("clientInfo", &client)
				log.Info("client initialized", zap.String("client", client.Name), zap.String("protocol", protocol))
				return initializeResult{
					ProtocolVersion: protocol,
					Capabilities: map[string]map[string]any{
						"tools":     {},
						"prompts":   {},
						"resources": {},
					},
					ServerInfo: serverInfo{Name: ServerName, Version: version},
				}, nil
			},
		},
		jsonrpc.Method{
			Name:    "notifications/initialized",
			Shape:   jsonrpc.AnyParams,
			Handler: func(ctx context.Context, p jsonrpc.Params) (any, error) { return nil, nil },
		},
		jsonrpc.Method{
			Name:    "ping",
			Shape:   jsonrpc.NoParams,
			Handler: func(ctx context.Context, p jsonrpc.Params) (any, error) { return struct{}{}, nil },
		},
		jsonrpc.Method{
			Name:  "tools/list",
			Shape: jsonrpc.AnyParams,
			Handler: func(ctx context.Context, p jsonrpc.Params) (any, error) {
				return map[string]any{"tools": tools.List()}, nil
			},
		},
		jsonrpc.Method{
			Name:   "tools/call",
			Shape:  jsonrpc.AnyParams,
			Params: []string{"name", "arguments"},
			Handler: func(ctx context.Context, p jsonrpc.Params) (any, error) {
				var name string
				if err := p.Require("name", &name); err != nil {
					return nil, err
				}
				res, err := tools.Call(ctx, name, p["arguments"])
				if err != nil {
					log.Info("tool call failed", zap.String("tool", name), zap.Error(err))
					return nil, toRPCError(err, name)
				}
				return res, nil
			},
		},
		jsonrpc.Method{
			Name:  "prompts/list",
			Shape: jsonrpc.AnyParams,
			Handler: func(ctx context.Context, p jsonrpc.Params) (any, error) {
				return map[string]any{"prompts": ListPrompts()}, nil
			},
		},
		jsonrpc.Method{
			Name:   "prompts/get",
			Shape:  jsonrpc.AnyParams,
			Params: []string{"name", "arguments"},
			Handler: func(ctx context.Context, p jsonrpc.Params) (any, error) {
				var name string
				if err := p.Require("name", &name); err != nil {
					return nil, err
				}
				res, err := GetPrompt(name)
				if err != nil {
					return nil, toRPCError(err, name)
				}
				return res, nil
			},
		},
		jsonrpc.Method{
			Name:  "resources/list",
			Shape: jsonrpc.AnyParams,
			Handler: func(ctx context.Context, p jsonrpc.Params) (any, error) {
				return map[string]any{"resources": ListResources()}, nil
			},
		},
		jsonrpc.Method{
			Name:   "resources/read",
			Shape:  jsonrpc.AnyParams,
			Params: []string{"uri"},
			Handler: func(ctx context.Context, p jsonrpc.Params) (any, error) {
				var uri string
				if err := p.Require("uri", &uri); err != nil {
					return nil, err
				}
				contents, err := ReadResource(ctx, tools.Terminal(), uri)
				if err != nil {
					return nil, toRPCError(err, uri)
				}
				return map[string]any{"contents": []ResourceContents{contents}}, nil
			},
		},
	)
	return d
}

// toRPCError maps domain errors onto JSON-RPC codes. subject is the tool name,
// prompt name or resource URI the request referred to.
func toRPCError(err error, subject string) error {
	var (
		validation *ValidationError
		execution  *ExecutionError
	)
	switch {
	case errors.As(err, &validation):
		return jsonrpc.NewError(jsonrpc.CodeInvalidParams, "Invalid params", map[string]any{
			"field":  validation.Field,
			"reason": validation.Reason,
		})
	case errors.Is(err, ErrUnknownTool):
		return jsonrpc.NewError(jsonrpc.CodeMethodNotFound, "Method not found", map[string]any{"tool": subject})
	case errors.Is(err, ErrUnknownPrompt):
		return jsonrpc.NewError(jsonrpc.CodeMethodNotFound, "Method not found", map[string]any{"prompt": subject})
	case errors.Is(err, ErrUnknownResource):
		return jsonrpc.NewError(jsonrpc.CodeMethodNotFound, "Method not found", map[string]any{"uri": subject})
	case errors.As(err, &execution):
		return jsonrpc.NewError(jsonrpc.CodeServerError, "Tool execution failed", map[string]any{
			"op":    execution.Op,
			"input": execution.Input,
			"error": execution.Err.Error(),
		})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return jsonrpc.NewError(jsonrpc.CodeServerError, "Request cancelled", err.Error())
	}
	return jsonrpc.NewError(jsonrpc.CodeInternalError, "Internal error", err.Error())
}
