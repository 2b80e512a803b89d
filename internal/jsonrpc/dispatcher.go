package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ParamShape declares which params forms a method accepts.
type ParamShape int

const (
	// NoParams accepts an absent, null, empty object or empty array params member.
	NoParams ParamShape = iota
	// NamedParams accepts only an object.
	NamedParams
	// PositionalParams accepts only an array, mapped onto Method.Params in order.
	PositionalParams
	// AnyParams accepts either form.
	AnyParams
)

func (s ParamShape) String() string {
	switch s {
	case NoParams:
		return "none"
	case NamedParams:
		return "named"
	case PositionalParams:
		return "positional"
	case AnyParams:
		return "any"
	}
	return fmt.Sprintf("ParamShape(%d)", int(s))
}

// Params are a request's parameters keyed by name. Positional params have already been
// mapped to the names the method declared.
type Params map[string]json.RawMessage

// Has reports whether name was supplied with a non-null value.
func (p Params) Has(name string) bool {
	return !isNull(p[name])
}

// Decode unmarshals the named parameter into v. A missing parameter leaves v untouched.
func (p Params) Decode(name string, v any) error {
	raw, ok := p[name]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return NewError(CodeInvalidParams, "Invalid params", fmt.Sprintf("%s: %v", name, err))
	}
	return nil
}

// Require is Decode for a parameter that must be present.
func (p Params) Require(name string, v any) error {
	if !p.Has(name) {
		return NewError(CodeInvalidParams, "Invalid params", fmt.Sprintf("missing required parameter %q", name))
	}
	return p.Decode(name, v)
}

// HandlerFunc implements a method. Returning an *Error (or an error wrapping one)
// surfaces that error verbatim; any other error becomes an internal error.
type HandlerFunc func(ctx context.Context, params Params) (any, error)

// Method is one entry of the dispatch table.
type Method struct {
	Name  string
	Shape ParamShape
	// Params names positional arguments in order. Required for PositionalParams and
	// AnyParams when positional calls should be accepted.
	Params  []string
	Handler HandlerFunc
}

// Observer is notified after every request. code is 0 on success. method is empty
// when the request was malformed or named an unregistered method.
type Observer func(method string, code int, elapsed time.Duration)

// Dispatcher routes requests to registered methods. It holds no per-request state.
type Dispatcher struct {
	mu       sync.RWMutex
	methods  map[string]Method
	observer Observer
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{methods: make(map[string]Method)}
}

// SetObserver installs a hook called after each request.
func (d *Dispatcher) SetObserver(o Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observer = o
}

// Register validates m and adds it to the table.
func (d *Dispatcher) Register(m Method) error {
	if m.Name == "" {
		return errors.New("method name cannot be empty")
	}
	if m.Handler == nil {
		return fmt.Errorf("method %s: handler cannot be nil", m.Name)
	}
	if m.Shape < NoParams || m.Shape > AnyParams {
		return fmt.Errorf("method %s: unknown param shape %d", m.Name, int(m.Shape))
	}
	if m.Shape == PositionalParams && len(m.Params) == 0 {
		return fmt.Errorf("method %s: positional params need declared names", m.Name)
	}
	if m.Shape == NoParams && len(m.Params) > 0 {
		return fmt.Errorf("method %s: declares params but accepts none", m.Name)
	}
	seen := make(map[string]bool, len(m.Params))
	for _, p := range m.Params {
		if p == "" || seen[p] {
			return fmt.Errorf("method %s: param names must be unique and non-empty", m.Name)
		}
		seen[p] = true
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.methods[m.Name]; exists {
		return fmt.Errorf("method %s already registered", m.Name)
	}
	d.methods[m.Name] = m
	return nil
}

// MustRegister is Register for static tables; it panics on an invalid entry.
func (d *Dispatcher) MustRegister(methods ...Method) {
	for _, m := range methods {
		if err := d.Register(m); err != nil {
			panic(err)
		}
	}
}

// Methods lists registered method names in sorted order.
func (d *Dispatcher) Methods() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.methods))
	for name := range d.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Handle processes one raw request and always returns a response.
func (d *Dispatcher) Handle(ctx context.Context, raw []byte) *Response {
	start := time.Now()
	resp, method := d.handle(ctx, raw)

	d.mu.RLock()
	observe := d.observer
	d.mu.RUnlock()
	if observe != nil {
		code := 0
		if resp.Error != nil {
			code = resp.Error.Code
		}
		observe(method, code, time.Since(start))
	}
	return resp
}

func (d *Dispatcher) handle(ctx context.Context, raw []byte) (*Response, string) {
	if !json.Valid(raw) {
		return errorResponse(nil, NewError(CodeParseError, "Parse error", nil)), ""
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope == nil {
		return errorResponse(nil, NewError(CodeInvalidRequest, "Invalid Request", "request must be a JSON object")), ""
	}

	// Malformed envelopes and unknown methods are always answered, with id null when
	// the request had none. Only a valid call without an id is a notification.
	id, hasID := envelope["id"]
	respond := func(resp *Response) *Response {
		resp.notification = !hasID
		return resp
	}

	var version string
	if err := json.Unmarshal(envelope["jsonrpc"], &version); err != nil || version != Version {
		return errorResponse(id, NewError(CodeInvalidRequest, "Invalid Request", `jsonrpc must be "2.0"`)), ""
	}

	var name string
	methodRaw, ok := envelope["method"]
	if !ok || isNull(methodRaw) {
		return errorResponse(id, NewError(CodeInvalidRequest, "Invalid Request", "method is required")), ""
	}
	if err := json.Unmarshal(methodRaw, &name); err != nil {
		return errorResponse(id, NewError(CodeInvalidRequest, "Invalid Request", "method must be a string")), ""
	}

	d.mu.RLock()
	m, found := d.methods[name]
	d.mu.RUnlock()

	params, perr := bindParams(m, envelope["params"], found)
	if perr != nil && perr.Code == CodeInvalidRequest {
		return errorResponse(id, perr), ""
	}
	// unknown names are reported as "" so observers see a bounded set of methods
	if !found {
		return errorResponse(id, NewError(CodeMethodNotFound, "Method not found", map[string]any{"method": name})), ""
	}
	if perr != nil {
		return respond(errorResponse(id, perr)), name
	}

	result, err := invoke(ctx, m, params)
	if err != nil {
		return respond(errorResponse(id, asError(err))), name
	}
	return respond(&Response{Result: result, ID: id}), name
}

// bindParams normalizes params into a name-keyed map according to the method's shape.
// Structural problems (params neither object nor array) are invalid requests and are
// reported even when the method is unknown.
func bindParams(m Method, raw json.RawMessage, found bool) (Params, *Error) {
	raw = bytes.TrimSpace(raw)
	if isNull(raw) {
		return Params{}, nil
	}

	switch raw[0] {
	case '{':
		var named Params
		if err := json.Unmarshal(raw, &named); err != nil {
			return nil, NewError(CodeInvalidRequest, "Invalid Request", "params must be an object or array")
		}
		if !found {
			return nil, nil
		}
		switch m.Shape {
		case NamedParams, AnyParams:
			return named, nil
		case NoParams:
			if len(named) == 0 {
				return Params{}, nil
			}
		}
		return nil, NewError(CodeInvalidParams, "Invalid params", fmt.Sprintf("%s accepts %s params", m.Name, m.Shape))

	case '[':
		var positional []json.RawMessage
		if err := json.Unmarshal(raw, &positional); err != nil {
			return nil, NewError(CodeInvalidRequest, "Invalid Request", "params must be an object or array")
		}
		if !found {
			return nil, nil
		}
		switch m.Shape {
		case PositionalParams, AnyParams:
			if len(positional) > len(m.Params) {
				return nil, NewError(CodeInvalidParams, "Invalid params",
					fmt.Sprintf("%s takes at most %d positional params, got %d", m.Name, len(m.Params), len(positional)))
			}
			params := make(Params, len(positional))
			for i, v := range positional {
				params[m.Params[i]] = v
			}
			return params, nil
		case NoParams:
			if len(positional) == 0 {
				return Params{}, nil
			}
		}
		return nil, NewError(CodeInvalidParams, "Invalid params", fmt.Sprintf("%s accepts %s params", m.Name, m.Shape))
	}

	return nil, NewError(CodeInvalidRequest, "Invalid Request", "params must be an object or array")
}

func invoke(ctx context.Context, m Method, params Params) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", m.Name, r)
		}
	}()
	return m.Handler(ctx, params)
}

// asError surfaces structured errors verbatim and wraps everything else.
func asError(err error) *Error {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	return NewError(CodeInternalError, "Internal error", err.Error())
}

func errorResponse(id json.RawMessage, err *Error) *Response {
	return &Response{Error: err, ID: id}
}
