// Package jsonrpc implements a transport-agnostic JSON-RPC 2.0 request dispatcher.
//
// Methods are registered in a typed table that declares which parameter shapes they
// accept. Every request, valid or not, produces a response with a fixed envelope, and
// the request id is echoed verbatim (null when it could not be read).
package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Version is the only protocol version accepted.
const Version = "2.0"

// Standard and application error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	// CodeServerError starts the range reserved for application errors.
	CodeServerError = -32000
)

var null = json.RawMessage("null")

// Error is a structured JSON-RPC error. Handlers return it (possibly wrapped) to have
// its code, message and data reach the caller unchanged.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	if e.Data == nil {
		return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("jsonrpc error %d: %s: %v", e.Code, e.Message, e.Data)
}

// NewError builds an Error. data may be nil.
func NewError(code int, message string, data any) *Error {
	return &Error{Code: code, Message: message, Data: data}
}

// Request is a decoded request envelope.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// IsNotification reports whether the request carried no id member at all.
func (r *Request) IsNotification() bool {
	return r.ID == nil
}

// Response is either a result or an error, never both.
type Response struct {
	Result any
	Error  *Error
	ID     json.RawMessage

	notification bool
}

// IsNotification reports whether the response answers a well-formed call to a known
// method that carried no id. Transports may choose not to send such responses.
func (r *Response) IsNotification() bool {
	return r.notification
}

type wireResult struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  any             `json:"result"`
	ID      json.RawMessage `json:"id"`
}

type wireError struct {
	JSONRPC string          `json:"jsonrpc"`
	Error   *Error          `json:"error"`
	ID      json.RawMessage `json:"id"`
}

// MarshalJSON always emits "jsonrpc" and "id", and exactly one of "result" or "error".
// A nil result is encoded as null.
func (r Response) MarshalJSON() ([]byte, error) {
	id := r.ID
	if len(id) == 0 {
		id = null
	}
	if r.Error != nil {
		return json.Marshal(wireError{JSONRPC: Version, Error: r.Error, ID: id})
	}
	return json.Marshal(wireResult{JSONRPC: Version, Result: r.Result, ID: id})
}

// UnmarshalJSON lets clients and tests decode responses.
func (r *Response) UnmarshalJSON(data []byte) error {
	var raw struct {
		Result json.RawMessage `json:"result"`
		Error  *Error          `json:"error"`
		ID     json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Error = raw.Error
	r.ID = raw.ID
	if raw.Result != nil {
		r.Result = raw.Result
	}
	return nil
}

// isNull reports whether a raw value is absent or the JSON literal null.
func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, null)
}
