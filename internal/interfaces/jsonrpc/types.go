package jsonrpcinterface

import "encoding/json"

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeNotFound       = -32000
	CodeConflict       = -32001
	CodeUpstream       = -32002
	CodeLifecycle      = -32003
)

const (
	version = "2.0"

	unimplementedMessage = "unimplemented"
)

// Request is a JSON-RPC 2.0 request. The id is kept raw so that it is
// echoed verbatim in the response.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// UnimplementedData is the data of the error returned for unknown methods.
type UnimplementedData struct {
	Method string `json:"method"`
}

func resultResponse(id json.RawMessage, result interface{}) Response {
	return Response{JSONRPC: version, Result: result, ID: id}
}

func errorResponse(id json.RawMessage, err *Error) Response {
	return Response{JSONRPC: version, Error: err, ID: id}
}
