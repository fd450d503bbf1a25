package protocol

import (
	"encoding/json"
)

// Version identifies the protocol revision announced during the handshake.
const Version = "2024-11-05"

// Method names form a closed set; adding one means registering a handler
// for it in the server's method table.
type Method string

// Supported methods.
const (
	MethodInitialize Method = "initialize"
	MethodListTools  Method = "list-tools"
	MethodCallTool   Method = "call-tool"
)

// Transport-level error codes.
const (
	// CodeDispatchFailed mirrors a failure envelope at the transport
	// level so callers see the failure without opening the envelope.
	CodeDispatchFailed = -1

	// CodeMethodNotFound reports a recognized message with an unknown
	// method.
	CodeMethodNotFound = -32601

	// CodeInternalError reports a fault while handling a routed message.
	CodeInternalError = -32603
)

// Request is one framed message read from the input stream.
//
// Wire format:
//
//	{ "id": <opaque>, "method": "call-tool",
//	  "params": { "name": "...", "arguments": { ... } } }
//
// The id is opaque to the server and echoed back verbatim, so it is kept
// as raw JSON rather than decoded.
type Request struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Method Method          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is one framed message written to the output stream. Result is
// set for success; Error for transport-level failures. A call-tool
// response whose envelope failed carries both.
type Response struct {
	ID     json.RawMessage `json:"id"`
	Result any             `json:"result,omitempty"`
	Error  *RPCError       `json:"error,omitempty"`
}

// RPCError is the transport-level error payload.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse builds a Response carrying only a transport-level error.
// A nil id marshals as null, for faults where the request id could not be
// recovered.
func ErrorResponse(id json.RawMessage, code int, message string) *Response {
	return &Response{
		ID:    id,
		Error: &RPCError{Code: code, Message: message},
	}
}

// CallToolParams are the params of a call-tool request.
type CallToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ServerInfo identifies the server in the handshake payload.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Capabilities advertises what the server supports. Tools is the only
// capability; its presence (even empty) signals tool support.
type Capabilities struct {
	Tools map[string]any `json:"tools"`
}

// InitializeResult is the fixed handshake payload.
type InitializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	Capabilities    Capabilities `json:"capabilities"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
}
