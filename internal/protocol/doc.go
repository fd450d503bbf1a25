// Package protocol implements the framed request/response loop that
// exposes the tool registry to remote callers.
//
// Messages are newline-delimited JSON on a byte stream (stdin/stdout or
// any line-oriented duplex channel). The server reads one line, resolves
// exactly one response, writes and flushes it, then reads the next line;
// there is no pipelining within a connection.
//
// Methods form a closed set routed through a handler table:
//   - initialize: fixed handshake payload (protocol version, capabilities,
//     server identity)
//   - list-tools: the registry's discovery listing
//   - call-tool: a dispatch, with the outcome envelope serialized into the
//     result content
//
// Unparseable lines are dropped without a response. Recognized messages
// with an unknown method get an explicit "Method not found" error rather
// than a silent drop so callers never hang. Faults while handling a routed
// message are caught at the loop level and answered with an internal error
// carrying the original request id when it could be recovered.
package protocol
