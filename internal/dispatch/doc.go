// Package dispatch executes tool calls and wraps every outcome in a
// uniform response envelope.
//
// A dispatch runs a fixed pipeline: registry lookup, session authorization,
// required-parameter validation, handler invocation. The first failing
// stage short-circuits with a failure envelope and the handler is never
// invoked partially. Handler errors and panics are contained at this single
// boundary; nothing a handler does crashes the protocol loop.
//
// Handlers that complete through a suspension point (tool.Pending) are
// awaited here, so callers observe synchronous and asynchronous tools
// identically.
package dispatch
