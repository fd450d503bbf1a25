// Package tool defines schema-described tool definitions and the registry
// that holds them.
//
// A tool pairs a JSON Schema description of its arguments with a Handler,
// the executable behavior invoked by the dispatcher. Handlers come in two
// flavors: ordinary handlers that complete before Invoke returns, and
// asynchronous handlers whose invocation yields a Pending value resolved on
// a background goroutine. Callers never branch on the flavor; awaiting a
// Pending is the single completion contract.
//
// The Registry is a thread-safe lookup table populated once at startup from
// compiled-in declarations. Registration fails loudly on name collisions.
package tool
