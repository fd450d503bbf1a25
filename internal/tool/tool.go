package tool

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// RiskLevel is an informational classification of a tool's blast radius.
type RiskLevel string

// Risk levels, from least to most consequential.
const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Definition describes a single registered tool.
//
// Definitions are immutable once registered: they are created during server
// initialization, owned by the Registry, and never mutated or removed for
// the lifetime of the process.
type Definition struct {
	// Name uniquely identifies the tool across the registry.
	Name string

	// Description is the human-readable summary shown during discovery.
	Description string

	// Schema declares the accepted arguments: an object schema with a
	// properties map and a required list. Arguments are validated against
	// it before the handler is invoked.
	Schema *jsonschema.Schema

	// Category groups related tools (portfolio, analysis, market_data,
	// reporting, strategy).
	Category string

	// RiskLevel classifies the tool for callers; it does not gate dispatch.
	RiskLevel RiskLevel

	// RequiresAuth gates dispatch on a valid session when true.
	RequiresAuth bool

	// Handler is the behavior invoked once lookup, authorization, and
	// validation have all passed.
	Handler Handler
}

// Handler is the executable behavior backing a tool.
//
// Invoke receives the caller-supplied arguments and returns the tool's
// result or an error. An implementation may instead return a *Pending,
// in which case the caller awaits completion before observing the result.
type Handler interface {
	Invoke(ctx context.Context, args map[string]any) (any, error)
}

// HandlerFunc adapts an ordinary function to a Handler that completes
// before Invoke returns.
type HandlerFunc func(ctx context.Context, args map[string]any) (any, error)

// Invoke implements Handler.
func (f HandlerFunc) Invoke(ctx context.Context, args map[string]any) (any, error) {
	return f(ctx, args)
}

// Pending is a handler result that completes later. It is resolved exactly
// once, by Complete or Fail, and observed through Await.
type Pending struct {
	done  chan struct{}
	value any
	err   error
}

// NewPending creates an unresolved Pending.
func NewPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

// Complete resolves the Pending with a value. It must be called at most
// once, and never after Fail.
func (p *Pending) Complete(value any) {
	p.value = value
	close(p.done)
}

// Fail resolves the Pending with an error. It must be called at most once,
// and never after Complete.
func (p *Pending) Fail(err error) {
	p.err = err
	close(p.done)
}

// Await blocks until the Pending resolves or ctx is done, returning the
// resolved value or error.
func (p *Pending) Await(ctx context.Context) (any, error) {
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// asyncHandler runs its function on a background goroutine and hands the
// caller a *Pending to await.
type asyncHandler struct {
	fn func(ctx context.Context, args map[string]any) (any, error)
}

// Compile-time verification that asyncHandler implements Handler.
var _ Handler = (*asyncHandler)(nil)

// Async adapts fn to a Handler that completes through a suspension point.
// Invoke returns a *Pending immediately; fn runs on its own goroutine and
// resolves the Pending when it finishes.
func Async(fn func(ctx context.Context, args map[string]any) (any, error)) Handler {
	return &asyncHandler{fn: fn}
}

// Invoke implements Handler. The returned value is always a *Pending.
func (h *asyncHandler) Invoke(ctx context.Context, args map[string]any) (any, error) {
	p := NewPending()

	go func() {
		defer func() {
			// A panic on the handler goroutine would otherwise crash the
			// process; surface it as a failed result instead.
			if r := recover(); r != nil {
				p.Fail(fmt.Errorf("panic: %v", r))
			}
		}()

		value, err := h.fn(ctx, args)
		if err != nil {
			p.Fail(err)

			return
		}

		p.Complete(value)
	}()

	return p, nil
}
