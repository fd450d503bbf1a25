package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/quantfolio/portfolio-mcp/internal/session"
	"github.com/quantfolio/portfolio-mcp/internal/tool"
)

// Dispatcher resolves tool calls against a registry and session store.
//
// Construct one per process with NewDispatcher; it is safe for concurrent
// use by multiple connection loops.
type Dispatcher struct {
	log         *slog.Logger
	registry    *tool.Registry
	sessions    *session.Store
	callTimeout time.Duration
}

// NewDispatcher creates a dispatcher.
//
// callTimeout bounds a single handler invocation, awaiting included; zero
// means no bound and a handler that never completes stalls its connection.
func NewDispatcher(
	log *slog.Logger,
	registry *tool.Registry,
	sessions *session.Store,
	callTimeout time.Duration,
) *Dispatcher {
	return &Dispatcher{
		log:         log.With("component", "dispatcher"),
		registry:    registry,
		sessions:    sessions,
		callTimeout: callTimeout,
	}
}

// Dispatch executes toolName with args under sessionID and returns the
// outcome envelope.
//
// The pipeline is: lookup, authorization, validation, invocation. A
// failure at any stage returns a failure envelope without invoking the
// handler; once invocation starts, its outcome (success, error, panic, or
// timeout) is wrapped and returned. Each dispatch invokes the handler at
// most once and never retries.
func (d *Dispatcher) Dispatch(ctx context.Context, toolName string, args map[string]any, sessionID string) Envelope {
	def, err := d.registry.Lookup(toolName)
	if err != nil {
		return Failuref("Tool '%s' not found", toolName)
	}

	if def.RequiresAuth {
		if !d.sessions.Validate(sessionID) {
			return Failure("Authentication required")
		}

		d.sessions.Touch(sessionID)
	}

	if args == nil {
		args = make(map[string]any)
	}

	if err := ValidateArguments(def.Schema, args); err != nil {
		return Failure(err.Error())
	}

	d.log.Info("Executing tool", "tool", toolName, "category", def.Category)

	result, err := d.invoke(ctx, def, args)
	if err != nil {
		d.log.Error("Tool execution failed", "tool", toolName, "error", err)

		return Failuref("Tool execution failed: %s", err)
	}

	return Success(result)
}

// invoke runs the handler and awaits completion. Panics in the handler are
// recovered and reported as invocation errors.
func (d *Dispatcher) invoke(ctx context.Context, def *tool.Definition, args map[string]any) (result any, err error) {
	if d.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.callTimeout)

		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	result, err = def.Handler.Invoke(ctx, args)
	if err != nil {
		return nil, err
	}

	// A handler may resolve to another pending value; await until a
	// concrete result surfaces.
	for {
		pending, ok := result.(*tool.Pending)
		if !ok {
			return result, nil
		}

		result, err = pending.Await(ctx)
		if err != nil {
			return nil, err
		}
	}
}

// HealthCheck summarizes the dispatcher's collaborators for diagnostics.
func (d *Dispatcher) HealthCheck() map[string]any {
	return map[string]any{
		"status":           "healthy",
		"tools_registered": d.registry.Len(),
		"active_sessions":  d.sessions.Len(),
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
	}
}
