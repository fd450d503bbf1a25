// Package toolset declares the compiled-in tool catalog: the portfolio,
// analysis, market data, reporting, and strategy tool groups registered at
// server startup.
package toolset

import (
	"fmt"

	"github.com/quantfolio/portfolio-mcp/internal/portfolio"
	"github.com/quantfolio/portfolio-mcp/internal/tool"
)

// Deps are the collaborators tool handlers close over.
type Deps struct {
	Book *portfolio.Book
}

// Register adds the full catalog to r in a fixed group order, so
// discovery output is stable across runs.
func Register(r *tool.Registry, deps Deps) error {
	groups := [][]*tool.Definition{
		portfolioTools(deps),
		analysisTools(deps),
		marketDataTools(deps),
		reportingTools(deps),
		strategyTools(deps),
	}

	for _, group := range groups {
		for _, def := range group {
			if err := r.Register(def); err != nil {
				return fmt.Errorf("register catalog: %w", err)
			}
		}
	}

	return nil
}

// Argument coercion helpers. Wire arguments arrive as decoded JSON, so
// numbers are float64 and arrays are []any.

func stringArg(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok {
		return v
	}

	return fallback
}

func boolArg(args map[string]any, key string, fallback bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}

	return fallback
}

func floatArg(args map[string]any, key string, fallback float64) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return fallback
	}
}

func intArg(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

func stringsArg(args map[string]any, key string, fallback []string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		if typed, ok := args[key].([]string); ok {
			return typed
		}

		return fallback
	}

	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}

	if len(out) == 0 {
		return fallback
	}

	return out
}

func intsArg(args map[string]any, key string, fallback []int) []int {
	raw, ok := args[key].([]any)
	if !ok {
		return fallback
	}

	out := make([]int, 0, len(raw))
	for _, item := range raw {
		if f, ok := item.(float64); ok {
			out = append(out, int(f))
		}
	}

	if len(out) == 0 {
		return fallback
	}

	return out
}

func mapArg(args map[string]any, key string) (map[string]any, bool) {
	v, ok := args[key].(map[string]any)

	return v, ok
}
