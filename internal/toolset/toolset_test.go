package toolset

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quantfolio/portfolio-mcp/internal/portfolio"
	"github.com/quantfolio/portfolio-mcp/internal/tool"
)

func newCatalog(t *testing.T) *tool.Registry {
	t.Helper()

	r := tool.NewRegistry()
	require.NoError(t, Register(r, Deps{Book: portfolio.Demo()}))
	return r
}

// invoke runs a handler and resolves the async path when the tool uses it.
func invoke(t *testing.T, r *tool.Registry, name string, args map[string]any) (any, error) {
	t.Helper()

	def, err := r.Lookup(name)
	require.NoError(t, err)

	out, err := def.Handler.Invoke(context.Background(), args)
	if err != nil {
		return nil, err
	}

	if pending, ok := out.(*tool.Pending); ok {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return pending.Await(ctx)
	}

	return out, nil
}

func TestRegisterFullCatalog(t *testing.T) {
	r := newCatalog(t)
	require.Equal(t, 13, r.Len())

	byCategory := r.ListByCategory()
	require.Len(t, byCategory["portfolio"], 4)
	require.Len(t, byCategory["analysis"], 2)
	require.Len(t, byCategory["market_data"], 2)
	require.Len(t, byCategory["reporting"], 3)
	require.Len(t, byCategory["strategy"], 2)

	for _, def := range r.List() {
		require.True(t, def.RequiresAuth, "tool %s must require auth", def.Name)
		require.NotNil(t, def.Schema, "tool %s must carry a schema", def.Name)
	}
}

func TestRegisterTwiceFails(t *testing.T) {
	r := newCatalog(t)

	err := Register(r, Deps{Book: portfolio.Demo()})
	require.Error(t, err)

	var dup *tool.DuplicateToolError
	require.ErrorAs(t, err, &dup)
}

func TestPortfolioSummary(t *testing.T) {
	r := newCatalog(t)

	out, err := invoke(t, r, "get_portfolio_summary", map[string]any{})
	require.NoError(t, err)

	summary, ok := out.(map[string]any)
	require.True(t, ok)
	require.Greater(t, summary["total_value"].(float64), 0.0)
	require.Contains(t, summary, "positions")
	require.Contains(t, summary, "performance")

	out, err = invoke(t, r, "get_portfolio_summary", map[string]any{
		"include_positions":   false,
		"include_performance": false,
	})
	require.NoError(t, err)

	summary = out.(map[string]any)
	require.NotContains(t, summary, "positions")
	require.NotContains(t, summary, "performance")
}

func TestTechnicalIndicators(t *testing.T) {
	r := newCatalog(t)

	out, err := invoke(t, r, "analyze_technical_indicators", map[string]any{
		"symbols":    []any{"AAPL"},
		"indicators": []any{"sma", "rsi"},
	})
	require.NoError(t, err)

	result := out.(map[string]any)
	bySymbol, ok := result["indicators"].(map[string]any)
	require.True(t, ok)
	perSymbol, ok := bySymbol["AAPL"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, perSymbol, "sma_20")
	require.Contains(t, perSymbol, "rsi_14")
}

func TestMarketDataRejectsBadTimeframe(t *testing.T) {
	r := newCatalog(t)

	_, err := invoke(t, r, "get_market_data", map[string]any{
		"symbols":   []any{"AAPL"},
		"timeframe": "5min",
	})
	require.Error(t, err)
}

func TestBacktestStrategyAsync(t *testing.T) {
	r := newCatalog(t)

	def, err := r.Lookup("backtest_strategy")
	require.NoError(t, err)
	require.Equal(t, tool.RiskMedium, def.RiskLevel)

	out, err := invoke(t, r, "backtest_strategy", map[string]any{
		"strategy_config": map[string]any{
			"type":        "sma_crossover",
			"symbol":      "SPY",
			"fast_window": float64(10),
			"slow_window": float64(30),
		},
		"start_date":      "2024-01-02",
		"end_date":        "2025-06-30",
		"initial_capital": float64(50_000),
	})
	require.NoError(t, err)

	result := out.(map[string]any)
	run, ok := result["result"].(portfolio.BacktestResult)
	require.True(t, ok)
	require.Equal(t, "SPY", run.Symbol)
	require.Equal(t, 50_000.0, run.InitialCapital)
	require.Greater(t, run.FinalEquity, 0.0)
}

func TestBacktestStrategyRejectsBadDates(t *testing.T) {
	r := newCatalog(t)

	_, err := invoke(t, r, "backtest_strategy", map[string]any{
		"strategy_config": map[string]any{"type": "sma_crossover"},
		"start_date":      "2025-06-30",
		"end_date":        "2024-01-02",
	})
	require.Error(t, err)

	_, err = invoke(t, r, "backtest_strategy", map[string]any{
		"strategy_config": map[string]any{"type": "mean_reversion"},
		"start_date":      "2024-01-02",
		"end_date":        "2025-06-30",
	})
	require.ErrorContains(t, err, "unsupported strategy type")
}

func TestOptimizeStrategyParameters(t *testing.T) {
	r := newCatalog(t)

	out, err := invoke(t, r, "optimize_strategy_parameters", map[string]any{
		"strategy_type": "sma_crossover",
		"parameter_ranges": map[string]any{
			"fast_windows": []any{float64(5), float64(10)},
			"slow_windows": []any{float64(20), float64(40)},
		},
		"optimization_metric": "return",
	})
	require.NoError(t, err)

	result := out.(map[string]any)
	require.Equal(t, 4, result["candidates"])

	best, ok := result["best"].(portfolio.BacktestResult)
	require.True(t, ok)
	require.Contains(t, []int{5, 10}, best.FastWindow)
	require.Contains(t, []int{20, 40}, best.SlowWindow)
}

func TestDashboardData(t *testing.T) {
	r := newCatalog(t)

	out, err := invoke(t, r, "get_dashboard_data", map[string]any{})
	require.NoError(t, err)

	dash := out.(map[string]any)
	top, ok := dash["top_positions"].([]map[string]any)
	require.True(t, ok)
	require.LessOrEqual(t, len(top), 3)
}
