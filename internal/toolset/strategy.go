package toolset

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/quantfolio/portfolio-mcp/internal/portfolio"
	"github.com/quantfolio/portfolio-mcp/internal/tool"
)

const dateLayout = "2006-01-02"

// closesFor returns the close series for a symbol, synthesizing one when
// the book has no recorded history. Backtests stay deterministic either way.
func closesFor(book *portfolio.Book, symbol string, days int) []float64 {
	if closes, ok := book.History(symbol); ok && len(closes) >= days {
		return closes[len(closes)-days:]
	}
	start := 100.0
	if price, ok := book.LastPrice(symbol); ok {
		start = price
	}
	return portfolio.SyntheticCloses(symbol, days, start)
}

func strategyTools(deps Deps) []*tool.Definition {
	book := deps.Book

	return []*tool.Definition{
		{
			Name:        "backtest_strategy",
			Description: "Backtest a trading strategy with historical data",
			Schema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"strategy_config": {
						Type:        "object",
						Description: "Strategy configuration (type, symbol, windows)",
					},
					"start_date": {
						Type:        "string",
						Description: "Backtest start date (YYYY-MM-DD)",
					},
					"end_date": {
						Type:        "string",
						Description: "Backtest end date (YYYY-MM-DD)",
					},
					"initial_capital": {
						Type:        "number",
						Description: "Initial capital for backtest",
						Default:     json.RawMessage(`100000`),
					},
				},
				Required: []string{"strategy_config", "start_date", "end_date"},
			},
			Category:     "strategy",
			RiskLevel:    tool.RiskMedium,
			RequiresAuth: true,
			Handler: tool.Async(func(_ context.Context, args map[string]any) (any, error) {
				cfg, ok := mapArg(args, "strategy_config")
				if !ok {
					return nil, fmt.Errorf("strategy_config must be an object")
				}

				start, err := time.Parse(dateLayout, stringArg(args, "start_date", ""))
				if err != nil {
					return nil, fmt.Errorf("invalid start_date: %w", err)
				}
				end, err := time.Parse(dateLayout, stringArg(args, "end_date", ""))
				if err != nil {
					return nil, fmt.Errorf("invalid end_date: %w", err)
				}
				if !end.After(start) {
					return nil, fmt.Errorf("end_date must be after start_date")
				}

				strategyType := stringArg(cfg, "type", "sma_crossover")
				if strategyType != "sma_crossover" {
					return nil, fmt.Errorf("unsupported strategy type %q", strategyType)
				}

				symbol := stringArg(cfg, "symbol", "SPY")
				fast := intArg(cfg, "fast_window", 20)
				slow := intArg(cfg, "slow_window", 50)
				capital := floatArg(args, "initial_capital", 100_000)

				// Calendar days to trading days, floored to warm the slow window.
				days := int(end.Sub(start).Hours()/24) * 5 / 7
				if days < slow+2 {
					days = slow + 2
				}

				result, err := portfolio.RunSMACrossover(symbol, closesFor(book, symbol, days), fast, slow, capital)
				if err != nil {
					return nil, err
				}

				return map[string]any{
					"result":     result,
					"start_date": start.Format(dateLayout),
					"end_date":   end.Format(dateLayout),
				}, nil
			}),
		},
		{
			Name:        "optimize_strategy_parameters",
			Description: "Optimize strategy parameters using grid search",
			Schema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"strategy_type": {
						Type:        "string",
						Description: "Type of strategy to optimize (sma_crossover)",
					},
					"parameter_ranges": {
						Type:        "object",
						Description: "Parameter ranges to search (fast_windows, slow_windows)",
					},
					"symbol": {
						Type:        "string",
						Description: "Symbol to optimize against",
						Default:     json.RawMessage(`"SPY"`),
					},
					"optimization_metric": {
						Type:        "string",
						Description: "Metric to optimize (sharpe, return, max_drawdown)",
						Default:     json.RawMessage(`"sharpe"`),
					},
					"initial_capital": {
						Type:        "number",
						Description: "Initial capital for each run",
						Default:     json.RawMessage(`100000`),
					},
				},
				Required: []string{"strategy_type", "parameter_ranges"},
			},
			Category:     "strategy",
			RiskLevel:    tool.RiskMedium,
			RequiresAuth: true,
			Handler: tool.Async(func(_ context.Context, args map[string]any) (any, error) {
				strategyType := stringArg(args, "strategy_type", "")
				if strategyType != "sma_crossover" {
					return nil, fmt.Errorf("unsupported strategy type %q", strategyType)
				}

				ranges, ok := mapArg(args, "parameter_ranges")
				if !ok {
					return nil, fmt.Errorf("parameter_ranges must be an object")
				}

				fasts := intsArg(ranges, "fast_windows", []int{10, 20, 30})
				slows := intsArg(ranges, "slow_windows", []int{50, 100, 150})
				symbol := stringArg(args, "symbol", "SPY")
				metric := stringArg(args, "optimization_metric", "sharpe")
				capital := floatArg(args, "initial_capital", 100_000)

				maxSlow := 0
				for _, s := range slows {
					if s > maxSlow {
						maxSlow = s
					}
				}

				best, err := portfolio.OptimizeSMACrossover(symbol, closesFor(book, symbol, maxSlow*3), fasts, slows, metric, capital)
				if err != nil {
					return nil, err
				}

				return map[string]any{
					"best":                best,
					"optimization_metric": metric,
					"candidates":          len(fasts) * len(slows),
				}, nil
			}),
		},
	}
}
