package toolset

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/quantfolio/portfolio-mcp/internal/portfolio"
	"github.com/quantfolio/portfolio-mcp/internal/tool"
)

func analysisTools(deps Deps) []*tool.Definition {
	book := deps.Book

	return []*tool.Definition{
		{
			Name:        "analyze_technical_indicators",
			Description: "Calculate technical indicators for specified symbols",
			Schema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"symbols": {
						Type:        "array",
						Items:       &jsonschema.Schema{Type: "string"},
						Description: "List of symbols to analyze",
					},
					"indicators": {
						Type:        "array",
						Items:       &jsonschema.Schema{Type: "string"},
						Description: "List of indicators (sma, ema, rsi, macd)",
						Default:     json.RawMessage(`["sma","rsi","macd"]`),
					},
					"period": {
						Type:        "string",
						Description: "Time period for analysis (1d, 1w, 1m)",
						Default:     json.RawMessage(`"1m"`),
					},
				},
				Required: []string{"symbols"},
			},
			Category:     "analysis",
			RiskLevel:    tool.RiskLow,
			RequiresAuth: true,
			Handler: tool.HandlerFunc(func(_ context.Context, args map[string]any) (any, error) {
				symbols := stringsArg(args, "symbols", nil)
				indicators := stringsArg(args, "indicators", []string{"sma", "rsi", "macd"})
				period := stringArg(args, "period", "1m")

				result := make(map[string]any, len(symbols))

				for _, symbol := range symbols {
					closes, ok := book.History(symbol)
					if !ok {
						return nil, fmt.Errorf("no market data for symbol %q", symbol)
					}

					window := portfolio.Tail(closes, portfolio.PeriodWindow(period, len(closes)))
					values := make(map[string]any, len(indicators))

					for _, indicator := range indicators {
						switch indicator {
						case "sma":
							if sma := portfolio.SMASeries(window, 20); len(sma) > 0 {
								values["sma_20"] = sma[len(sma)-1]
							}
						case "ema":
							if ema := portfolio.EMASeries(window, 20); len(ema) > 0 {
								values["ema_20"] = ema[len(ema)-1]
							}
						case "rsi":
							values["rsi_14"] = portfolio.RSI(closes, 14)
						case "macd":
							macd, signal, histogram := portfolio.MACD(closes)
							values["macd"] = map[string]any{
								"macd":      macd,
								"signal":    signal,
								"histogram": histogram,
							}
						default:
							return nil, fmt.Errorf("unknown indicator %q", indicator)
						}
					}

					result[symbol] = values
				}

				return map[string]any{
					"period":     period,
					"indicators": result,
				}, nil
			}),
		},
		{
			Name:        "compare_with_benchmark",
			Description: "Compare portfolio performance with benchmark indices",
			Schema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"benchmarks": {
						Type:        "array",
						Items:       &jsonschema.Schema{Type: "string"},
						Description: "List of benchmark symbols",
						Default:     json.RawMessage(`["SPY","QQQ","IWM"]`),
					},
					"period": {
						Type:        "string",
						Description: "Comparison period",
						Default:     json.RawMessage(`"1y"`),
					},
					"metrics": {
						Type:        "array",
						Items:       &jsonschema.Schema{Type: "string"},
						Description: "Metrics to compare (return, volatility, sharpe, beta)",
						Default:     json.RawMessage(`["return","volatility","sharpe","beta"]`),
					},
				},
			},
			Category:     "analysis",
			RiskLevel:    tool.RiskLow,
			RequiresAuth: true,
			Handler: tool.HandlerFunc(func(_ context.Context, args map[string]any) (any, error) {
				benchmarks := stringsArg(args, "benchmarks", []string{"SPY", "QQQ", "IWM"})
				period := stringArg(args, "period", "1y")
				metrics := stringsArg(args, "metrics", []string{"return", "volatility", "sharpe", "beta"})

				series := portfolioSeries(book)
				if len(series) == 0 {
					return nil, fmt.Errorf("portfolio has no priced positions")
				}

				window := portfolio.Tail(series, portfolio.PeriodWindow(period, len(series)))
				returns := portfolio.DailyReturns(window)

				comparison := make(map[string]any, len(benchmarks))

				for _, benchmark := range benchmarks {
					closes, ok := book.History(benchmark)
					if !ok {
						return nil, fmt.Errorf("no market data for benchmark %q", benchmark)
					}

					benchWindow := portfolio.Tail(closes, portfolio.PeriodWindow(period, len(closes)))
					benchReturns := portfolio.DailyReturns(benchWindow)

					entry := make(map[string]any, len(metrics))

					for _, metric := range metrics {
						switch metric {
						case "return":
							entry["portfolio_return"] = portfolio.TotalReturn(window)
							entry["benchmark_return"] = portfolio.TotalReturn(benchWindow)
						case "volatility":
							entry["portfolio_volatility"] = portfolio.AnnualizedVolatility(returns)
							entry["benchmark_volatility"] = portfolio.AnnualizedVolatility(benchReturns)
						case "sharpe":
							entry["portfolio_sharpe"] = portfolio.SharpeRatio(returns)
							entry["benchmark_sharpe"] = portfolio.SharpeRatio(benchReturns)
						case "beta":
							entry["beta"] = portfolio.Beta(returns, benchReturns)
						default:
							return nil, fmt.Errorf("unknown metric %q", metric)
						}
					}

					comparison[benchmark] = entry
				}

				return map[string]any{
					"period":     period,
					"comparison": comparison,
				}, nil
			}),
		},
	}
}
