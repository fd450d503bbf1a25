package toolset

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/quantfolio/portfolio-mcp/internal/portfolio"
	"github.com/quantfolio/portfolio-mcp/internal/tool"
)

// portfolioSeries reconstructs the daily total-value series of the book:
// cash plus the sum of each position valued on its close history, aligned
// on the shortest history tail.
func portfolioSeries(book *portfolio.Book) []float64 {
	positions := book.Positions()

	type leg struct {
		quantity float64
		closes   []float64
	}

	legs := make([]leg, 0, len(positions))
	minLen := -1

	for _, p := range positions {
		closes, ok := book.History(p.Symbol)
		if !ok || len(closes) == 0 {
			continue
		}

		legs = append(legs, leg{quantity: p.Quantity, closes: closes})

		if minLen < 0 || len(closes) < minLen {
			minLen = len(closes)
		}
	}

	if minLen <= 0 {
		return nil
	}

	series := make([]float64, minLen)
	cash := book.Cash()

	for i := 0; i < minLen; i++ {
		value := cash
		for _, l := range legs {
			value += l.quantity * l.closes[len(l.closes)-minLen+i]
		}

		series[i] = value
	}

	return series
}

func portfolioTools(deps Deps) []*tool.Definition {
	book := deps.Book

	return []*tool.Definition{
		{
			Name:        "get_portfolio_summary",
			Description: "Get current portfolio summary including value, positions, and allocation",
			Schema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"include_positions": {
						Type:        "boolean",
						Description: "Include detailed position information",
						Default:     json.RawMessage(`true`),
					},
					"include_performance": {
						Type:        "boolean",
						Description: "Include performance metrics",
						Default:     json.RawMessage(`true`),
					},
				},
			},
			Category:     "portfolio",
			RiskLevel:    tool.RiskLow,
			RequiresAuth: true,
			Handler: tool.HandlerFunc(func(_ context.Context, args map[string]any) (any, error) {
				summary := map[string]any{
					"total_value":    book.TotalValue(),
					"cash":           book.Cash(),
					"position_count": len(book.Positions()),
					"as_of":          book.AsOf(),
				}

				if boolArg(args, "include_positions", true) {
					positions := make([]map[string]any, 0, len(book.Positions()))
					total := book.TotalValue()

					for _, p := range book.Positions() {
						value := book.MarketValue(p)
						entry := map[string]any{
							"symbol":          p.Symbol,
							"quantity":        p.Quantity,
							"market_value":    value,
							"cost_basis":      p.CostBasis,
							"unrealized_gain": value - p.Quantity*p.CostBasis,
						}

						if total > 0 {
							entry["weight"] = value / total
						}

						positions = append(positions, entry)
					}

					summary["positions"] = positions
				}

				if boolArg(args, "include_performance", true) {
					series := portfolioSeries(book)
					window := portfolio.Tail(series, portfolio.PeriodWindow("1m", len(series)))
					returns := portfolio.DailyReturns(window)

					summary["performance"] = map[string]any{
						"period":                "1m",
						"total_return":          portfolio.TotalReturn(window),
						"annualized_volatility": portfolio.AnnualizedVolatility(returns),
						"sharpe_ratio":          portfolio.SharpeRatio(returns),
					}
				}

				return summary, nil
			}),
		},
		{
			Name:        "get_portfolio_performance",
			Description: "Get portfolio performance metrics for specified time period",
			Schema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"period": {
						Type:        "string",
						Description: "Time period (1d, 1w, 1m, 3m, 6m, 1y, ytd, all)",
						Default:     json.RawMessage(`"1m"`),
					},
					"benchmark": {
						Type:        "string",
						Description: "Benchmark symbol for comparison (e.g. SPY)",
						Default:     json.RawMessage(`"SPY"`),
					},
				},
			},
			Category:     "portfolio",
			RiskLevel:    tool.RiskLow,
			RequiresAuth: true,
			Handler: tool.HandlerFunc(func(_ context.Context, args map[string]any) (any, error) {
				period := stringArg(args, "period", "1m")
				benchmark := stringArg(args, "benchmark", "SPY")

				series := portfolioSeries(book)
				if len(series) == 0 {
					return nil, fmt.Errorf("portfolio has no priced positions")
				}

				window := portfolio.Tail(series, portfolio.PeriodWindow(period, len(series)))
				returns := portfolio.DailyReturns(window)

				result := map[string]any{
					"period":                period,
					"total_return":          portfolio.TotalReturn(window),
					"annualized_volatility": portfolio.AnnualizedVolatility(returns),
					"sharpe_ratio":          portfolio.SharpeRatio(returns),
					"max_drawdown":          portfolio.MaxDrawdown(window),
				}

				if closes, ok := book.History(benchmark); ok {
					benchWindow := portfolio.Tail(closes, portfolio.PeriodWindow(period, len(closes)))
					benchReturns := portfolio.DailyReturns(benchWindow)

					result["benchmark"] = map[string]any{
						"symbol":       benchmark,
						"total_return": portfolio.TotalReturn(benchWindow),
						"beta":         portfolio.Beta(returns, benchReturns),
					}
				}

				return result, nil
			}),
		},
		{
			Name:        "analyze_portfolio_risk",
			Description: "Analyze portfolio risk metrics including VaR, concentration, and volatility",
			Schema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"confidence_level": {
						Type:        "number",
						Description: "Confidence level for VaR calculation (0.90, 0.95, 0.99)",
						Default:     json.RawMessage(`0.95`),
					},
					"time_horizon": {
						Type:        "integer",
						Description: "Time horizon in days for risk calculation",
						Default:     json.RawMessage(`1`),
					},
				},
			},
			Category:     "portfolio",
			RiskLevel:    tool.RiskLow,
			RequiresAuth: true,
			Handler: tool.HandlerFunc(func(_ context.Context, args map[string]any) (any, error) {
				confidence := floatArg(args, "confidence_level", 0.95)
				horizon := intArg(args, "time_horizon", 1)

				series := portfolioSeries(book)
				if len(series) == 0 {
					return nil, fmt.Errorf("portfolio has no priced positions")
				}

				returns := portfolio.DailyReturns(series)
				value := book.TotalValue()

				var topSymbol string

				var topWeight float64

				if value > 0 {
					for _, p := range book.Positions() {
						weight := book.MarketValue(p) / value
						if weight > topWeight {
							topSymbol, topWeight = p.Symbol, weight
						}
					}
				}

				return map[string]any{
					"value_at_risk":         portfolio.ValueAtRisk(returns, confidence, horizon, value),
					"confidence_level":      confidence,
					"time_horizon_days":     horizon,
					"annualized_volatility": portfolio.AnnualizedVolatility(returns),
					"max_drawdown":          portfolio.MaxDrawdown(series),
					"concentration": map[string]any{
						"top_symbol": topSymbol,
						"top_weight": topWeight,
					},
				}, nil
			}),
		},
		{
			Name:        "get_asset_allocation",
			Description: "Get detailed asset allocation breakdown by sector and asset type",
			Schema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"breakdown_type": {
						Type:        "string",
						Description: "Type of breakdown (sector, asset_type, all)",
						Default:     json.RawMessage(`"all"`),
					},
				},
			},
			Category:     "portfolio",
			RiskLevel:    tool.RiskLow,
			RequiresAuth: true,
			Handler: tool.HandlerFunc(func(_ context.Context, args map[string]any) (any, error) {
				breakdown := stringArg(args, "breakdown_type", "all")

				total := book.TotalValue()
				bySector := make(map[string]float64)
				byAssetType := make(map[string]float64)

				for _, p := range book.Positions() {
					value := book.MarketValue(p)
					if total > 0 {
						bySector[p.Sector] += value / total
						byAssetType[p.AssetType] += value / total
					}
				}

				if total > 0 {
					bySector["cash"] += book.Cash() / total
					byAssetType["cash"] += book.Cash() / total
				}

				switch breakdown {
				case "sector":
					return map[string]any{"by_sector": bySector}, nil
				case "asset_type":
					return map[string]any{"by_asset_type": byAssetType}, nil
				case "all":
					return map[string]any{
						"by_sector":     bySector,
						"by_asset_type": byAssetType,
					}, nil
				default:
					return nil, fmt.Errorf("unknown breakdown_type %q", breakdown)
				}
			}),
		},
	}
}
