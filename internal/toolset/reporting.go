package toolset

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/quantfolio/portfolio-mcp/internal/portfolio"
	"github.com/quantfolio/portfolio-mcp/internal/tool"
)

func reportingTools(deps Deps) []*tool.Definition {
	book := deps.Book

	return []*tool.Definition{
		{
			Name:        "generate_performance_report",
			Description: "Generate comprehensive portfolio performance report",
			Schema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"format": {
						Type:        "string",
						Description: "Report format (json, csv)",
						Default:     json.RawMessage(`"json"`),
					},
					"period": {
						Type:        "string",
						Description: "Report period",
						Default:     json.RawMessage(`"1m"`),
					},
					"include_charts": {
						Type:        "boolean",
						Description: "Include the equity series for charting",
						Default:     json.RawMessage(`false`),
					},
				},
			},
			Category:     "reporting",
			RiskLevel:    tool.RiskLow,
			RequiresAuth: true,
			Handler: tool.HandlerFunc(func(_ context.Context, args map[string]any) (any, error) {
				format := stringArg(args, "format", "json")
				period := stringArg(args, "period", "1m")

				series := portfolioSeries(book)
				if len(series) == 0 {
					return nil, fmt.Errorf("portfolio has no priced positions")
				}

				window := portfolio.Tail(series, portfolio.PeriodWindow(period, len(series)))
				returns := portfolio.DailyReturns(window)

				switch format {
				case "json":
					report := map[string]any{
						"period":                period,
						"generated_at":          time.Now().UTC(),
						"total_value":           book.TotalValue(),
						"total_return":          portfolio.TotalReturn(window),
						"annualized_volatility": portfolio.AnnualizedVolatility(returns),
						"sharpe_ratio":          portfolio.SharpeRatio(returns),
						"max_drawdown":          portfolio.MaxDrawdown(window),
					}

					if boolArg(args, "include_charts", false) {
						report["equity_series"] = window
					}

					return report, nil
				case "csv":
					var b strings.Builder

					b.WriteString("symbol,quantity,market_value,unrealized_gain\n")

					for _, p := range book.Positions() {
						value := book.MarketValue(p)
						fmt.Fprintf(&b, "%s,%.4f,%.2f,%.2f\n",
							p.Symbol, p.Quantity, value, value-p.Quantity*p.CostBasis)
					}

					return map[string]any{
						"period": period,
						"csv":    b.String(),
					}, nil
				default:
					return nil, fmt.Errorf("unsupported report format %q", format)
				}
			}),
		},
		{
			Name:        "generate_tax_report",
			Description: "Generate tax report with unrealized gains and losses",
			Schema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"tax_year": {
						Type:        "integer",
						Description: "Tax year for report",
					},
					"format": {
						Type:        "string",
						Description: "Report format",
						Default:     json.RawMessage(`"json"`),
					},
				},
			},
			Category:     "reporting",
			RiskLevel:    tool.RiskLow,
			RequiresAuth: true,
			Handler: tool.HandlerFunc(func(_ context.Context, args map[string]any) (any, error) {
				taxYear := intArg(args, "tax_year", time.Now().UTC().Year())

				if format := stringArg(args, "format", "json"); format != "json" {
					return nil, fmt.Errorf("unsupported report format %q", format)
				}

				lots := make([]map[string]any, 0, len(book.Positions()))

				var totalUnrealized float64

				for _, p := range book.Positions() {
					value := book.MarketValue(p)
					gain := value - p.Quantity*p.CostBasis
					totalUnrealized += gain

					lots = append(lots, map[string]any{
						"symbol":          p.Symbol,
						"quantity":        p.Quantity,
						"cost_basis":      p.CostBasis,
						"market_value":    value,
						"unrealized_gain": gain,
					})
				}

				return map[string]any{
					"tax_year":              taxYear,
					"lots":                  lots,
					"total_unrealized_gain": totalUnrealized,
					"realized_transactions": []any{},
					"total_realized_gain":   0.0,
					"generated_at":          time.Now().UTC(),
				}, nil
			}),
		},
		{
			Name:        "get_dashboard_data",
			Description: "Get compact dashboard data optimized for AI consumption",
			Schema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"refresh_cache": {
						Type:        "boolean",
						Description: "Force refresh of cached data",
						Default:     json.RawMessage(`false`),
					},
				},
			},
			Category:     "reporting",
			RiskLevel:    tool.RiskLow,
			RequiresAuth: true,
			Handler: tool.HandlerFunc(func(_ context.Context, _ map[string]any) (any, error) {
				positions := book.Positions()

				sort.Slice(positions, func(i, j int) bool {
					return book.MarketValue(positions[i]) > book.MarketValue(positions[j])
				})

				top := make([]map[string]any, 0, 3)
				for i, p := range positions {
					if i == 3 {
						break
					}

					top = append(top, map[string]any{
						"symbol":       p.Symbol,
						"market_value": book.MarketValue(p),
					})
				}

				series := portfolioSeries(book)

				dailyChange := 0.0
				if len(series) >= 2 && series[len(series)-2] != 0 {
					dailyChange = series[len(series)-1]/series[len(series)-2] - 1
				}

				return map[string]any{
					"total_value":   book.TotalValue(),
					"cash":          book.Cash(),
					"daily_change":  dailyChange,
					"top_positions": top,
					"as_of":         book.AsOf(),
				}, nil
			}),
		},
	}
}
