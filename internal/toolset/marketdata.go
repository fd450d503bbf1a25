package toolset

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/quantfolio/portfolio-mcp/internal/portfolio"
	"github.com/quantfolio/portfolio-mcp/internal/tool"
)

func marketDataTools(deps Deps) []*tool.Definition {
	book := deps.Book

	return []*tool.Definition{
		{
			Name:        "get_market_data",
			Description: "Get current and historical market data for symbols",
			Schema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"symbols": {
						Type:        "array",
						Items:       &jsonschema.Schema{Type: "string"},
						Description: "List of symbols",
					},
					"data_type": {
						Type:        "string",
						Description: "Type of data (quotes, bars, all)",
						Default:     json.RawMessage(`"quotes"`),
					},
					"timeframe": {
						Type:        "string",
						Description: "Timeframe for historical data (1day)",
						Default:     json.RawMessage(`"1day"`),
					},
					"limit": {
						Type:        "integer",
						Description: "Number of data points to retrieve",
						Default:     json.RawMessage(`100`),
					},
				},
				Required: []string{"symbols"},
			},
			Category:     "market_data",
			RiskLevel:    tool.RiskLow,
			RequiresAuth: true,
			Handler: tool.HandlerFunc(func(_ context.Context, args map[string]any) (any, error) {
				symbols := stringsArg(args, "symbols", nil)
				dataType := stringArg(args, "data_type", "quotes")
				timeframe := stringArg(args, "timeframe", "1day")
				limit := intArg(args, "limit", 100)

				if timeframe != "1day" {
					return nil, fmt.Errorf("unsupported timeframe %q", timeframe)
				}

				if limit < 1 {
					return nil, fmt.Errorf("limit must be positive, got %d", limit)
				}

				result := make(map[string]any, len(symbols))

				for _, symbol := range symbols {
					closes, ok := book.History(symbol)
					if !ok {
						return nil, fmt.Errorf("no market data for symbol %q", symbol)
					}

					entry := make(map[string]any, 2)

					if dataType == "quotes" || dataType == "all" {
						entry["last_price"] = closes[len(closes)-1]
					}

					if dataType == "bars" || dataType == "all" {
						entry["bars"] = portfolio.Tail(closes, limit)
					}

					if len(entry) == 0 {
						return nil, fmt.Errorf("unknown data_type %q", dataType)
					}

					result[symbol] = entry
				}

				return map[string]any{
					"timeframe": timeframe,
					"data":      result,
				}, nil
			}),
		},
		{
			Name:        "get_market_trends",
			Description: "Analyze market trends and identify patterns",
			Schema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"symbols": {
						Type:        "array",
						Items:       &jsonschema.Schema{Type: "string"},
						Description: "List of symbols to analyze",
					},
					"analysis_type": {
						Type:        "string",
						Description: "Type of trend analysis (momentum, mean_reversion, breakout)",
						Default:     json.RawMessage(`"momentum"`),
					},
					"period": {
						Type:        "string",
						Description: "Analysis period",
						Default:     json.RawMessage(`"1m"`),
					},
				},
				Required: []string{"symbols"},
			},
			Category:     "market_data",
			RiskLevel:    tool.RiskLow,
			RequiresAuth: true,
			Handler: tool.HandlerFunc(func(_ context.Context, args map[string]any) (any, error) {
				symbols := stringsArg(args, "symbols", nil)
				analysisType := stringArg(args, "analysis_type", "momentum")
				period := stringArg(args, "period", "1m")

				trends := make(map[string]any, len(symbols))

				for _, symbol := range symbols {
					closes, ok := book.History(symbol)
					if !ok {
						return nil, fmt.Errorf("no market data for symbol %q", symbol)
					}

					window := portfolio.Tail(closes, portfolio.PeriodWindow(period, len(closes)))
					last := window[len(window)-1]

					switch analysisType {
					case "momentum":
						change := portfolio.TotalReturn(window)
						direction := "flat"

						if change > 0.01 {
							direction = "up"
						} else if change < -0.01 {
							direction = "down"
						}

						trends[symbol] = map[string]any{
							"return":    change,
							"direction": direction,
						}
					case "mean_reversion":
						sma := portfolio.SMASeries(window, len(window))

						mean := last
						if len(sma) > 0 {
							mean = sma[len(sma)-1]
						}

						deviation := 0.0
						if mean != 0 {
							deviation = last/mean - 1
						}

						trends[symbol] = map[string]any{
							"mean":      mean,
							"deviation": deviation,
						}
					case "breakout":
						high := window[0]
						for _, c := range window {
							if c > high {
								high = c
							}
						}

						trends[symbol] = map[string]any{
							"period_high": high,
							"at_high":     last >= high,
						}
					default:
						return nil, fmt.Errorf("unknown analysis_type %q", analysisType)
					}
				}

				return map[string]any{
					"analysis_type": analysisType,
					"period":        period,
					"trends":        trends,
				}, nil
			}),
		},
	}
}
