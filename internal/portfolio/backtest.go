package portfolio

import (
	"fmt"
)

// BacktestResult summarizes one strategy run over a close series.
type BacktestResult struct {
	StrategyType         string  `json:"strategy_type"`
	Symbol               string  `json:"symbol"`
	FastWindow           int     `json:"fast_window"`
	SlowWindow           int     `json:"slow_window"`
	InitialCapital       float64 `json:"initial_capital"`
	FinalEquity          float64 `json:"final_equity"`
	TotalReturn          float64 `json:"total_return"`
	AnnualizedVolatility float64 `json:"annualized_volatility"`
	SharpeRatio          float64 `json:"sharpe_ratio"`
	MaxDrawdown          float64 `json:"max_drawdown"`
	Trades               int     `json:"trades"`
}

// RunSMACrossover backtests a long-only moving-average crossover: fully
// invested while the fast SMA is above the slow SMA, in cash otherwise.
func RunSMACrossover(symbol string, closes []float64, fast, slow int, initialCapital float64) (BacktestResult, error) {
	if fast < 1 || slow <= fast {
		return BacktestResult{}, fmt.Errorf("invalid windows: fast %d must be >= 1 and < slow %d", fast, slow)
	}

	if len(closes) <= slow+1 {
		return BacktestResult{}, fmt.Errorf("not enough history: %d closes for slow window %d", len(closes), slow)
	}

	fastSMA := SMASeries(closes, fast)
	slowSMA := SMASeries(closes, slow)

	// Align both series to the point where the slow window is warm.
	fastSMA = fastSMA[len(fastSMA)-len(slowSMA):]
	prices := closes[len(closes)-len(slowSMA):]

	equity := make([]float64, 0, len(prices))
	equity = append(equity, initialCapital)

	cash := initialCapital
	shares := 0.0
	invested := false
	trades := 0

	for i := 1; i < len(prices); i++ {
		long := fastSMA[i-1] > slowSMA[i-1]

		if long && !invested {
			shares = cash / prices[i-1]
			cash = 0
			invested = true
			trades++
		} else if !long && invested {
			cash = shares * prices[i-1]
			shares = 0
			invested = false
			trades++
		}

		equity = append(equity, cash+shares*prices[i])
	}

	returns := DailyReturns(equity)

	return BacktestResult{
		StrategyType:         "sma_crossover",
		Symbol:               symbol,
		FastWindow:           fast,
		SlowWindow:           slow,
		InitialCapital:       initialCapital,
		FinalEquity:          equity[len(equity)-1],
		TotalReturn:          TotalReturn(equity),
		AnnualizedVolatility: AnnualizedVolatility(returns),
		SharpeRatio:          SharpeRatio(returns),
		MaxDrawdown:          MaxDrawdown(equity),
		Trades:               trades,
	}, nil
}

// OptimizeSMACrossover grid-searches window pairs and returns the result
// scoring best on metric (sharpe, return, or max_drawdown).
func OptimizeSMACrossover(symbol string, closes []float64, fasts, slows []int, metric string, initialCapital float64) (BacktestResult, error) {
	var (
		best  BacktestResult
		found bool
	)

	for _, fast := range fasts {
		for _, slow := range slows {
			if slow <= fast {
				continue
			}

			result, err := RunSMACrossover(symbol, closes, fast, slow, initialCapital)
			if err != nil {
				continue
			}

			if !found || score(result, metric) > score(best, metric) {
				best = result
				found = true
			}
		}
	}

	if !found {
		return BacktestResult{}, fmt.Errorf("no valid window pair in ranges fast=%v slow=%v", fasts, slows)
	}

	return best, nil
}

// score orders results under a named metric; higher is better.
func score(r BacktestResult, metric string) float64 {
	switch metric {
	case "return":
		return r.TotalReturn
	case "max_drawdown":
		return -r.MaxDrawdown
	default: // sharpe
		return r.SharpeRatio
	}
}
