package portfolio

import (
	"math"
)

// tradingDays is the annualization factor for daily series.
const tradingDays = 252

// DailyReturns converts a close series to simple daily returns.
func DailyReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			returns = append(returns, 0)

			continue
		}

		returns = append(returns, closes[i]/closes[i-1]-1)
	}

	return returns
}

// TotalReturn is the simple return from the first close to the last.
func TotalReturn(closes []float64) float64 {
	if len(closes) < 2 || closes[0] == 0 {
		return 0
	}

	return closes[len(closes)-1]/closes[0] - 1
}

// Volatility is the sample standard deviation of returns.
func Volatility(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	mean := Mean(returns)

	var sum float64
	for _, r := range returns {
		d := r - mean
		sum += d * d
	}

	return math.Sqrt(sum / float64(len(returns)-1))
}

// AnnualizedVolatility scales daily volatility to a yearly horizon.
func AnnualizedVolatility(returns []float64) float64 {
	return Volatility(returns) * math.Sqrt(tradingDays)
}

// Mean is the arithmetic mean of xs, zero for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}

	var sum float64
	for _, x := range xs {
		sum += x
	}

	return sum / float64(len(xs))
}

// SharpeRatio is the annualized mean excess return over annualized
// volatility, with a zero risk-free rate.
func SharpeRatio(returns []float64) float64 {
	vol := AnnualizedVolatility(returns)
	if vol == 0 {
		return 0
	}

	return Mean(returns) * tradingDays / vol
}

// MaxDrawdown is the largest peak-to-trough decline of a close or equity
// series, as a positive fraction.
func MaxDrawdown(closes []float64) float64 {
	var peak, worst float64

	for _, c := range closes {
		if c > peak {
			peak = c
		}

		if peak > 0 {
			dd := 1 - c/peak
			if dd > worst {
				worst = dd
			}
		}
	}

	return worst
}

// Beta regresses asset returns against benchmark returns. Series are
// aligned on their tails; mismatched leading history is dropped.
func Beta(asset, benchmark []float64) float64 {
	n := len(asset)
	if len(benchmark) < n {
		n = len(benchmark)
	}

	if n < 2 {
		return 0
	}

	asset = asset[len(asset)-n:]
	benchmark = benchmark[len(benchmark)-n:]

	meanA := Mean(asset)
	meanB := Mean(benchmark)

	var cov, varB float64

	for i := 0; i < n; i++ {
		cov += (asset[i] - meanA) * (benchmark[i] - meanB)
		varB += (benchmark[i] - meanB) * (benchmark[i] - meanB)
	}

	if varB == 0 {
		return 0
	}

	return cov / varB
}

// ValueAtRisk is a parametric VaR of a holding worth value, at the given
// confidence level over horizonDays, returned as a positive amount.
func ValueAtRisk(returns []float64, confidence float64, horizonDays int, value float64) float64 {
	if horizonDays < 1 {
		horizonDays = 1
	}

	return zScore(confidence) * Volatility(returns) * math.Sqrt(float64(horizonDays)) * value
}

// zScore maps the supported confidence levels to one-tailed normal
// quantiles; unknown levels fall back to 95%.
func zScore(confidence float64) float64 {
	switch confidence {
	case 0.90:
		return 1.2816
	case 0.99:
		return 2.3263
	default:
		return 1.6449
	}
}

// SMASeries is the simple moving average of closes with the given window.
// The result is aligned to the input's tail: index i covers the window
// ending at closes[i+window-1].
func SMASeries(closes []float64, window int) []float64 {
	if window < 1 || len(closes) < window {
		return nil
	}

	out := make([]float64, 0, len(closes)-window+1)

	var sum float64
	for i, c := range closes {
		sum += c
		if i >= window {
			sum -= closes[i-window]
		}

		if i >= window-1 {
			out = append(out, sum/float64(window))
		}
	}

	return out
}

// EMASeries is the exponential moving average of closes, seeded with the
// first close.
func EMASeries(closes []float64, window int) []float64 {
	if window < 1 || len(closes) == 0 {
		return nil
	}

	alpha := 2 / (float64(window) + 1)
	out := make([]float64, len(closes))
	out[0] = closes[0]

	for i := 1; i < len(closes); i++ {
		out[i] = alpha*closes[i] + (1-alpha)*out[i-1]
	}

	return out
}

// RSI is the relative strength index over the trailing period, in [0, 100].
func RSI(closes []float64, period int) float64 {
	if period < 1 || len(closes) < period+1 {
		return 50
	}

	var gains, losses float64

	for i := len(closes) - period; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	if losses == 0 {
		return 100
	}

	rs := gains / losses

	return 100 - 100/(1+rs)
}

// MACD returns the MACD line (12/26 EMA spread), its 9-period signal, and
// the histogram, evaluated at the last close.
func MACD(closes []float64) (macd, signal, histogram float64) {
	if len(closes) < 26 {
		return 0, 0, 0
	}

	fast := EMASeries(closes, 12)
	slow := EMASeries(closes, 26)

	spread := make([]float64, len(closes))
	for i := range closes {
		spread[i] = fast[i] - slow[i]
	}

	signalSeries := EMASeries(spread, 9)

	macd = spread[len(spread)-1]
	signal = signalSeries[len(signalSeries)-1]

	return macd, signal, macd - signal
}

// PeriodWindow maps a period label (1d, 1w, 1m, 3m, 6m, 1y, ytd, all) to a
// trailing number of trading days; unknown labels get one month.
func PeriodWindow(period string, total int) int {
	var days int

	switch period {
	case "1d":
		days = 2
	case "1w":
		days = 5
	case "3m":
		days = 63
	case "6m":
		days = 126
	case "1y":
		days = tradingDays
	case "ytd":
		days = 168
	case "all":
		days = total
	default: // 1m
		days = 21
	}

	if days > total {
		days = total
	}

	return days
}

// Tail returns the trailing n elements of xs.
func Tail(xs []float64, n int) []float64 {
	if n >= len(xs) {
		return xs
	}

	return xs[len(xs)-n:]
}
