package portfolio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBookValuation(t *testing.T) {
	b := New()
	b.SetCash(1000)
	b.Upsert(Position{Symbol: "AAA", Quantity: 10, CostBasis: 5, Sector: "s", AssetType: "equity"})
	b.SetHistory("AAA", []float64{8, 9, 10})

	price, ok := b.LastPrice("AAA")
	require.True(t, ok)
	require.Equal(t, 10.0, price)

	require.Equal(t, 1100.0, b.TotalValue())
}

func TestBookFallsBackToCostBasis(t *testing.T) {
	b := New()
	b.Upsert(Position{Symbol: "NOPX", Quantity: 2, CostBasis: 50})

	require.Equal(t, 100.0, b.TotalValue())
}

func TestDemoBookIsDeterministic(t *testing.T) {
	a, b := Demo(), Demo()

	require.Equal(t, a.Positions(), b.Positions())
	require.InDelta(t, a.TotalValue(), b.TotalValue(), 1e-9)

	closesA, ok := a.History("SPY")
	require.True(t, ok)

	closesB, _ := b.History("SPY")
	require.Equal(t, closesA, closesB)
	require.Len(t, closesA, historyDays)

	// Benchmarks are seeded without positions.
	_, ok = a.History("QQQ")
	require.True(t, ok)
}

func TestDailyReturnsAndTotalReturn(t *testing.T) {
	closes := []float64{100, 110, 99}

	returns := DailyReturns(closes)
	require.Len(t, returns, 2)
	require.InDelta(t, 0.10, returns[0], 1e-9)
	require.InDelta(t, -0.10, returns[1], 1e-9)

	require.InDelta(t, -0.01, TotalReturn(closes), 1e-9)
	require.Zero(t, TotalReturn([]float64{100}))
}

func TestVolatilityAndSharpe(t *testing.T) {
	flat := []float64{0.01, 0.01, 0.01}
	require.Zero(t, Volatility(flat))
	require.Zero(t, SharpeRatio(flat))

	mixed := []float64{0.02, -0.01, 0.03, -0.02}
	require.Greater(t, Volatility(mixed), 0.0)
	require.Greater(t, AnnualizedVolatility(mixed), Volatility(mixed))
}

func TestMaxDrawdown(t *testing.T) {
	require.InDelta(t, 0.5, MaxDrawdown([]float64{100, 200, 100, 150}), 1e-9)
	require.Zero(t, MaxDrawdown([]float64{1, 2, 3}))
}

func TestBeta(t *testing.T) {
	bench := []float64{0.01, -0.02, 0.03, -0.01}

	// An asset moving at twice the benchmark has beta 2.
	asset := make([]float64, len(bench))
	for i, r := range bench {
		asset[i] = 2 * r
	}

	require.InDelta(t, 2.0, Beta(asset, bench), 1e-9)
	require.Zero(t, Beta(asset[:1], bench[:1]))
}

func TestValueAtRiskScalesWithHorizon(t *testing.T) {
	returns := []float64{0.01, -0.01, 0.02, -0.02, 0.01}

	oneDay := ValueAtRisk(returns, 0.95, 1, 10_000)
	fourDay := ValueAtRisk(returns, 0.95, 4, 10_000)

	require.Greater(t, oneDay, 0.0)
	require.InDelta(t, 2*oneDay, fourDay, 1e-9)

	// Higher confidence, larger VaR.
	require.Greater(t, ValueAtRisk(returns, 0.99, 1, 10_000), oneDay)
}

func TestSMASeries(t *testing.T) {
	sma := SMASeries([]float64{1, 2, 3, 4, 5}, 3)
	require.Equal(t, []float64{2, 3, 4}, sma)

	require.Nil(t, SMASeries([]float64{1, 2}, 3))
}

func TestEMASeriesConvergesTowardConstant(t *testing.T) {
	closes := []float64{10, 10, 10, 10}
	ema := EMASeries(closes, 2)
	require.Equal(t, 10.0, ema[len(ema)-1])
}

func TestRSIBounds(t *testing.T) {
	rising := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	require.Equal(t, 100.0, RSI(rising, 5))

	falling := []float64{8, 7, 6, 5, 4, 3, 2, 1}
	require.InDelta(t, 0.0, RSI(falling, 5), 1e-9)

	require.Equal(t, 50.0, RSI([]float64{1, 2}, 14))
}

func TestMACDShortSeries(t *testing.T) {
	macd, signal, hist := MACD([]float64{1, 2, 3})
	require.Zero(t, macd)
	require.Zero(t, signal)
	require.Zero(t, hist)
}

func TestPeriodWindow(t *testing.T) {
	require.Equal(t, 21, PeriodWindow("1m", 504))
	require.Equal(t, 252, PeriodWindow("1y", 504))
	require.Equal(t, 504, PeriodWindow("all", 504))
	require.Equal(t, 21, PeriodWindow("bogus", 504))
	require.Equal(t, 10, PeriodWindow("1y", 10), "window is capped by available history")
}

func TestRunSMACrossover(t *testing.T) {
	closes := SyntheticCloses("TEST", 300, 100)

	result, err := RunSMACrossover("TEST", closes, 10, 30, 100_000)
	require.NoError(t, err)
	require.Equal(t, "sma_crossover", result.StrategyType)
	require.Equal(t, 100_000.0, result.InitialCapital)
	require.Greater(t, result.FinalEquity, 0.0)
	require.InDelta(t, result.FinalEquity/100_000-1, result.TotalReturn, 1e-9)
	require.GreaterOrEqual(t, result.MaxDrawdown, 0.0)
	require.False(t, math.IsNaN(result.SharpeRatio))
}

func TestRunSMACrossoverRejectsBadInput(t *testing.T) {
	closes := SyntheticCloses("TEST", 300, 100)

	_, err := RunSMACrossover("TEST", closes, 30, 10, 1000)
	require.Error(t, err)

	_, err = RunSMACrossover("TEST", closes[:20], 5, 30, 1000)
	require.Error(t, err)
}

func TestOptimizeSMACrossover(t *testing.T) {
	closes := SyntheticCloses("TEST", 300, 100)

	best, err := OptimizeSMACrossover("TEST", closes, []int{5, 10}, []int{20, 40}, "return", 50_000)
	require.NoError(t, err)

	// The winner is at least as good as every candidate it beat.
	for _, fast := range []int{5, 10} {
		for _, slow := range []int{20, 40} {
			candidate, err := RunSMACrossover("TEST", closes, fast, slow, 50_000)
			require.NoError(t, err)
			require.GreaterOrEqual(t, best.TotalReturn, candidate.TotalReturn)
		}
	}

	_, err = OptimizeSMACrossover("TEST", closes, []int{50}, []int{10}, "sharpe", 1000)
	require.Error(t, err)
}
