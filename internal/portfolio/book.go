// Package portfolio holds the in-memory positions and market history that
// back the tool handlers. Nothing here performs network I/O or persists
// state; the demo book is seeded deterministically at startup.
package portfolio

import (
	"hash/fnv"
	"math/rand/v2"
	"sort"
	"sync"
	"time"
)

// Position is one holding in the book.
type Position struct {
	Symbol    string  `json:"symbol"`
	Quantity  float64 `json:"quantity"`
	CostBasis float64 `json:"cost_basis"`
	Sector    string  `json:"sector"`
	AssetType string  `json:"asset_type"`
}

// Book is the in-memory portfolio: cash, positions, and daily close
// history per symbol. Safe for concurrent use by dispatches.
type Book struct {
	mu        sync.RWMutex
	cash      float64
	positions map[string]Position
	history   map[string][]float64
	asOf      time.Time
}

// New creates an empty book.
func New() *Book {
	return &Book{
		positions: make(map[string]Position, 8),
		history:   make(map[string][]float64, 8),
		asOf:      time.Now().UTC(),
	}
}

// SetCash sets the cash balance.
func (b *Book) SetCash(v float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cash = v
}

// Cash returns the cash balance.
func (b *Book) Cash() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.cash
}

// Upsert adds or replaces the position for p.Symbol.
func (b *Book) Upsert(p Position) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.positions[p.Symbol] = p
}

// SetHistory replaces the daily close history for symbol, oldest first.
func (b *Book) SetHistory(symbol string, closes []float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.history[symbol] = append([]float64(nil), closes...)
}

// History returns a copy of symbol's close history, oldest first.
func (b *Book) History(symbol string) ([]float64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	closes, ok := b.history[symbol]
	if !ok {
		return nil, false
	}

	return append([]float64(nil), closes...), true
}

// LastPrice returns the most recent close for symbol.
func (b *Book) LastPrice(symbol string) (float64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	closes, ok := b.history[symbol]
	if !ok || len(closes) == 0 {
		return 0, false
	}

	return closes[len(closes)-1], true
}

// Positions returns all positions sorted by symbol.
func (b *Book) Positions() []Position {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Position, 0, len(b.positions))
	for _, p := range b.positions {
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })

	return out
}

// MarketValue returns the current value of one position, falling back to
// cost basis when no price history exists.
func (b *Book) MarketValue(p Position) float64 {
	price, ok := b.LastPrice(p.Symbol)
	if !ok {
		price = p.CostBasis
	}

	return p.Quantity * price
}

// TotalValue returns cash plus the market value of all positions.
func (b *Book) TotalValue() float64 {
	total := b.Cash()
	for _, p := range b.Positions() {
		total += b.MarketValue(p)
	}

	return total
}

// AsOf returns the book's valuation timestamp.
func (b *Book) AsOf() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.asOf
}

// historyDays is the seeded depth of demo close history, roughly two
// trading years.
const historyDays = 504

// Demo returns a book seeded with a fixed set of positions and
// deterministic synthetic price history, so every run of the server
// exposes the same data.
func Demo() *Book {
	b := New()
	b.SetCash(25_000)

	seed := []struct {
		pos   Position
		start float64
	}{
		{Position{Symbol: "AAPL", Quantity: 50, CostBasis: 152.40, Sector: "technology", AssetType: "equity"}, 150},
		{Position{Symbol: "MSFT", Quantity: 30, CostBasis: 310.75, Sector: "technology", AssetType: "equity"}, 305},
		{Position{Symbol: "JNJ", Quantity: 40, CostBasis: 161.20, Sector: "healthcare", AssetType: "equity"}, 160},
		{Position{Symbol: "JPM", Quantity: 25, CostBasis: 142.60, Sector: "financials", AssetType: "equity"}, 140},
		{Position{Symbol: "SPY", Quantity: 20, CostBasis: 438.10, Sector: "broad_market", AssetType: "etf"}, 430},
	}

	for _, s := range seed {
		b.Upsert(s.pos)
		b.SetHistory(s.pos.Symbol, SyntheticCloses(s.pos.Symbol, historyDays, s.start))
	}

	// Benchmarks callers can compare against without holding them.
	for symbol, start := range map[string]float64{"QQQ": 370, "IWM": 190} {
		b.SetHistory(symbol, SyntheticCloses(symbol, historyDays, start))
	}

	return b
}

// SyntheticCloses generates a deterministic random-walk close series for
// symbol; the same symbol always yields the same series.
func SyntheticCloses(symbol string, days int, start float64) []float64 {
	h := fnv.New64a()
	h.Write([]byte(symbol))

	rng := rand.New(rand.NewPCG(h.Sum64(), h.Sum64()>>1))

	closes := make([]float64, days)
	price := start

	for i := range closes {
		// Mild upward drift with daily noise.
		price *= 1 + 0.0003 + 0.012*rng.NormFloat64()
		if price < 1 {
			price = 1
		}

		closes[i] = price
	}

	return closes
}
