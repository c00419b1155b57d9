package pricing

import (
	"math/rand"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// Quote is a point-in-time price observation for a symbol
type Quote struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"change_percent"`
}

type listing struct {
	base       float64
	volatility float64
}

// defaultBase is used for symbols missing from the table
const defaultBase = 100.0

// basePrices is the static table of known symbols. Jitter is bounded by
// ±volatility*base/2 around the base, so every price stays inside a
// fixed band.
var basePrices = map[string]listing{
	"AAPL":  {base: 178.50, volatility: 0.02},
	"GOOGL": {base: 141.25, volatility: 0.02},
	"MSFT":  {base: 378.90, volatility: 0.015},
	"AMZN":  {base: 151.75, volatility: 0.025},
	"TSLA":  {base: 248.30, volatility: 0.04},
	"NVDA":  {base: 495.20, volatility: 0.035},
	"META":  {base: 354.60, volatility: 0.03},
	"SPY":   {base: 455.80, volatility: 0.01},
	"VTI":   {base: 238.40, volatility: 0.01},
	"BND":   {base: 72.15, volatility: 0.005},
}

// Oracle produces jittered quotes around static base prices. There is
// no caching: two calls for the same symbol may return different
// prices, and callers must tolerate that.
type Oracle struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewOracle creates an oracle with its own random source
func NewOracle() *Oracle {
	return &Oracle{rng: rand.New(rand.NewSource(rand.Int63()))}
}

// Quote returns the current price for a symbol with bounded symmetric
// jitter. Unknown symbols quote around the default base price.
func (o *Oracle) Quote(symbol string) Quote {
	symbol = strings.ToUpper(symbol)

	l, ok := basePrices[symbol]
	if !ok {
		l = listing{base: defaultBase, volatility: 0.02}
	}

	o.mu.Lock()
	// Uniform in [-0.5, 0.5), scaled by volatility*base.
	jitter := (o.rng.Float64() - 0.5) * l.volatility * l.base
	o.mu.Unlock()

	price := decimal.NewFromFloat(l.base + jitter).Round(2)
	change := price.Sub(decimal.NewFromFloat(l.base)).Round(2)
	changePercent := decimal.Zero
	if l.base != 0 {
		changePercent = change.DivRound(decimal.NewFromFloat(l.base), 4).Mul(decimal.NewFromInt(100))
	}

	return Quote{
		Symbol:        symbol,
		Price:         price,
		Change:        change,
		ChangePercent: changePercent,
	}
}

// KnownSymbols lists the symbols with a dedicated base price
func KnownSymbols() []string {
	symbols := make([]string, 0, len(basePrices))
	for s := range basePrices {
		symbols = append(symbols, s)
	}
	return symbols
}
