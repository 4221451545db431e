package domain

import "time"

// PriceChange holds percentage price changes over the standard DEX windows.
type PriceChange struct {
	M5  float64 `json:"m5"`
	H1  float64 `json:"h1"`
	H6  float64 `json:"h6"`
	H24 float64 `json:"h24"`
}

// TokenMarketSnapshot is the market view of a token taken from its most liquid pair.
// Immutable for the duration of one analysis.
type TokenMarketSnapshot struct {
	Mint          string      `json:"mint"`
	Symbol        string      `json:"symbol"`
	Name          string      `json:"name"`
	PriceUSD      float64     `json:"priceUsd"`
	PriceChange   PriceChange `json:"priceChange"`
	MarketCap     float64     `json:"marketCap"`
	FDV           float64     `json:"fdv"`
	Volume24h     float64     `json:"volume24h"`
	LiquidityUSD  float64     `json:"liquidityUsd"`
	PairCreatedAt time.Time   `json:"pairCreatedAt"` // zero when the source does not report it
	Buys24h       int         `json:"buys24h"`
	Sells24h      int         `json:"sells24h"`
	DexID         string      `json:"dexId"`
	PairAddress   string      `json:"pairAddress,omitempty"`
}

// Age returns the pair age at now and whether the creation time is known.
func (m *TokenMarketSnapshot) Age(now time.Time) (time.Duration, bool) {
	if m.PairCreatedAt.IsZero() {
		return 0, false
	}
	age := now.Sub(m.PairCreatedAt)
	if age < 0 {
		age = 0
	}
	return age, true
}

// TotalTxns24h returns buys plus sells over 24h.
func (m *TokenMarketSnapshot) TotalTxns24h() int {
	return m.Buys24h + m.Sells24h
}
