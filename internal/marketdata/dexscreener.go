// Package marketdata provides the market and security collaborators used by
// the risk service: DexScreener pairs, RugCheck reports and on-chain mint data.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"solana-token-sentinel/internal/domain"
	"solana-token-sentinel/internal/risk"
	"solana-token-sentinel/internal/upstream"
)

// DefaultDexScreenerURL is the public DexScreener API.
const DefaultDexScreenerURL = "https://api.dexscreener.com"

const solanaChainID = "solana"

// DexScreener fetches pair data for a token and keeps the most liquid Solana pair.
type DexScreener struct {
	baseURL string
	http    *upstream.Client
}

// NewDexScreener creates a client against baseURL (DefaultDexScreenerURL when empty).
func NewDexScreener(baseURL string, opts ...upstream.Option) *DexScreener {
	if baseURL == "" {
		baseURL = DefaultDexScreenerURL
	}
	return &DexScreener{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    upstream.New("dexscreener", opts...),
	}
}

// Name identifies the source in logs.
func (d *DexScreener) Name() string { return "dexscreener" }

// Market returns the snapshot of the most liquid Solana pair for mint,
// or nil when the token has no Solana pairs.
func (d *DexScreener) Market(ctx context.Context, mint string) (*domain.TokenMarketSnapshot, error) {
	endpoint := fmt.Sprintf("%s/latest/dex/tokens/%s", d.baseURL, url.PathEscape(mint))

	var resp dexTokensResponse
	if err := d.http.GetJSON(ctx, endpoint, nil, &resp); err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("dexscreener tokens %s: %w", mint, err)
	}

	best := bestSolanaPair(resp.Pairs)
	if best == nil {
		return nil, nil
	}
	return best.snapshot(mint), nil
}

// bestSolanaPair picks the Solana pair with the highest USD liquidity.
// Ties keep the first pair in response order.
func bestSolanaPair(pairs []dexPair) *dexPair {
	var best *dexPair
	for i := range pairs {
		p := &pairs[i]
		if p.ChainID != solanaChainID {
			continue
		}
		if best == nil || p.liquidityUSD() > best.liquidityUSD() {
			best = p
		}
	}
	return best
}

type dexTokensResponse struct {
	SchemaVersion string    `json:"schemaVersion"`
	Pairs         []dexPair `json:"pairs"`
}

type dexPair struct {
	ChainID       string        `json:"chainId"`
	DexID         string        `json:"dexId"`
	PairAddress   string        `json:"pairAddress"`
	BaseToken     dexToken      `json:"baseToken"`
	QuoteToken    dexToken      `json:"quoteToken"`
	PriceUSD      string        `json:"priceUsd"`
	Txns          dexTxns       `json:"txns"`
	Volume        dexWindows    `json:"volume"`
	PriceChange   dexWindows    `json:"priceChange"`
	Liquidity     *dexLiquidity `json:"liquidity"`
	FDV           float64       `json:"fdv"`
	MarketCap     float64       `json:"marketCap"`
	PairCreatedAt int64         `json:"pairCreatedAt"` // unix millis
}

type dexToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type dexTxns struct {
	H24 dexTxnCount `json:"h24"`
}

type dexTxnCount struct {
	Buys  int `json:"buys"`
	Sells int `json:"sells"`
}

type dexWindows struct {
	M5  float64 `json:"m5"`
	H1  float64 `json:"h1"`
	H6  float64 `json:"h6"`
	H24 float64 `json:"h24"`
}

type dexLiquidity struct {
	USD   float64 `json:"usd"`
	Base  float64 `json:"base"`
	Quote float64 `json:"quote"`
}

func (p *dexPair) liquidityUSD() float64 {
	if p.Liquidity == nil {
		return 0
	}
	return p.Liquidity.USD
}

func (p *dexPair) snapshot(mint string) *domain.TokenMarketSnapshot {
	token := p.BaseToken
	if !strings.EqualFold(token.Address, mint) && strings.EqualFold(p.QuoteToken.Address, mint) {
		token = p.QuoteToken
	}

	price, _ := strconv.ParseFloat(p.PriceUSD, 64)
	mcap := p.MarketCap
	if mcap == 0 {
		mcap = p.FDV
	}

	s := &domain.TokenMarketSnapshot{
		Mint:     mint,
		Symbol:   token.Symbol,
		Name:     token.Name,
		PriceUSD: price,
		PriceChange: domain.PriceChange{
			M5:  p.PriceChange.M5,
			H1:  p.PriceChange.H1,
			H6:  p.PriceChange.H6,
			H24: p.PriceChange.H24,
		},
		MarketCap:    mcap,
		FDV:          p.FDV,
		Volume24h:    p.Volume.H24,
		LiquidityUSD: p.liquidityUSD(),
		Buys24h:      p.Txns.H24.Buys,
		Sells24h:     p.Txns.H24.Sells,
		DexID:        p.DexID,
		PairAddress:  p.PairAddress,
	}
	if p.PairCreatedAt > 0 {
		s.PairCreatedAt = time.UnixMilli(p.PairCreatedAt).UTC()
	}
	return s
}

var _ risk.MarketSource = (*DexScreener)(nil)
