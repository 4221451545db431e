package risk

import (
	"context"
	"time"

	"solana-token-sentinel/internal/cache"
	"solana-token-sentinel/internal/domain"
)

// Evaluate scores the snapshots at now. A nil market yields nil.
// A nil security snapshot is treated as UnknownSecurity.
func Evaluate(market *domain.TokenMarketSnapshot, security *domain.TokenSecuritySnapshot, now time.Time) *domain.TokenAnalysisResult {
	if market == nil {
		return nil
	}
	if security == nil {
		security = domain.UnknownSecurity()
	}

	factors := evaluateFactors(market, security, now)
	riskScore := score(factors)
	signal, reasons := deriveSignal(market, riskScore, now)
	if reasons == nil {
		reasons = []string{}
	}

	return &domain.TokenAnalysisResult{
		Market:        market,
		Security:      security,
		RiskScore:     riskScore,
		RiskLevel:     domain.RiskLevelFor(riskScore),
		Factors:       factors,
		Signal:        signal,
		SignalReasons: reasons,
		Honeypot:      security.Honeypot,
		LastChecked:   now,
	}
}

// Engine evaluates snapshots behind a mint-keyed result cache.
type Engine struct {
	cache *cache.TTL[*domain.TokenAnalysisResult]
	now   func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock sets the time source used for token age and LastChecked.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an engine backed by c. A nil cache gets a private
// cache with the default analysis TTL.
func NewEngine(c *cache.TTL[*domain.TokenAnalysisResult], opts ...EngineOption) *Engine {
	e := &Engine{cache: c, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil {
		e.cache = cache.New[*domain.TokenAnalysisResult]("analysis", cache.AnalysisTTL, cache.WithClock(e.now))
	}
	return e
}

// Analyze returns the cached result for the market's mint if one is live,
// otherwise evaluates and caches a fresh result.
func (e *Engine) Analyze(market *domain.TokenMarketSnapshot, security *domain.TokenSecuritySnapshot) *domain.TokenAnalysisResult {
	if market == nil {
		return nil
	}
	if cached, ok := e.cache.Get(market.Mint); ok {
		return cached
	}
	res := Evaluate(market, security, e.now())
	e.cache.Set(market.Mint, res)
	return res
}

// Cached returns the live cached result for mint, if any.
func (e *Engine) Cached(mint string) (*domain.TokenAnalysisResult, bool) {
	return e.cache.Get(mint)
}

// fetchFunc loads both snapshots. A nil market means the mint has no pairs.
type fetchFunc func(ctx context.Context) (*domain.TokenMarketSnapshot, *domain.TokenSecuritySnapshot, error)

// analyzeWith resolves mint through the cache, calling fetch at most once per
// concurrent burst. onFresh runs inside the shared load for each computed
// result, so it fires once even if the caller that started the load is gone.
func (e *Engine) analyzeWith(ctx context.Context, mint string, fetch fetchFunc, onFresh func(ctx context.Context, res *domain.TokenAnalysisResult)) (*domain.TokenAnalysisResult, error) {
	return e.cache.GetOrLoad(ctx, mint, func(ctx context.Context) (*domain.TokenAnalysisResult, bool, error) {
		market, security, err := fetch(ctx)
		if err != nil {
			return nil, false, err
		}
		if market == nil {
			return nil, false, nil
		}
		if market.Mint == "" {
			market.Mint = mint
		}
		res := Evaluate(market, security, e.now())
		if onFresh != nil {
			onFresh(ctx, res)
		}
		return res, true, nil
	})
}
