package risk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"solana-token-sentinel/internal/domain"
	"solana-token-sentinel/internal/observability"
)

// ErrMarketUnavailable is returned when the market collaborator could not be reached.
var ErrMarketUnavailable = errors.New("market data unavailable")

// MarketSource supplies market snapshots. A mint with no trading pairs yields (nil, nil).
type MarketSource interface {
	Market(ctx context.Context, mint string) (*domain.TokenMarketSnapshot, error)
}

// SecuritySource supplies security snapshots.
type SecuritySource interface {
	Security(ctx context.Context, mint string) (*domain.TokenSecuritySnapshot, error)
}

// Recorder receives every freshly computed analysis.
type Recorder interface {
	RecordAnalysis(ctx context.Context, res *domain.TokenAnalysisResult)
}

// Service fetches snapshots for a mint and runs them through the engine.
type Service struct {
	engine   *Engine
	market   MarketSource
	security SecuritySource
	recorder Recorder
	logger   zerolog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithRecorder sets the recorder for fresh results.
func WithRecorder(r Recorder) ServiceOption {
	return func(s *Service) {
		s.recorder = r
	}
}

// WithLogger sets the service logger.
func WithLogger(l zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService creates a service. security may be nil, in which case every
// analysis uses UnknownSecurity.
func NewService(engine *Engine, market MarketSource, security SecuritySource, opts ...ServiceOption) *Service {
	s := &Service{
		engine:   engine,
		market:   market,
		security: security,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze returns the analysis for mint.
// It returns (nil, nil) when the mint has no trading pairs and wraps
// ErrMarketUnavailable when the market fetch fails.
func (s *Service) Analyze(ctx context.Context, mint string) (*domain.TokenAnalysisResult, error) {
	start := time.Now()

	res, err := s.engine.analyzeWith(ctx, mint, func(ctx context.Context) (*domain.TokenMarketSnapshot, *domain.TokenSecuritySnapshot, error) {
		return s.fetch(ctx, mint)
	}, func(ctx context.Context, res *domain.TokenAnalysisResult) {
		observability.RecordAnalysis(string(res.RiskLevel), string(res.Signal), time.Since(start))
		s.logger.Info().
			Str("mint", mint).
			Int("risk_score", res.RiskScore).
			Str("risk_level", string(res.RiskLevel)).
			Str("signal", string(res.Signal)).
			Str("security_source", res.Security.Source).
			Msg("analysis computed")
		if s.recorder != nil {
			s.recorder.RecordAnalysis(ctx, res)
		}
	})
	if err != nil {
		return nil, err
	}
	if res == nil {
		observability.RecordAnalysisNotFound()
		s.logger.Debug().Str("mint", mint).Msg("no trading pairs")
		return nil, nil
	}
	return res, nil
}

// fetch loads market and security in parallel. A security failure degrades
// to UnknownSecurity.
func (s *Service) fetch(ctx context.Context, mint string) (*domain.TokenMarketSnapshot, *domain.TokenSecuritySnapshot, error) {
	var (
		market   *domain.TokenMarketSnapshot
		security *domain.TokenSecuritySnapshot
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := s.market.Market(gctx, mint)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMarketUnavailable, err)
		}
		market = m
		return nil
	})
	g.Go(func() error {
		security = s.fetchSecurity(gctx, mint)
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn().Err(err).Str("mint", mint).Msg("market fetch failed")
		return nil, nil, err
	}
	return market, security, nil
}

func (s *Service) fetchSecurity(ctx context.Context, mint string) *domain.TokenSecuritySnapshot {
	if s.security == nil {
		return domain.UnknownSecurity()
	}
	sec, err := s.security.Security(ctx, mint)
	if err != nil {
		s.logger.Warn().Err(err).Str("mint", mint).Msg("security fetch failed, reporting unknown")
		return domain.UnknownSecurity()
	}
	if sec == nil {
		return domain.UnknownSecurity()
	}
	return sec
}
