package sentiment

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"solana-token-sentinel/internal/cache"
	"solana-token-sentinel/internal/domain"
	"solana-token-sentinel/internal/observability"
)

// PostSource supplies posts mentioning a token. Zero posts is not an error.
type PostSource interface {
	Posts(ctx context.Context, q domain.PostQuery) ([]domain.SocialPost, error)
}

// Recorder receives every freshly built report, including error reports.
type Recorder interface {
	RecordSentiment(ctx context.Context, report *domain.SentimentReport)
}

// Service fetches posts and scores them behind a report cache.
type Service struct {
	source   PostSource
	cache    *cache.TTL[*domain.SentimentReport]
	weights  Weights
	now      func() time.Time
	recorder Recorder
	logger   zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithWeights overrides the default tuning.
func WithWeights(w Weights) Option {
	return func(s *Service) {
		s.weights = w
	}
}

// WithClock sets the time source for account ages and GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithRecorder sets the recorder for fresh reports.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

// WithLogger sets the service logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService creates a service. A nil cache gets a private cache with the
// default sentiment TTL.
func NewService(source PostSource, c *cache.TTL[*domain.SentimentReport], opts ...Option) *Service {
	s := &Service{
		source:  source,
		cache:   c,
		weights: DefaultWeights(),
		now:     time.Now,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = cache.New[*domain.SentimentReport]("sentiment", cache.SentimentTTL, cache.WithClock(s.now))
	}
	return s
}

// Weights returns the tuning in use.
func (s *Service) Weights() Weights {
	return s.weights
}

// Report returns the sentiment report for mint.
func (s *Service) Report(ctx context.Context, mint string) *domain.SentimentReport {
	return s.ReportFor(ctx, domain.PostQuery{Mint: mint})
}

// ReportFor returns the report for q, cached per mint and symbol.
// It never fails: a fetch failure yields an uncached report with status error.
func (s *Service) ReportFor(ctx context.Context, q domain.PostQuery) *domain.SentimentReport {
	report, err := s.cache.GetOrLoad(ctx, reportKey(q), func(ctx context.Context) (*domain.SentimentReport, bool, error) {
		r, store := s.build(ctx, q)
		observability.RecordSentimentReport(string(r.Status), r.BotFiltered, r.Duplicates)
		s.logger.Info().
			Str("mint", q.Mint).
			Str("symbol", q.Symbol).
			Str("status", string(r.Status)).
			Int("posts", r.TotalPosts).
			Int("human", r.HumanPosts).
			Int("score", r.OverallScore).
			Msg("sentiment report built")
		if s.recorder != nil {
			s.recorder.RecordSentiment(ctx, r)
		}
		return r, store, nil
	})
	if err != nil {
		// The caller gave up before the shared load finished.
		r := domain.EmptyReport(q.Mint, domain.ReportError, s.now())
		r.Error = err.Error()
		return r
	}
	return report
}

// build fetches and scores posts for q. store is false for error reports.
func (s *Service) build(ctx context.Context, q domain.PostQuery) (report *domain.SentimentReport, store bool) {
	posts, err := s.source.Posts(ctx, q)
	if err != nil {
		s.logger.Warn().Err(err).Str("mint", q.Mint).Msg("post fetch failed")
		r := domain.EmptyReport(q.Mint, domain.ReportError, s.now())
		r.Error = err.Error()
		return r, false
	}
	return Score(q.Mint, posts, s.weights, s.now()), true
}

// reportKey separates reports searched with a cashtag from mint-only ones.
func reportKey(q domain.PostQuery) string {
	sym := strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(q.Symbol), "$"))
	if sym == "" {
		return q.Mint
	}
	return q.Mint + "|" + sym
}

// Score scores caller-supplied posts without caching or recording.
func (s *Service) Score(mint string, posts []domain.SocialPost) *domain.SentimentReport {
	return Score(mint, posts, s.weights, s.now())
}
