// Package journal persists fresh analyses and sentiment reports.
package journal

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"solana-token-sentinel/internal/domain"
	"solana-token-sentinel/internal/idhash"
	"solana-token-sentinel/internal/observability"
	"solana-token-sentinel/internal/risk"
	"solana-token-sentinel/internal/sentiment"
	"solana-token-sentinel/internal/storage"
)

// DefaultWriteTimeout bounds one record write.
const DefaultWriteTimeout = 5 * time.Second

// Store names used in metrics and logs.
const (
	storeAnalysis  = "analysis"
	storeSentiment = "sentiment"
	storeScores    = "scores"
)

// Recorder writes results to the journal stores. Failures are logged and
// counted, never returned: the caller already has its result.
type Recorder struct {
	analyses   storage.AnalysisStore
	sentiments storage.SentimentStore
	scores     storage.ScorePointStore // optional
	timeout    time.Duration
	logger     zerolog.Logger
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithScoreStore enables score time-series writes.
func WithScoreStore(s storage.ScorePointStore) Option {
	return func(r *Recorder) {
		r.scores = s
	}
}

// WithWriteTimeout sets the per-write timeout.
func WithWriteTimeout(d time.Duration) Option {
	return func(r *Recorder) {
		r.timeout = d
	}
}

// WithLogger sets the recorder logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Recorder) {
		r.logger = l
	}
}

// NewRecorder creates a recorder over the two record stores.
func NewRecorder(analyses storage.AnalysisStore, sentiments storage.SentimentStore, opts ...Option) *Recorder {
	r := &Recorder{
		analyses:   analyses,
		sentiments: sentiments,
		timeout:    DefaultWriteTimeout,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var (
	_ risk.Recorder      = (*Recorder)(nil)
	_ sentiment.Recorder = (*Recorder)(nil)
)

// RecordAnalysis journals res and its risk score point.
func (r *Recorder) RecordAnalysis(ctx context.Context, res *domain.TokenAnalysisResult) {
	rec := AnalysisRecordFrom(res)
	if rec == nil {
		return
	}

	ctx, cancel := r.writeContext(ctx)
	defer cancel()

	r.done(storeAnalysis, rec.Mint, r.analyses.Insert(ctx, rec))

	if r.scores != nil {
		point := &domain.ScorePoint{
			Mint:        rec.Mint,
			Kind:        domain.ScoreKindRisk,
			TimestampMs: rec.CheckedAt,
			Value:       float64(rec.RiskScore),
			Label:       string(rec.RiskLevel),
		}
		r.done(storeScores, rec.Mint, r.scores.InsertBulk(ctx, []*domain.ScorePoint{point}))
	}
}

// RecordSentiment journals report. Only ready reports produce a score point.
func (r *Recorder) RecordSentiment(ctx context.Context, report *domain.SentimentReport) {
	rec := SentimentRecordFrom(report)
	if rec == nil {
		return
	}

	ctx, cancel := r.writeContext(ctx)
	defer cancel()

	r.done(storeSentiment, rec.Mint, r.sentiments.Insert(ctx, rec))

	if r.scores != nil && report.Status == domain.ReportReady {
		point := &domain.ScorePoint{
			Mint:        rec.Mint,
			Kind:        domain.ScoreKindSentiment,
			TimestampMs: rec.GeneratedAt,
			Value:       float64(rec.OverallScore),
			Label:       string(rec.OverallLabel),
		}
		r.done(storeScores, rec.Mint, r.scores.InsertBulk(ctx, []*domain.ScorePoint{point}))
	}
}

// writeContext detaches from the request so a client disconnect does not
// abort the write.
func (r *Recorder) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
}

// done logs and counts one write. A duplicate key means the record is
// already journaled and counts as success.
func (r *Recorder) done(store, mint string, err error) {
	if errors.Is(err, storage.ErrDuplicateKey) {
		err = nil
	}
	observability.RecordJournalWrite(store, err)
	if err != nil {
		r.logger.Warn().Err(err).Str("store", store).Str("mint", mint).Msg("journal write failed")
	}
}

// AnalysisRecordFrom converts a result to its journal record. Returns nil
// for results without a mint.
func AnalysisRecordFrom(res *domain.TokenAnalysisResult) *domain.AnalysisRecord {
	mint := res.Mint()
	if mint == "" {
		return nil
	}

	checkedAt := res.LastChecked.UnixMilli()
	rec := &domain.AnalysisRecord{
		ID:            idhash.ComputeAnalysisID(mint, checkedAt),
		Mint:          mint,
		Symbol:        res.Market.Symbol,
		RiskScore:     res.RiskScore,
		RiskLevel:     res.RiskLevel,
		Signal:        res.Signal,
		Honeypot:      res.Honeypot,
		PriceUSD:      res.Market.PriceUSD,
		LiquidityUSD:  res.Market.LiquidityUSD,
		MarketCap:     res.Market.MarketCap,
		Factors:       append([]domain.RiskFactor(nil), res.Factors...),
		SignalReasons: append([]string(nil), res.SignalReasons...),
		CheckedAt:     checkedAt,
		CreatedAt:     time.Now().UnixMilli(),
	}
	if res.Security != nil {
		rec.SecuritySrc = res.Security.Source
	}
	return rec
}

// SentimentRecordFrom converts a report to its journal record, dropping posts.
func SentimentRecordFrom(report *domain.SentimentReport) *domain.SentimentRecord {
	if report == nil || report.Mint == "" {
		return nil
	}

	generatedAt := report.GeneratedAt.UnixMilli()
	return &domain.SentimentRecord{
		ID:           idhash.ComputeSentimentID(report.Mint, generatedAt),
		Mint:         report.Mint,
		Status:       report.Status,
		TotalPosts:   report.TotalPosts,
		HumanPosts:   report.HumanPosts,
		BotFiltered:  report.BotFiltered,
		Duplicates:   report.Duplicates,
		Bullish:      report.Bullish,
		Bearish:      report.Bearish,
		Neutral:      report.Neutral,
		OverallScore: report.OverallScore,
		OverallLabel: report.OverallLabel,
		QualityScore: report.QualityScore,
		GeneratedAt:  generatedAt,
		CreatedAt:    time.Now().UnixMilli(),
	}
}
