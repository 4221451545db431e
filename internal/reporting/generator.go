package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"solana-token-sentinel/internal/domain"
	"solana-token-sentinel/internal/observability"
	"solana-token-sentinel/internal/storage"
)

// DefaultTopN is the number of riskiest mints listed.
const DefaultTopN = 10

var (
	riskLevelOrder = []domain.RiskLevel{domain.RiskLow, domain.RiskMedium, domain.RiskHigh, domain.RiskCritical}
	signalOrder    = []domain.Signal{
		domain.SignalStrongBuy, domain.SignalBuy, domain.SignalHold,
		domain.SignalSell, domain.SignalStrongSell, domain.SignalAvoid,
	}
	labelOrder = []domain.SentimentLabel{domain.SentimentBullish, domain.SentimentBearish, domain.SentimentNeutral}
)

// Generator produces reports from stored data.
type Generator struct {
	analyses   storage.AnalysisStore
	sentiments storage.SentimentStore
	topN       int
	now        func() time.Time // Injectable clock for deterministic output
	newRunID   func() string
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock sets a custom clock function for deterministic output.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// WithTopN sets how many riskiest mints are listed.
func WithTopN(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.topN = n
		}
	}
}

// WithRunID sets the run ID source.
func WithRunID(f func() string) Option {
	return func(g *Generator) {
		g.newRunID = f
	}
}

// NewGenerator creates a new report generator.
func NewGenerator(analyses storage.AnalysisStore, sentiments storage.SentimentStore, opts ...Option) *Generator {
	g := &Generator{
		analyses:   analyses,
		sentiments: sentiments,
		topN:       DefaultTopN,
		now:        func() time.Time { return time.Now().UTC() },
		newRunID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate builds the report for [start, end] (inclusive).
func (g *Generator) Generate(ctx context.Context, start, end time.Time) (*Report, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("invalid window: end %s before start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	analyses, err := g.analyses.GetByTimeRange(ctx, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("load analyses: %w", err)
	}
	sentiments, err := g.sentiments.GetByTimeRange(ctx, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("load sentiment reports: %w", err)
	}

	r := &Report{
		RunID:           g.newRunID(),
		GeneratedAt:     g.now(),
		WindowStart:     start.UTC(),
		WindowEnd:       end.UTC(),
		Summary:         summarize(analyses, sentiments),
		RiskLevels:      riskLevelCounts(analyses),
		Signals:         signalCounts(analyses),
		SentimentLabels: labelCounts(sentiments),
		Riskiest:        riskiest(analyses, g.topN),
		Analyses:        analyses,
	}
	observability.RecordReportGenerated(r.GeneratedAt)
	return r, nil
}

// GenerateLast builds the report for the window ending now.
func (g *Generator) GenerateLast(ctx context.Context, window time.Duration) (*Report, error) {
	end := g.now()
	return g.Generate(ctx, end.Add(-window), end)
}

func summarize(analyses []*domain.AnalysisRecord, sentiments []*domain.SentimentRecord) Summary {
	s := Summary{
		TotalAnalyses:    len(analyses),
		SentimentReports: len(sentiments),
	}

	mints := make(map[string]struct{})
	total := 0
	for _, a := range analyses {
		mints[a.Mint] = struct{}{}
		total += a.RiskScore
		if a.Honeypot {
			s.HoneypotCount++
		}
	}
	s.UniqueMints = len(mints)
	if len(analyses) > 0 {
		s.AvgRiskScore = float64(total) / float64(len(analyses))
	}

	for _, r := range sentiments {
		if r.Status == domain.ReportReady {
			s.ReadySentiment++
		}
	}
	return s
}

func riskLevelCounts(analyses []*domain.AnalysisRecord) []CountRow {
	counts := make(map[domain.RiskLevel]int)
	for _, a := range analyses {
		counts[a.RiskLevel]++
	}
	rows := make([]CountRow, len(riskLevelOrder))
	for i, level := range riskLevelOrder {
		rows[i] = CountRow{Label: string(level), Count: counts[level]}
	}
	return rows
}

func signalCounts(analyses []*domain.AnalysisRecord) []CountRow {
	counts := make(map[domain.Signal]int)
	for _, a := range analyses {
		counts[a.Signal]++
	}
	rows := make([]CountRow, len(signalOrder))
	for i, sig := range signalOrder {
		rows[i] = CountRow{Label: string(sig), Count: counts[sig]}
	}
	return rows
}

// labelCounts only counts ready reports; error and no-data reports carry no label.
func labelCounts(sentiments []*domain.SentimentRecord) []CountRow {
	counts := make(map[domain.SentimentLabel]int)
	for _, r := range sentiments {
		if r.Status == domain.ReportReady {
			counts[r.OverallLabel]++
		}
	}
	rows := make([]CountRow, len(labelOrder))
	for i, label := range labelOrder {
		rows[i] = CountRow{Label: string(label), Count: counts[label]}
	}
	return rows
}

// riskiest keeps the latest analysis per mint and returns the top n by
// score DESC, then mint ASC.
func riskiest(analyses []*domain.AnalysisRecord, n int) []RiskiestRow {
	latest := make(map[string]*domain.AnalysisRecord)
	for _, a := range analyses {
		if cur, ok := latest[a.Mint]; !ok || a.CheckedAt > cur.CheckedAt {
			latest[a.Mint] = a
		}
	}

	rows := make([]RiskiestRow, 0, len(latest))
	for _, a := range latest {
		rows = append(rows, RiskiestRow{
			Mint:      a.Mint,
			Symbol:    a.Symbol,
			RiskScore: a.RiskScore,
			RiskLevel: a.RiskLevel,
			Signal:    a.Signal,
			Honeypot:  a.Honeypot,
			CheckedAt: a.CheckedAt,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].RiskScore != rows[j].RiskScore {
			return rows[i].RiskScore > rows[j].RiskScore
		}
		return rows[i].Mint < rows[j].Mint
	})

	if len(rows) > n {
		rows = rows[:n]
	}
	return rows
}
