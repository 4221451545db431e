package reporting

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-token-sentinel/internal/domain"
	"solana-token-sentinel/internal/storage/memory"
)

var fixedNow = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

func ms(d time.Duration) int64 {
	return fixedNow.Add(-d).UnixMilli()
}

func setupGenerator(t *testing.T) *Generator {
	t.Helper()
	ctx := context.Background()

	analyses := memory.NewAnalysisStore()
	sentiments := memory.NewSentimentStore()

	records := []*domain.AnalysisRecord{
		{ID: "a1", Mint: "mintA", Symbol: "AAA", RiskScore: 20, RiskLevel: domain.RiskLow, Signal: domain.SignalBuy, CheckedAt: ms(3 * time.Hour)},
		{ID: "a2", Mint: "mintA", Symbol: "AAA", RiskScore: 55, RiskLevel: domain.RiskHigh, Signal: domain.SignalSell, CheckedAt: ms(time.Hour)},
		{ID: "b1", Mint: "mintB", Symbol: "BBB", RiskScore: 90, RiskLevel: domain.RiskCritical, Signal: domain.SignalAvoid, Honeypot: true, CheckedAt: ms(2 * time.Hour)},
		{ID: "c1", Mint: "mintC", Symbol: "CCC", RiskScore: 55, RiskLevel: domain.RiskHigh, Signal: domain.SignalHold, CheckedAt: ms(30 * time.Minute),
			SignalReasons: []string{"thin liquidity", "young pair"}},
		{ID: "old", Mint: "mintD", RiskScore: 99, RiskLevel: domain.RiskCritical, Signal: domain.SignalAvoid, CheckedAt: ms(48 * time.Hour)},
	}
	for _, r := range records {
		require.NoError(t, analyses.Insert(ctx, r))
	}

	reports := []*domain.SentimentRecord{
		{ID: "s1", Mint: "mintA", Status: domain.ReportReady, OverallLabel: domain.SentimentBullish, GeneratedAt: ms(time.Hour)},
		{ID: "s2", Mint: "mintB", Status: domain.ReportReady, OverallLabel: domain.SentimentBearish, GeneratedAt: ms(time.Hour)},
		{ID: "s3", Mint: "mintC", Status: domain.ReportError, OverallLabel: domain.SentimentNeutral, GeneratedAt: ms(time.Hour)},
	}
	for _, r := range reports {
		require.NoError(t, sentiments.Insert(ctx, r))
	}

	return NewGenerator(analyses, sentiments,
		WithClock(func() time.Time { return fixedNow }),
		WithRunID(func() string { return "run-1" }),
		WithTopN(2),
	)
}

func TestGenerator_GenerateLast(t *testing.T) {
	g := setupGenerator(t)

	r, err := g.GenerateLast(context.Background(), 24*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, "run-1", r.RunID)
	assert.Equal(t, fixedNow, r.GeneratedAt)
	assert.Equal(t, 4, r.Summary.TotalAnalyses)
	assert.Equal(t, 3, r.Summary.UniqueMints)
	assert.Equal(t, 1, r.Summary.HoneypotCount)
	assert.InDelta(t, 55.0, r.Summary.AvgRiskScore, 1e-9)
	assert.Equal(t, 3, r.Summary.SentimentReports)
	assert.Equal(t, 2, r.Summary.ReadySentiment)

	assert.Equal(t, []CountRow{
		{Label: "LOW", Count: 1}, {Label: "MEDIUM", Count: 0}, {Label: "HIGH", Count: 2}, {Label: "CRITICAL", Count: 1},
	}, r.RiskLevels)
	assert.Equal(t, []CountRow{
		{Label: "bullish", Count: 1}, {Label: "bearish", Count: 1}, {Label: "neutral", Count: 0},
	}, r.SentimentLabels)
	require.Len(t, r.Signals, 6)
	assert.Equal(t, "AVOID", r.Signals[5].Label)
	assert.Equal(t, 1, r.Signals[5].Count)
}

func TestGenerator_RiskiestUsesLatestPerMint(t *testing.T) {
	g := setupGenerator(t)

	r, err := g.GenerateLast(context.Background(), 24*time.Hour)
	require.NoError(t, err)

	require.Len(t, r.Riskiest, 2)
	assert.Equal(t, "mintB", r.Riskiest[0].Mint)
	// mintA (latest 55) and mintC (55) tie; mint ASC breaks it.
	assert.Equal(t, "mintA", r.Riskiest[1].Mint)
	assert.Equal(t, 55, r.Riskiest[1].RiskScore)
}

func TestGenerator_InvalidWindow(t *testing.T) {
	g := setupGenerator(t)
	_, err := g.Generate(context.Background(), fixedNow, fixedNow.Add(-time.Hour))
	assert.Error(t, err)
}

func TestGenerator_EmptyWindow(t *testing.T) {
	g := NewGenerator(memory.NewAnalysisStore(), memory.NewSentimentStore())

	r, err := g.GenerateLast(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, r.RunID)
	assert.Zero(t, r.Summary.AvgRiskScore)
	assert.Empty(t, r.Riskiest)

	md := RenderMarkdown(r)
	assert.Contains(t, md, "No analyses in window.")
}

func TestRenderMarkdown(t *testing.T) {
	g := setupGenerator(t)
	r, err := g.GenerateLast(context.Background(), 24*time.Hour)
	require.NoError(t, err)

	md := RenderMarkdown(r)
	assert.True(t, strings.HasPrefix(md, "# Token Sentinel Report"))
	assert.Contains(t, md, "Run: run-1")
	assert.Contains(t, md, "| Avg Risk Score | 55.00 |")
	assert.Contains(t, md, "| CRITICAL | 1 |")
	assert.Contains(t, md, "| mintB | BBB | 90 | CRITICAL | AVOID | YES |")
}

func TestWriteCSV(t *testing.T) {
	g := setupGenerator(t)
	r, err := g.GenerateLast(context.Background(), 24*time.Hour)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, r))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "a1", rows[1][0])
	assert.Equal(t, "c1", rows[4][0])
	assert.Equal(t, "thin liquidity; young pair", rows[4][11])
}

func TestSave(t *testing.T) {
	g := setupGenerator(t)
	r, err := g.GenerateLast(context.Background(), 24*time.Hour)
	require.NoError(t, err)

	dir, err := Save(t.TempDir(), r)
	require.NoError(t, err)
	assert.Equal(t, "20260501T000000Z", filepath.Base(dir))

	md, err := os.ReadFile(filepath.Join(dir, "report.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "Riskiest Tokens")

	_, err = os.Stat(filepath.Join(dir, "analyses.csv"))
	assert.NoError(t, err)
}
