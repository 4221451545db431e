// Package reporting summarises the journal over a time window.
package reporting

import (
	"time"

	"solana-token-sentinel/internal/domain"
)

// Report is the journal summary for one window.
type Report struct {
	RunID       string
	GeneratedAt time.Time
	WindowStart time.Time
	WindowEnd   time.Time

	Summary Summary

	// Count rows in a fixed order: risk levels LOW..CRITICAL, signals
	// STRONG_BUY..AVOID, sentiment labels bullish, bearish, neutral.
	RiskLevels      []CountRow
	Signals         []CountRow
	SentimentLabels []CountRow

	// Riskiest holds the latest analysis of the highest-scoring mints.
	Riskiest []RiskiestRow

	// Analyses are the window's records ordered by checked_at ASC, used for CSV export.
	Analyses []*domain.AnalysisRecord
}

// Summary contains window totals.
type Summary struct {
	TotalAnalyses    int
	UniqueMints      int
	HoneypotCount    int
	AvgRiskScore     float64 // 0 when no analyses
	SentimentReports int
	ReadySentiment   int // reports with status ready
}

// CountRow is one bucket of a distribution.
type CountRow struct {
	Label string
	Count int
}

// RiskiestRow is the latest analysis of one mint.
type RiskiestRow struct {
	Mint      string
	Symbol    string
	RiskScore int
	RiskLevel domain.RiskLevel
	Signal    domain.Signal
	Honeypot  bool
	CheckedAt int64 // Unix ms
}
