package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-token-sentinel/internal/config"
	"solana-token-sentinel/internal/domain"
	"solana-token-sentinel/internal/storage/memory"
)

func TestReportJob_RunSavesReport(t *testing.T) {
	analyses := memory.NewAnalysisStore()
	require.NoError(t, analyses.Insert(context.Background(), &domain.AnalysisRecord{
		ID:        "a1",
		Mint:      "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263",
		RiskScore: 40,
		RiskLevel: domain.RiskMedium,
		Signal:    domain.SignalHold,
		CheckedAt: time.Now().UnixMilli(),
	}))

	dir := t.TempDir()
	job := newReportJob(analyses, memory.NewSentimentStore(), config.ReportConfig{
		Schedule:  "@hourly",
		OutputDir: dir,
		Window:    time.Hour,
		TopN:      5,
	}, zerolog.Nop())

	job.Run(context.Background())

	status := job.Status()
	assert.Equal(t, 1, status.Runs)
	assert.False(t, status.Running)
	assert.Empty(t, status.LastErr)
	require.NotEmpty(t, status.LastDir)

	md, err := os.ReadFile(filepath.Join(status.LastDir, "report.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Token Sentinel Report")
	assert.FileExists(t, filepath.Join(status.LastDir, "analyses.csv"))
}

func TestReportJob_RecordsFailure(t *testing.T) {
	// A file where the output directory should be makes Save fail.
	blocker := filepath.Join(t.TempDir(), "output")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	job := newReportJob(memory.NewAnalysisStore(), memory.NewSentimentStore(), config.ReportConfig{
		OutputDir: blocker,
		Window:    time.Hour,
	}, zerolog.Nop())

	job.Run(context.Background())

	status := job.Status()
	assert.Equal(t, 1, status.Runs)
	assert.NotEmpty(t, status.LastErr)
	assert.Empty(t, status.LastDir)
}
