package main

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"solana-token-sentinel/internal/config"
	"solana-token-sentinel/internal/reporting"
	"solana-token-sentinel/internal/storage"
)

// reportJob generates and saves the periodic report. Overlapping runs are skipped.
type reportJob struct {
	gen    *reporting.Generator
	cfg    config.ReportConfig
	logger zerolog.Logger

	mu       sync.Mutex
	running  bool
	runs     int
	lastRun  time.Time
	lastPath string
	lastErr  string
}

func newReportJob(analyses storage.AnalysisStore, sentiments storage.SentimentStore, cfg config.ReportConfig, logger zerolog.Logger) *reportJob {
	return &reportJob{
		gen:    reporting.NewGenerator(analyses, sentiments, reporting.WithTopN(cfg.TopN)),
		cfg:    cfg,
		logger: logger,
	}
}

// Run builds the report for the configured window ending now.
func (j *reportJob) Run(ctx context.Context) {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		j.logger.Warn().Msg("previous report still running, skipping")
		return
	}
	j.running = true
	j.mu.Unlock()

	path, err := j.generate(ctx)

	j.mu.Lock()
	defer j.mu.Unlock()
	j.running = false
	j.runs++
	j.lastRun = time.Now().UTC()
	if err != nil {
		j.lastErr = err.Error()
		j.logger.Error().Err(err).Msg("report generation failed")
		return
	}
	j.lastErr = ""
	j.lastPath = path
	j.logger.Info().Str("dir", path).Msg("report saved")
}

func (j *reportJob) generate(ctx context.Context) (string, error) {
	r, err := j.gen.GenerateLast(ctx, j.cfg.Window)
	if err != nil {
		return "", err
	}
	return reporting.Save(j.cfg.OutputDir, r)
}

// reportStatus is the /status section for the job.
type reportStatus struct {
	Schedule string    `json:"schedule"`
	Running  bool      `json:"running"`
	Runs     int       `json:"runs"`
	LastRun  time.Time `json:"last_run,omitempty"`
	LastDir  string    `json:"last_dir,omitempty"`
	LastErr  string    `json:"last_error,omitempty"`
}

// Status returns the job state.
func (j *reportJob) Status() reportStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return reportStatus{
		Schedule: j.cfg.Schedule,
		Running:  j.running,
		Runs:     j.runs,
		LastRun:  j.lastRun,
		LastDir:  j.lastPath,
		LastErr:  j.lastErr,
	}
}
