// Command server runs the token sentinel: the HTTP API, the launch watcher
// and the scheduled report job.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"solana-token-sentinel/internal/cache"
	"solana-token-sentinel/internal/config"
	"solana-token-sentinel/internal/domain"
	"solana-token-sentinel/internal/journal"
	"solana-token-sentinel/internal/marketdata"
	"solana-token-sentinel/internal/observability"
	"solana-token-sentinel/internal/risk"
	"solana-token-sentinel/internal/sentiment"
	"solana-token-sentinel/internal/server"
	"solana-token-sentinel/internal/social"
	"solana-token-sentinel/internal/solana"
	"solana-token-sentinel/internal/upstream"
	"solana-token-sentinel/internal/watch"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cmd := &cobra.Command{
		Use:           "server",
		Short:         "Serve token risk analyses and social sentiment for Solana mints",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := observability.NewLogger(cfg.Log.Level, cfg.Log.Pretty, nil)
			if err := run(cmd.Context(), cfg, logger); err != nil {
				logger.Error().Err(err).Msg("server stopped")
				return err
			}
			return nil
		},
	}

	// Flags default from the environment and override it.
	f := cmd.Flags()
	f.StringVar(&cfg.Server.Addr, "addr", cfg.Server.Addr, "HTTP listen address")
	f.BoolVar(&cfg.Storage.UseMemory, "use-memory", cfg.Storage.UseMemory, "Use in-memory storage instead of PostgreSQL and ClickHouse")
	f.StringVar(&cfg.Storage.PostgresDSN, "postgres-dsn", cfg.Storage.PostgresDSN, "PostgreSQL connection string")
	f.StringVar(&cfg.Storage.ClickhouseDSN, "clickhouse-dsn", cfg.Storage.ClickhouseDSN, "ClickHouse connection string")
	f.StringVar(&cfg.Solana.RPCURL, "rpc-url", cfg.Solana.RPCURL, "Solana JSON-RPC endpoint")
	f.StringVar(&cfg.Solana.WSURL, "ws-url", cfg.Solana.WSURL, "Solana WebSocket endpoint")
	f.BoolVar(&cfg.Watch.Enabled, "watch", cfg.Watch.Enabled, "Watch launch programs and analyse new mints")
	f.StringSliceVar(&cfg.Watch.Programs, "dex", cfg.Watch.Programs, "Launch venues to watch (pumpfun, raydium)")
	f.StringVar(&cfg.Report.Schedule, "report-schedule", cfg.Report.Schedule, "Cron expression for the report job, empty to disable")
	f.StringVar(&cfg.Report.OutputDir, "output-dir", cfg.Report.OutputDir, "Report output directory")
	f.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "Log level")
	f.BoolVar(&cfg.Log.Pretty, "log-pretty", cfg.Log.Pretty, "Human readable console logs")
	f.StringVar(&cfg.TunablesFile, "tunables", cfg.TunablesFile, "YAML file with scoring tunables")

	return cmd
}

func run(parent context.Context, cfg *config.Config, logger zerolog.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	tunables, err := config.LoadTunables(cfg.TunablesFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg.Storage, observability.Component(logger, "storage"))
	if err != nil {
		return err
	}
	defer st.Close()

	recorder := journal.NewRecorder(st.analyses, st.sentiments,
		journal.WithScoreStore(st.scores),
		journal.WithWriteTimeout(cfg.Storage.WriteTimeout),
		journal.WithLogger(observability.Component(logger, "journal")),
	)

	rpc := solana.NewHTTPClient(cfg.Solana.RPCURL,
		solana.WithRateLimit(cfg.Solana.RPS, int(cfg.Solana.RPS)+1),
	)

	// Shared cache loads outlive a cancelled caller, bounded by a full retry cycle.
	loadTimeout := cache.WithLoadTimeout(cfg.Upstream.Timeout * time.Duration(cfg.Upstream.MaxRetries+1))

	// Risk
	analysisCache := cache.New[*domain.TokenAnalysisResult]("analysis", cfg.Cache.AnalysisTTL, cache.WithMaxEntries(cfg.Cache.MaxEntries), loadTimeout)
	marketLog := observability.Component(logger, "marketdata")
	market := marketdata.NewDexScreener(cfg.Upstream.DexScreenerURL, upstreamOptions(cfg.Upstream, cfg.Upstream.RPS, marketLog)...)
	security := marketdata.NewFallbackSecurity(marketLog,
		marketdata.NewRugCheck(cfg.Upstream.RugCheckURL, upstreamOptions(cfg.Upstream, cfg.Upstream.RPS, marketLog)...),
		marketdata.NewOnChain(rpc, marketdata.WithOnChainLogger(marketLog)),
	)
	riskSvc := risk.NewService(risk.NewEngine(analysisCache), market, security,
		risk.WithRecorder(recorder),
		risk.WithLogger(observability.Component(logger, "risk")),
	)

	// Sentiment
	sentimentCache := cache.New[*domain.SentimentReport]("sentiment", cfg.Cache.SentimentTTL, cache.WithMaxEntries(cfg.Cache.MaxEntries), loadTimeout)
	posts := postSources(cfg, observability.Component(logger, "social"))
	if posts.Len() == 0 {
		logger.Warn().Msg("no social credentials configured, sentiment reports will carry status error")
	}
	sentimentSvc := sentiment.NewService(posts, sentimentCache,
		sentiment.WithWeights(tunables.Sentiment),
		sentiment.WithRecorder(recorder),
		sentiment.WithLogger(observability.Component(logger, "sentiment")),
	)

	srv := server.New(server.Config{
		Addr:           cfg.Server.Addr,
		CORSOrigins:    cfg.Server.CORSOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
	}, riskSvc, sentimentSvc,
		server.WithJournal(st.analyses, st.sentiments),
		server.WithLogger(observability.Component(logger, "http")),
	)
	srv.AddStatus("storage", func() any { return map[string]string{"backend": st.backend} })
	srv.AddStatus("cache", func() any {
		return map[string]int{"analysis": analysisCache.Len(), "sentiment": sentimentCache.Len()}
	})
	srv.AddStatus("social", func() any { return map[string]int{"sources": posts.Len()} })

	// Scheduled jobs
	sched := cron.New()
	job := newReportJob(st.analyses, st.sentiments, cfg.Report, observability.Component(logger, "report"))
	if cfg.Report.Schedule != "" {
		if _, err := sched.AddFunc(cfg.Report.Schedule, func() { job.Run(ctx) }); err != nil {
			return fmt.Errorf("report schedule %q: %w", cfg.Report.Schedule, err)
		}
	}
	if _, err := sched.AddFunc("@every 1m", func() {
		analysisCache.Purge()
		sentimentCache.Purge()
	}); err != nil {
		return fmt.Errorf("cache purge schedule: %w", err)
	}
	srv.AddStatus("report", func() any { return job.Status() })
	sched.Start()
	defer func() { <-sched.Stop().Done() }()

	errCh := make(chan error, 2)

	if cfg.Watch.Enabled {
		w, ws, err := newWatcher(ctx, cfg, rpc, riskSvc, sentimentSvc, st, observability.Component(logger, "watch"))
		if err != nil {
			return err
		}
		defer ws.Close()
		srv.AddStatus("watcher", func() any { return w.Stats() })
		go func() {
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("watcher: %w", err)
			}
		}()
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case runErr = <-errCh:
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}
	logger.Info().Msg("shutdown complete")
	return runErr
}

func upstreamOptions(u config.UpstreamConfig, rps float64, logger zerolog.Logger) []upstream.Option {
	return []upstream.Option{
		upstream.WithTimeout(u.Timeout),
		upstream.WithMaxRetries(u.MaxRetries),
		upstream.WithRateLimit(rps, u.Burst),
		upstream.WithLogger(logger),
	}
}

// postSources chains the providers that have credentials, SocialData first.
func postSources(cfg *config.Config, logger zerolog.Logger) *social.Chain {
	var sources []social.Source
	if cfg.Social.SocialDataKey != "" {
		transport := upstream.New("socialdata", upstreamOptions(cfg.Upstream, cfg.Social.RPS, logger)...)
		sources = append(sources, social.NewSocialData(cfg.Social.SocialDataKey, transport,
			social.WithSocialDataURL(cfg.Social.SocialDataURL),
			social.WithMaxPosts(cfg.Social.MaxPosts),
		))
	}
	if cfg.Social.TwitterBearerToken != "" {
		guard := upstream.New("twitter", upstreamOptions(cfg.Upstream, cfg.Social.RPS, logger)...)
		sources = append(sources, social.NewTwitterV2(cfg.Social.TwitterBearerToken, guard,
			social.WithTwitterMaxPosts(cfg.Social.MaxPosts),
		))
	}
	return social.NewChain(logger, sources...)
}

func newWatcher(ctx context.Context, cfg *config.Config, rpc solana.RPCClient, analyzer watch.Analyzer,
	reporter watch.SentimentReporter, st *stores, logger zerolog.Logger) (*watch.Watcher, solana.WSClient, error) {
	programs, unknown := watch.ProgramsByName(cfg.Watch.Programs)
	if len(unknown) > 0 {
		return nil, nil, fmt.Errorf("unknown launch venues: %v", unknown)
	}
	if len(programs) == 0 {
		return nil, nil, errors.New("no launch venues configured")
	}

	wsCfg := solana.DefaultWSConfig()
	wsCfg.Logger = logger
	ws, err := solana.NewWSClient(ctx, cfg.Solana.WSURL, &wsCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect websocket: %w", err)
	}

	opts := []watch.Option{
		watch.WithProgressStore(st.progress),
		watch.WithLogger(logger),
	}
	if cfg.Watch.Sentiment {
		opts = append(opts, watch.WithSentiment(reporter))
	}
	w := watch.New(watch.Config{
		Programs:     programs,
		Workers:      cfg.Watch.Workers,
		QueueSize:    cfg.Watch.QueueSize,
		AnalyzeDelay: cfg.Watch.AnalyzeDelay,
		TxRetries:    watch.DefaultTxRetries,
		TxRetryDelay: watch.DefaultTxRetryDelay,
	}, ws, rpc, analyzer, opts...)

	names := make([]string, len(programs))
	for i, p := range programs {
		names[i] = p.Name
	}
	logger.Info().Strs("programs", names).Dur("analyze_delay", cfg.Watch.AnalyzeDelay).Msg("launch watcher configured")
	return w, ws, nil
}
