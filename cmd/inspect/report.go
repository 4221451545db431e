package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"solana-token-sentinel/internal/reporting"
	pgstore "solana-token-sentinel/internal/storage/postgres"
)

func newReportCmd(opts *globalOptions) *cobra.Command {
	var (
		window time.Duration
		topN   int
		save   string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the journal report for a recent window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dsn := opts.cfg.Storage.PostgresDSN
			if dsn == "" {
				return errors.New("--postgres-dsn or POSTGRES_DSN is required")
			}
			ctx := cmd.Context()

			pool, err := pgstore.NewPool(ctx, dsn)
			if err != nil {
				return fmt.Errorf("connect to postgres: %w", err)
			}
			defer pool.Close()

			gen := reporting.NewGenerator(pgstore.NewAnalysisStore(pool), pgstore.NewSentimentStore(pool),
				reporting.WithTopN(topN),
			)
			r, err := gen.GenerateLast(ctx, window)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if save != "" {
				dir, err := reporting.Save(save, r)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "report saved to %s\n", dir)
				return nil
			}
			if opts.jsonOut {
				return writeJSON(out, r)
			}
			fmt.Fprint(out, reporting.RenderMarkdown(r))
			return nil
		},
	}
	f := cmd.Flags()
	f.DurationVar(&window, "window", opts.cfg.Report.Window, "Report window ending now")
	f.IntVar(&topN, "top", opts.cfg.Report.TopN, "Number of riskiest mints to list")
	f.StringVar(&save, "save", "", "Write report.md and analyses.csv under this directory instead of printing")
	f.StringVar(&opts.cfg.Storage.PostgresDSN, "postgres-dsn", opts.cfg.Storage.PostgresDSN, "PostgreSQL connection string")
	return cmd
}
