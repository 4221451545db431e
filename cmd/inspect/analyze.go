package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"solana-token-sentinel/internal/cache"
	"solana-token-sentinel/internal/domain"
	"solana-token-sentinel/internal/marketdata"
	"solana-token-sentinel/internal/risk"
	"solana-token-sentinel/internal/solana"
	"solana-token-sentinel/internal/upstream"
)

func newAnalyzeCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <mint>",
		Short: "Run the risk and signal analysis for a mint",
		Args:  mintArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			logger := opts.logger()

			transport := []upstream.Option{
				upstream.WithTimeout(cfg.Upstream.Timeout),
				upstream.WithMaxRetries(cfg.Upstream.MaxRetries),
				upstream.WithLogger(logger),
			}
			rpc := solana.NewHTTPClient(cfg.Solana.RPCURL)
			security := marketdata.NewFallbackSecurity(logger,
				marketdata.NewRugCheck(cfg.Upstream.RugCheckURL, transport...),
				marketdata.NewOnChain(rpc, marketdata.WithOnChainLogger(logger)),
			)
			engine := risk.NewEngine(cache.New[*domain.TokenAnalysisResult]("analysis", cache.AnalysisTTL))
			svc := risk.NewService(engine, marketdata.NewDexScreener(cfg.Upstream.DexScreenerURL, transport...), security,
				risk.WithLogger(logger),
			)

			res, err := svc.Analyze(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res == nil {
				if opts.jsonOut {
					return writeJSON(out, map[string]string{"mint": args[0], "error": "no trading pairs"})
				}
				fmt.Fprintf(out, "%s has no trading pairs\n", args[0])
				return nil
			}
			if opts.jsonOut {
				return writeJSON(out, res)
			}
			printAnalysis(out, res)
			return nil
		},
	}
}
