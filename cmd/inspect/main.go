// Command inspect analyses a single mint from the terminal and renders
// journal reports.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"solana-token-sentinel/internal/config"
	"solana-token-sentinel/internal/observability"
	"solana-token-sentinel/internal/solana"
)

type globalOptions struct {
	cfg      *config.Config
	jsonOut  bool
	noColor  bool
	logLevel string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	opts := &globalOptions{cfg: cfg}

	root := &cobra.Command{
		Use:           "inspect",
		Short:         "Inspect Solana tokens: risk analysis, social sentiment and journal reports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if opts.noColor || opts.jsonOut {
				color.NoColor = true
			}
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVar(&opts.jsonOut, "json", false, "Print raw JSON")
	pf.BoolVar(&opts.noColor, "no-color", false, "Disable coloured output")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "Log level")
	pf.StringVar(&cfg.Solana.RPCURL, "rpc-url", cfg.Solana.RPCURL, "Solana JSON-RPC endpoint")
	pf.StringVar(&cfg.TunablesFile, "tunables", cfg.TunablesFile, "YAML file with scoring tunables")

	root.AddCommand(newAnalyzeCmd(opts), newSentimentCmd(opts), newReportCmd(opts))
	return root
}

func (o *globalOptions) logger() zerolog.Logger {
	return observability.NewLogger(o.logLevel, true, os.Stderr)
}

func mintArg(_ *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected one mint address, got %d arguments", len(args))
	}
	if !solana.IsValidAddress(args[0]) {
		return fmt.Errorf("invalid mint address %q", args[0])
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
