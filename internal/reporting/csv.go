package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var csvHeader = []string{
	"id", "mint", "symbol", "risk_score", "risk_level", "signal", "honeypot",
	"price_usd", "liquidity_usd", "market_cap", "security_source", "signal_reasons", "checked_at",
}

// WriteCSV writes one row per analysis in the report window.
func WriteCSV(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, a := range r.Analyses {
		row := []string{
			a.ID,
			a.Mint,
			a.Symbol,
			strconv.Itoa(a.RiskScore),
			string(a.RiskLevel),
			string(a.Signal),
			strconv.FormatBool(a.Honeypot),
			strconv.FormatFloat(a.PriceUSD, 'f', -1, 64),
			strconv.FormatFloat(a.LiquidityUSD, 'f', 2, 64),
			strconv.FormatFloat(a.MarketCap, 'f', 2, 64),
			a.SecuritySrc,
			strings.Join(a.SignalReasons, "; "),
			time.UnixMilli(a.CheckedAt).UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Save writes report.md and analyses.csv into dir/<generated-at>/ and
// returns that directory.
func Save(dir string, r *Report) (string, error) {
	out := filepath.Join(dir, r.GeneratedAt.UTC().Format("20060102T150405Z"))
	if err := os.MkdirAll(out, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	if err := os.WriteFile(filepath.Join(out, "report.md"), []byte(RenderMarkdown(r)), 0o644); err != nil {
		return "", fmt.Errorf("write markdown: %w", err)
	}

	f, err := os.Create(filepath.Join(out, "analyses.csv"))
	if err != nil {
		return "", fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, r); err != nil {
		return "", err
	}
	return out, f.Close()
}
