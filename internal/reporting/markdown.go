package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Token Sentinel Report\n\n")
	sb.WriteString(fmt.Sprintf("Run: %s\n\n", r.RunID))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Window: %s to %s\n\n", r.WindowStart.Format(time.RFC3339), r.WindowEnd.Format(time.RFC3339)))

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Analyses | %d |\n", r.Summary.TotalAnalyses))
	sb.WriteString(fmt.Sprintf("| Unique Mints | %d |\n", r.Summary.UniqueMints))
	sb.WriteString(fmt.Sprintf("| Honeypots | %d |\n", r.Summary.HoneypotCount))
	sb.WriteString(fmt.Sprintf("| Avg Risk Score | %.2f |\n", r.Summary.AvgRiskScore))
	sb.WriteString(fmt.Sprintf("| Sentiment Reports | %d |\n", r.Summary.SentimentReports))
	sb.WriteString(fmt.Sprintf("| Ready Sentiment Reports | %d |\n", r.Summary.ReadySentiment))
	sb.WriteString("\n")

	writeCounts(&sb, "Risk Levels", "Level", r.RiskLevels)
	writeCounts(&sb, "Signals", "Signal", r.Signals)
	writeCounts(&sb, "Sentiment", "Label", r.SentimentLabels)

	sb.WriteString("## Riskiest Tokens\n\n")
	if len(r.Riskiest) > 0 {
		sb.WriteString("| Mint | Symbol | Score | Level | Signal | Honeypot |\n")
		sb.WriteString("|------|--------|-------|-------|--------|----------|\n")
		for _, row := range r.Riskiest {
			honeypot := "no"
			if row.Honeypot {
				honeypot = "YES"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %s | %s | %s |\n",
				row.Mint, row.Symbol, row.RiskScore, row.RiskLevel, row.Signal, honeypot))
		}
	} else {
		sb.WriteString("No analyses in window.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

func writeCounts(sb *strings.Builder, title, column string, rows []CountRow) {
	sb.WriteString(fmt.Sprintf("## %s\n\n", title))
	sb.WriteString(fmt.Sprintf("| %s | Count |\n", column))
	sb.WriteString("|------|-------|\n")
	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", row.Label, row.Count))
	}
	sb.WriteString("\n")
}
