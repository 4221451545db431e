package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"solana-token-sentinel/internal/domain"
)

var (
	bold   = color.New(color.Bold).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	alarm  = color.New(color.FgHiRed, color.Bold).SprintFunc()
)

func levelColor(l domain.RiskLevel) func(a ...interface{}) string {
	switch l {
	case domain.RiskLow:
		return green
	case domain.RiskMedium:
		return yellow
	case domain.RiskHigh:
		return red
	default:
		return alarm
	}
}

func signalColor(s domain.Signal) func(a ...interface{}) string {
	switch s {
	case domain.SignalStrongBuy, domain.SignalBuy:
		return green
	case domain.SignalHold:
		return yellow
	case domain.SignalAvoid:
		return alarm
	default:
		return red
	}
}

func statusColor(s domain.FactorStatus) func(a ...interface{}) string {
	switch s {
	case domain.FactorPass:
		return green
	case domain.FactorWarn:
		return yellow
	default:
		return red
	}
}

func labelColor(l domain.SentimentLabel) func(a ...interface{}) string {
	switch l {
	case domain.SentimentBullish:
		return green
	case domain.SentimentBearish:
		return red
	default:
		return yellow
	}
}

func printAnalysis(w io.Writer, res *domain.TokenAnalysisResult) {
	m := res.Market
	title := m.Symbol
	if m.Name != "" {
		title = fmt.Sprintf("%s (%s)", m.Symbol, m.Name)
	}
	fmt.Fprintf(w, "%s  %s\n\n", bold(title), faint(m.Mint))

	fmt.Fprintf(w, "  Price       $%s\n", formatPrice(m.PriceUSD))
	fmt.Fprintf(w, "  Liquidity   $%s\n", formatUSD(m.LiquidityUSD))
	fmt.Fprintf(w, "  Market cap  $%s\n", formatUSD(m.MarketCap))
	fmt.Fprintf(w, "  Volume 24h  $%s\n", formatUSD(m.Volume24h))
	fmt.Fprintf(w, "  Change      5m %s  1h %s  24h %s\n", formatPct(m.PriceChange.M5), formatPct(m.PriceChange.H1), formatPct(m.PriceChange.H24))
	if age, ok := m.Age(res.LastChecked); ok {
		fmt.Fprintf(w, "  Pair age    %s\n", age.Truncate(time.Minute))
	}
	fmt.Fprintln(w)

	lc := levelColor(res.RiskLevel)
	fmt.Fprintf(w, "  Risk        %s %s\n", lc(fmt.Sprintf("%d/100", res.RiskScore)), lc(string(res.RiskLevel)))
	fmt.Fprintf(w, "  Signal      %s\n", signalColor(res.Signal)(string(res.Signal)))
	if res.Honeypot {
		fmt.Fprintf(w, "  %s\n", alarm("HONEYPOT"))
	}
	if res.Security != nil {
		src := res.Security.Source
		if src == "" {
			src = "unavailable"
		}
		fmt.Fprintf(w, "  Security    %s\n", faint(src))
	}

	fmt.Fprintf(w, "\n%s\n", bold("Factors"))
	for _, f := range res.Factors {
		fmt.Fprintf(w, "  %-6s %-22s %3d  %s\n", statusColor(f.Status)(strings.ToUpper(string(f.Status))), f.Name, f.Weight, f.Detail)
	}

	if len(res.SignalReasons) > 0 {
		fmt.Fprintf(w, "\n%s\n", bold("Signal reasons"))
		for _, r := range res.SignalReasons {
			fmt.Fprintf(w, "  - %s\n", r)
		}
	}
}

func printSentiment(w io.Writer, r *domain.SentimentReport, topPosts int) {
	fmt.Fprintf(w, "%s  %s\n\n", bold("Sentiment"), faint(r.Mint))

	switch r.Status {
	case domain.ReportError:
		fmt.Fprintf(w, "  %s %s\n", red("error:"), r.Error)
		return
	case domain.ReportNoData:
		fmt.Fprintln(w, "  No posts found.")
		return
	}

	lc := labelColor(r.OverallLabel)
	fmt.Fprintf(w, "  Overall     %s %s\n", lc(fmt.Sprintf("%+d", r.OverallScore)), lc(string(r.OverallLabel)))
	fmt.Fprintf(w, "  Quality     %+d\n", r.QualityScore)
	fmt.Fprintf(w, "  Posts       %d total, %d human, %d bots filtered, %d duplicates\n", r.TotalPosts, r.HumanPosts, r.BotFiltered, r.Duplicates)
	fmt.Fprintf(w, "  Split       %s / %s / %s\n",
		green(fmt.Sprintf("%d bullish", r.Bullish)),
		red(fmt.Sprintf("%d bearish", r.Bearish)),
		yellow(fmt.Sprintf("%d neutral", r.Neutral)))
	fmt.Fprintf(w, "  Reach       %.0f avg followers, %d engagements\n", r.AvgFollowers, r.TotalEngagement)

	posts := topByEngagement(r.Posts, topPosts)
	if len(posts) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", bold("Top posts"))
	for _, p := range posts {
		fmt.Fprintf(w, "  %s @%s %s\n", labelColor(p.Sentiment)(fmt.Sprintf("%-7s", p.Sentiment)), p.AuthorHandle, faint(fmt.Sprintf("(%d)", p.Engagement())))
		fmt.Fprintf(w, "    %s\n", truncate(strings.Join(strings.Fields(p.Text), " "), 120))
	}
}

// topByEngagement returns up to n non-bot, non-duplicate posts, most engaged first.
func topByEngagement(posts []domain.TweetSentiment, n int) []domain.TweetSentiment {
	var out []domain.TweetSentiment
	for _, p := range posts {
		if p.IsDuplicate || p.BotScore >= 0.6 {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Engagement() > out[j].Engagement() })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func formatUSD(v float64) string {
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.1fK", v/1e3)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

func formatPrice(v float64) string {
	if v >= 1 {
		return fmt.Sprintf("%.4f", v)
	}
	return fmt.Sprintf("%.8g", v)
}

func formatPct(v float64) string {
	s := fmt.Sprintf("%+.1f%%", v)
	if v < 0 {
		return red(s)
	}
	return green(s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
