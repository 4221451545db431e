// Package sentiment annotates social posts with keyword sentiment, bot
// likelihood and near-duplicate flags, and aggregates them into a report.
package sentiment

import (
	"strings"

	"solana-token-sentinel/internal/domain"
)

// Terms are matched as case-insensitive substrings, each at most once per text.
// No term is a substring of another term in either list.
var bullishTerms = []string{
	"moon", "bullish", "pump", "lfg", "gem", "100x", "1000x", "send it",
	"wagmi", "buy the dip", "hodl", "breakout", "rocket", "diamond hands",
	"undervalued", "accumulate", "bull run", "parabolic", "green candle",
	"aping", "ape in", "alpha", "legit", "chad", "gains", "printing",
	"ripping", "bottom is in", "loading up", "buying", "easy money",
	"🚀", "🔥", "💎", "📈", "🌙", "🟢", "💰", "🤑", "🐂",
}

var bearishTerms = []string{
	"rug", "scam", "dump", "bearish", "sell", "rekt", "honeypot", "ponzi",
	"dead", "crash", "avoid", "fud", "jeet", "paper hands", "bagholder",
	"going to zero", "down bad", "red candle", "bleeding", "fake",
	"stay away", "drained", "overvalued", "capitulation", "bear market",
	"insider", "cabal", "bundled", "ngmi", "top is in", "exit liquidity",
	"📉", "💀", "🚨", "🤡", "⚠",
}

// matchesPerUnit is the net keyword count that saturates the score.
const matchesPerUnit = 3

// labelCutoff separates a labelled post from a neutral one.
const labelCutoff = 0.1

// ClassifyText scores text by keyword matches. The score is the net match
// count divided by three, clamped to [-1, 1]. Keywords are prefixed with
// "+" or "-" by polarity.
func ClassifyText(text string) (domain.SentimentLabel, float64, []string) {
	lower := strings.ToLower(text)
	net := 0
	keywords := []string{}

	for _, term := range bullishTerms {
		if strings.Contains(lower, term) {
			net++
			keywords = append(keywords, "+"+term)
		}
	}
	for _, term := range bearishTerms {
		if strings.Contains(lower, term) {
			net--
			keywords = append(keywords, "-"+term)
		}
	}

	score := clampFloat(float64(net)/matchesPerUnit, -1, 1)
	return labelFor(score), score, keywords
}

func labelFor(score float64) domain.SentimentLabel {
	switch {
	case score > labelCutoff:
		return domain.SentimentBullish
	case score < -labelCutoff:
		return domain.SentimentBearish
	default:
		return domain.SentimentNeutral
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
