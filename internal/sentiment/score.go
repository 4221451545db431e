package sentiment

import (
	"math"
	"time"

	"solana-token-sentinel/internal/domain"
)

// FollowerTier multiplies a post's weight when its author has at least MinFollowers.
type FollowerTier struct {
	MinFollowers int     `yaml:"min_followers" json:"minFollowers"`
	Multiplier   float64 `yaml:"multiplier" json:"multiplier"`
}

// Weights holds the tunable constants of the aggregate.
type Weights struct {
	BotThreshold       float64        `yaml:"bot_threshold" json:"botThreshold"`
	DuplicateThreshold float64        `yaml:"duplicate_threshold" json:"duplicateThreshold"`
	DuplicatePenalty   float64        `yaml:"duplicate_penalty" json:"duplicatePenalty"`
	FollowerTiers      []FollowerTier `yaml:"follower_tiers" json:"followerTiers"` // highest first
	VerifiedMultiplier float64        `yaml:"verified_multiplier" json:"verifiedMultiplier"`
	LabelThreshold     int            `yaml:"label_threshold" json:"labelThreshold"`
}

// DefaultWeights returns the standard tuning.
func DefaultWeights() Weights {
	return Weights{
		BotThreshold:       0.6,
		DuplicateThreshold: 0.75,
		DuplicatePenalty:   0.1,
		FollowerTiers: []FollowerTier{
			{MinFollowers: 10_000, Multiplier: 3},
			{MinFollowers: 1_000, Multiplier: 2},
			{MinFollowers: 500, Multiplier: 1.5},
		},
		VerifiedMultiplier: 1.5,
		LabelThreshold:     15,
	}
}

func (w Weights) followerMultiplier(followers int) float64 {
	for _, tier := range w.FollowerTiers {
		if followers >= tier.MinFollowers {
			return tier.Multiplier
		}
	}
	return 1
}

// postWeight is the influence of one post on the quality-weighted score.
func (w Weights) postWeight(p *domain.TweetSentiment) float64 {
	weight := float64(p.Engagement()+1) * w.followerMultiplier(p.Followers)
	if p.Verified {
		weight *= w.VerifiedMultiplier
	}
	weight *= 1 - p.BotScore
	if p.IsDuplicate {
		weight *= w.DuplicatePenalty
	}
	return weight
}

// Annotate classifies each post and scores its author, without duplicate marking.
func Annotate(posts []domain.SocialPost, now time.Time) []domain.TweetSentiment {
	out := make([]domain.TweetSentiment, len(posts))
	for i := range posts {
		label, score, keywords := ClassifyText(posts[i].Text)
		out[i] = domain.TweetSentiment{
			SocialPost: posts[i],
			Sentiment:  label,
			Score:      score,
			Keywords:   keywords,
			BotScore:   BotScore(&posts[i], now),
		}
	}
	return out
}

// Score builds the report for mint. An empty post list yields a no-data report.
// Quality posts are neither bots nor duplicates; only they feed the label
// counts, the overall score and the follower average.
func Score(mint string, posts []domain.SocialPost, w Weights, now time.Time) *domain.SentimentReport {
	if len(posts) == 0 {
		return domain.EmptyReport(mint, domain.ReportNoData, now)
	}

	ranked := markDuplicates(Annotate(posts, now), w.DuplicateThreshold)

	report := &domain.SentimentReport{
		Mint:        mint,
		TotalPosts:  len(ranked),
		Posts:       ranked,
		Status:      domain.ReportReady,
		GeneratedAt: now,
	}

	var (
		followerSum int
		weightedSum float64
		weightTotal float64
	)
	for i := range ranked {
		p := &ranked[i]
		report.TotalEngagement += p.Engagement()

		wt := w.postWeight(p)
		weightedSum += p.Score * wt
		weightTotal += wt

		isBot := p.BotScore >= w.BotThreshold
		if isBot {
			report.BotFiltered++
		}
		if p.IsDuplicate {
			report.Duplicates++
		}
		if isBot || p.IsDuplicate {
			continue
		}

		report.HumanPosts++
		followerSum += p.Followers
		switch p.Sentiment {
		case domain.SentimentBullish:
			report.Bullish++
		case domain.SentimentBearish:
			report.Bearish++
		default:
			report.Neutral++
		}
	}

	if report.HumanPosts > 0 {
		report.OverallScore = int(math.Round(100 * float64(report.Bullish-report.Bearish) / float64(report.HumanPosts)))
		report.AvgFollowers = float64(followerSum) / float64(report.HumanPosts)
	}
	if weightTotal > 0 {
		report.QualityScore = int(math.Round(100 * weightedSum / weightTotal))
	}

	switch {
	case report.OverallScore > w.LabelThreshold:
		report.OverallLabel = domain.SentimentBullish
	case report.OverallScore < -w.LabelThreshold:
		report.OverallLabel = domain.SentimentBearish
	default:
		report.OverallLabel = domain.SentimentNeutral
	}
	return report
}
