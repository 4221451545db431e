package sentiment

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"solana-token-sentinel/internal/domain"
)

var generatedHandle = regexp.MustCompile(`^[A-Za-z]{2,10}\d{5,}$`)

// shillTemplates match promotional boilerplate typical of paid or automated posts.
var shillTemplates = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(dm|inbox) me\b`),
	regexp.MustCompile(`(?i)\bjoin (my|our) (telegram|tg|discord)\b`),
	regexp.MustCompile(`(?i)\bairdrop\b`),
	regexp.MustCompile(`(?i)\bfree (crypto|tokens?|sol)\b`),
	regexp.MustCompile(`(?i)\b(next|potential) \d+x\b`),
	regexp.MustCompile(`(?i)\bdon'?t miss (out|this)\b`),
	regexp.MustCompile(`(?i)\bca\s*:`),
	regexp.MustCompile(`(?i)\b(presale|whitelist) (is )?(live|open)\b`),
	regexp.MustCompile(`(?i)\b(check|look at) (my )?(bio|pinned)\b`),
	regexp.MustCompile(`(?i)\bguaranteed (gains|profits?|returns)\b`),
}

// shortTextRunes is the length below which a post counts as low effort.
const shortTextRunes = 40

// BotScore estimates how likely a post is automated, in [0, 1].
// Contributions are summed in hundredths so thresholds compare exactly.
func BotScore(p *domain.SocialPost, now time.Time) float64 {
	points := 0

	switch {
	case p.Followers < 50:
		points += 20
	case p.Followers < 200:
		points += 10
	}

	if p.AccountCreatedAt != nil {
		days := now.Sub(*p.AccountCreatedAt).Hours() / 24
		switch {
		case days < 14:
			points += 25
		case days < 30:
			points += 15
		case days < 90:
			points += 5
		}
	}

	if p.DefaultAvatar != nil && *p.DefaultAvatar {
		points += 15
	}

	if generatedHandle.MatchString(p.AuthorHandle) {
		points += 15
	}

	if p.StatusesCount != nil {
		switch {
		case *p.StatusesCount > 10_000 && p.Followers < 500:
			points += 20
		case *p.StatusesCount > 3_000 && p.Followers < 100:
			points += 15
		}
	}

	if p.FollowingCount != nil {
		followers := p.Followers
		if followers < 1 {
			followers = 1
		}
		if float64(*p.FollowingCount)/float64(followers) > 20 {
			points += 15
		}
	}

	if p.Engagement() == 0 {
		points += 10
	}

	if isShill(p.Text) {
		points += 15
	}

	if utf8.RuneCountInString(strings.TrimSpace(p.Text)) < shortTextRunes {
		points += 10
	}

	if p.Verified {
		points -= 30
	}

	if points < 0 {
		points = 0
	}
	if points > 100 {
		points = 100
	}
	return float64(points) / 100
}

func isShill(text string) bool {
	for _, re := range shillTemplates {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
