// Package social fetches posts mentioning a token from SocialData and the
// Twitter API v2 and maps them to domain.SocialPost.
package social

import (
	"strings"
	"time"

	"solana-token-sentinel/internal/domain"
)

// DefaultMaxPosts bounds how many posts one query collects.
const DefaultMaxPosts = 50

const defaultAvatarMarker = "default_profile_images"

// SearchQuery builds the search expression for q: the mint address, OR'ed
// with the cashtag when a symbol is known.
func SearchQuery(q domain.PostQuery) string {
	sym := strings.TrimPrefix(strings.TrimSpace(q.Symbol), "$")
	if sym == "" {
		return q.Mint
	}
	return q.Mint + " OR $" + strings.ToUpper(sym)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RubyDate, // legacy v1.1 created_at
}

// parseTime accepts the timestamp formats the providers emit.
func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// isoTimestamp normalises s to RFC 3339, keeping s when it cannot be parsed.
func isoTimestamp(s string) string {
	if t, ok := parseTime(s); ok {
		return t.Format(time.RFC3339)
	}
	return s
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }
