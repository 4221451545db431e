package sentiment

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"solana-token-sentinel/internal/domain"
)

var (
	urlPattern     = regexp.MustCompile(`https?://\S+`)
	addressPattern = regexp.MustCompile(`[A-Za-z0-9]{32,}`)
)

// wordSet tokenizes text for similarity: URLs and address-like runs are
// dropped, punctuation becomes whitespace.
func wordSet(text string) map[string]struct{} {
	s := strings.ToLower(text)
	s = urlPattern.ReplaceAllString(s, " ")
	s = addressPattern.ReplaceAllString(s, " ")
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)

	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}

// jaccard returns |a∩b| / |a∪b|. Two empty sets have similarity 0.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for w := range small {
		if _, ok := large[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// MarkDuplicates ranks posts by weighted engagement and flags each post that
// is more similar than DefaultWeights().DuplicateThreshold to a higher-ranked one.
func MarkDuplicates(posts []domain.TweetSentiment) []domain.TweetSentiment {
	return markDuplicates(posts, DefaultWeights().DuplicateThreshold)
}

// markDuplicates returns a ranked copy of posts with IsDuplicate set.
// Ties keep input order.
func markDuplicates(posts []domain.TweetSentiment, threshold float64) []domain.TweetSentiment {
	ranked := make([]domain.TweetSentiment, len(posts))
	copy(ranked, posts)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].WeightedEngagement() > ranked[j].WeightedEngagement()
	})

	sets := make([]map[string]struct{}, len(ranked))
	for i := range ranked {
		sets[i] = wordSet(ranked[i].Text)
	}

	for i := 1; i < len(ranked); i++ {
		for j := 0; j < i; j++ {
			if jaccard(sets[i], sets[j]) > threshold {
				ranked[i].IsDuplicate = true
				break
			}
		}
	}
	return ranked
}
