package domain

import "time"

// SocialPost is a post mentioning a token, as supplied by a social collaborator.
// Optional account signals are nil when the source does not expose them.
type SocialPost struct {
	ID               string     `json:"id"`
	Text             string     `json:"text"`
	AuthorHandle     string     `json:"authorHandle"`
	AuthorName       string     `json:"authorName"`
	Followers        int        `json:"followers"`
	AccountCreatedAt *time.Time `json:"accountCreatedAt,omitempty"`
	DefaultAvatar    *bool      `json:"defaultAvatar,omitempty"`
	StatusesCount    *int       `json:"statusesCount,omitempty"`
	FollowingCount   *int       `json:"followingCount,omitempty"`
	Verified         bool       `json:"verified"`
	Likes            int        `json:"likes"`
	Retweets         int        `json:"retweets"`
	Replies          int        `json:"replies"`
	Views            int        `json:"views"`
	Timestamp        string     `json:"timestamp"` // ISO 8601
	Permalink        string     `json:"permalink"`
}

// WeightedEngagement ranks posts: likes + 2*retweets + replies.
func (p *SocialPost) WeightedEngagement() int {
	return p.Likes + 2*p.Retweets + p.Replies
}

// Engagement is the unweighted interaction count.
func (p *SocialPost) Engagement() int {
	return p.Likes + p.Retweets + p.Replies
}

// SentimentLabel is the polarity of a post or a report.
type SentimentLabel string

const (
	SentimentBullish SentimentLabel = "bullish"
	SentimentBearish SentimentLabel = "bearish"
	SentimentNeutral SentimentLabel = "neutral"
)

// TweetSentiment annotates a post with sentiment and bot signals.
type TweetSentiment struct {
	SocialPost
	Sentiment   SentimentLabel `json:"sentiment"`
	Score       float64        `json:"score"`    // -1..1
	Keywords    []string       `json:"keywords"` // "+moon", "-rug"
	BotScore    float64        `json:"botScore"` // 0..1
	IsDuplicate bool           `json:"isDuplicate"`
}

// ReportStatus tells callers whether a sentiment report carries data.
type ReportStatus string

const (
	ReportReady  ReportStatus = "ready"
	ReportError  ReportStatus = "error"
	ReportNoData ReportStatus = "no-data"
)

// SentimentReport aggregates all annotated posts for one mint.
type SentimentReport struct {
	Mint            string           `json:"mint"`
	TotalPosts      int              `json:"totalPosts"`
	HumanPosts      int              `json:"humanPosts"`
	BotFiltered     int              `json:"botFiltered"`
	Duplicates      int              `json:"duplicates"`
	Bullish         int              `json:"bullish"`
	Bearish         int              `json:"bearish"`
	Neutral         int              `json:"neutral"`
	OverallScore    int              `json:"overallScore"` // -100..100
	OverallLabel    SentimentLabel   `json:"overallLabel"`
	AvgFollowers    float64          `json:"avgFollowers"`
	TotalEngagement int              `json:"totalEngagement"`
	QualityScore    int              `json:"qualityScore"` // -100..100
	Posts           []TweetSentiment `json:"posts"`
	Status          ReportStatus     `json:"status"`
	Error           string           `json:"error,omitempty"`
	GeneratedAt     time.Time        `json:"generatedAt"`
}

// EmptyReport returns a zeroed report with the given status.
func EmptyReport(mint string, status ReportStatus, now time.Time) *SentimentReport {
	return &SentimentReport{
		Mint:         mint,
		OverallLabel: SentimentNeutral,
		Posts:        []TweetSentiment{},
		Status:       status,
		GeneratedAt:  now,
	}
}

// PostQuery selects posts about a token. Symbol is optional.
type PostQuery struct {
	Mint   string `json:"mint"`
	Symbol string `json:"symbol,omitempty"`
}
