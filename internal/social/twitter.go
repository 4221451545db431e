package social

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	twitter "github.com/g8rswimmer/go-twitter/v2"

	"solana-token-sentinel/internal/domain"
	"solana-token-sentinel/internal/sentiment"
	"solana-token-sentinel/internal/upstream"
)

// DefaultTwitterHost is the Twitter API v2 host.
const DefaultTwitterHost = "https://api.twitter.com"

type bearer struct {
	token string
}

func (b bearer) Add(req *http.Request) {
	req.Header.Add("Authorization", "Bearer "+b.token)
}

// TwitterV2 searches recent posts with the official API v2 recent search.
type TwitterV2 struct {
	client   *twitter.Client
	guard    *upstream.Client
	maxPosts int
}

// TwitterOption configures TwitterV2.
type TwitterOption func(*twitterConfig)

type twitterConfig struct {
	host     string
	http     *http.Client
	maxPosts int
}

// WithTwitterHost overrides the API host.
func WithTwitterHost(host string) TwitterOption {
	return func(c *twitterConfig) { c.host = strings.TrimRight(host, "/") }
}

// WithTwitterHTTPClient sets the HTTP client used by the SDK.
func WithTwitterHTTPClient(hc *http.Client) TwitterOption {
	return func(c *twitterConfig) { c.http = hc }
}

// WithTwitterMaxPosts bounds results per query. The API accepts 10..100.
func WithTwitterMaxPosts(n int) TwitterOption {
	return func(c *twitterConfig) { c.maxPosts = n }
}

// NewTwitterV2 creates a recent-search client. guard supplies rate limiting
// and the circuit breaker around SDK calls.
func NewTwitterV2(bearerToken string, guard *upstream.Client, opts ...TwitterOption) *TwitterV2 {
	cfg := twitterConfig{
		host:     DefaultTwitterHost,
		http:     &http.Client{Timeout: 15 * time.Second},
		maxPosts: DefaultMaxPosts,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxPosts < 10 {
		cfg.maxPosts = 10
	}
	if cfg.maxPosts > 100 {
		cfg.maxPosts = 100
	}
	if guard == nil {
		guard = upstream.New("twitter")
	}

	return &TwitterV2{
		client: &twitter.Client{
			Authorizer: bearer{token: bearerToken},
			Client:     cfg.http,
			Host:       cfg.host,
		},
		guard:    guard,
		maxPosts: cfg.maxPosts,
	}
}

// Posts returns recent original posts for q with their authors expanded.
func (t *TwitterV2) Posts(ctx context.Context, q domain.PostQuery) ([]domain.SocialPost, error) {
	query := "(" + SearchQuery(q) + ") -is:retweet"
	opts := twitter.TweetRecentSearchOpts{
		Expansions: []twitter.Expansion{twitter.ExpansionAuthorID},
		TweetFields: []twitter.TweetField{
			twitter.TweetFieldCreatedAt,
			twitter.TweetFieldAuthorID,
			twitter.TweetFieldPublicMetrics,
		},
		UserFields: []twitter.UserField{
			twitter.UserFieldCreatedAt,
			twitter.UserFieldName,
			twitter.UserFieldUserName,
			twitter.UserFieldPublicMetrics,
			twitter.UserFieldVerified,
			twitter.UserFieldProfileImageURL,
		},
		MaxResults: t.maxPosts,
	}

	var resp *twitter.TweetRecentSearchResponse
	err := t.guard.Call(ctx, func(ctx context.Context) error {
		var err error
		resp, err = t.client.TweetRecentSearch(ctx, query, opts)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("twitter recent search %q: %w", query, err)
	}
	if resp == nil || resp.Raw == nil {
		return nil, nil
	}
	return mapTweets(resp.Raw), nil
}

func mapTweets(raw *twitter.TweetRaw) []domain.SocialPost {
	users := map[string]*twitter.UserObj{}
	if raw.Includes != nil {
		for _, u := range raw.Includes.Users {
			if u != nil {
				users[u.ID] = u
			}
		}
	}

	posts := make([]domain.SocialPost, 0, len(raw.Tweets))
	for _, tw := range raw.Tweets {
		if tw == nil {
			continue
		}
		p := domain.SocialPost{
			ID:        tw.ID,
			Text:      tw.Text,
			Timestamp: isoTimestamp(tw.CreatedAt),
		}
		if m := tw.PublicMetrics; m != nil {
			p.Likes = m.Likes
			p.Retweets = m.Retweets
			p.Replies = m.Replies
		}
		if u, ok := users[tw.AuthorID]; ok {
			p.AuthorHandle = u.UserName
			p.AuthorName = u.Name
			p.Verified = u.Verified
			p.DefaultAvatar = boolPtr(strings.Contains(u.ProfileImageURL, defaultAvatarMarker))
			if m := u.PublicMetrics; m != nil {
				p.Followers = m.Followers
				p.FollowingCount = intPtr(m.Following)
				p.StatusesCount = intPtr(m.Tweets)
			}
			if created, ok := parseTime(u.CreatedAt); ok {
				p.AccountCreatedAt = &created
			}
			p.Permalink = fmt.Sprintf("https://x.com/%s/status/%s", u.UserName, tw.ID)
		}
		posts = append(posts, p)
	}
	return posts
}

var _ sentiment.PostSource = (*TwitterV2)(nil)
