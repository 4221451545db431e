package social

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"solana-token-sentinel/internal/domain"
	"solana-token-sentinel/internal/sentiment"
	"solana-token-sentinel/internal/upstream"
)

// DefaultSocialDataURL is the SocialData API.
const DefaultSocialDataURL = "https://api.socialdata.tools"

const maxSearchPages = 10

// SocialData searches recent posts through the SocialData Twitter search API.
type SocialData struct {
	baseURL  string
	apiKey   string
	maxPosts int
	http     *upstream.Client
}

// SocialDataOption configures SocialData.
type SocialDataOption func(*SocialData)

// WithSocialDataURL overrides the API base URL.
func WithSocialDataURL(u string) SocialDataOption {
	return func(s *SocialData) {
		s.baseURL = strings.TrimRight(u, "/")
	}
}

// WithMaxPosts bounds the number of posts collected across result pages.
func WithMaxPosts(n int) SocialDataOption {
	return func(s *SocialData) {
		if n > 0 {
			s.maxPosts = n
		}
	}
}

// NewSocialData creates a client authenticated with apiKey.
func NewSocialData(apiKey string, transport *upstream.Client, opts ...SocialDataOption) *SocialData {
	if transport == nil {
		transport = upstream.New("socialdata")
	}
	s := &SocialData{
		baseURL:  DefaultSocialDataURL,
		apiKey:   apiKey,
		maxPosts: DefaultMaxPosts,
		http:     transport,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Posts returns the latest posts for q, following result cursors until
// maxPosts are collected or the results run out.
func (s *SocialData) Posts(ctx context.Context, q domain.PostQuery) ([]domain.SocialPost, error) {
	headers := map[string]string{"Authorization": "Bearer " + s.apiKey}
	query := SearchQuery(q)

	var posts []domain.SocialPost
	cursor := ""
	for page := 0; page < maxSearchPages && len(posts) < s.maxPosts; page++ {
		params := url.Values{}
		params.Set("query", query)
		params.Set("type", "Latest")
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		var resp sdSearchResponse
		if err := s.http.GetJSON(ctx, s.baseURL+"/twitter/search?"+params.Encode(), headers, &resp); err != nil {
			return nil, fmt.Errorf("socialdata search %q: %w", query, err)
		}
		for _, t := range resp.Tweets {
			if len(posts) == s.maxPosts {
				break
			}
			posts = append(posts, t.post())
		}
		if resp.NextCursor == "" || len(resp.Tweets) == 0 {
			break
		}
		cursor = resp.NextCursor
	}
	return posts, nil
}

type sdSearchResponse struct {
	NextCursor string    `json:"next_cursor"`
	Tweets     []sdTweet `json:"tweets"`
}

type sdTweet struct {
	IDStr          string `json:"id_str"`
	FullText       string `json:"full_text"`
	Text           string `json:"text"`
	TweetCreatedAt string `json:"tweet_created_at"`
	FavoriteCount  int    `json:"favorite_count"`
	RetweetCount   int    `json:"retweet_count"`
	ReplyCount     int    `json:"reply_count"`
	ViewsCount     int    `json:"views_count"`
	User           sdUser `json:"user"`
}

type sdUser struct {
	ScreenName          string `json:"screen_name"`
	Name                string `json:"name"`
	FollowersCount      int    `json:"followers_count"`
	FriendsCount        int    `json:"friends_count"`
	StatusesCount       int    `json:"statuses_count"`
	Verified            bool   `json:"verified"`
	CreatedAt           string `json:"created_at"`
	DefaultProfileImage bool   `json:"default_profile_image"`
	ProfileImageURL     string `json:"profile_image_url_https"`
}

func (t *sdTweet) post() domain.SocialPost {
	text := t.FullText
	if text == "" {
		text = t.Text
	}
	p := domain.SocialPost{
		ID:             t.IDStr,
		Text:           text,
		AuthorHandle:   t.User.ScreenName,
		AuthorName:     t.User.Name,
		Followers:      t.User.FollowersCount,
		StatusesCount:  intPtr(t.User.StatusesCount),
		FollowingCount: intPtr(t.User.FriendsCount),
		DefaultAvatar:  boolPtr(t.User.DefaultProfileImage || strings.Contains(t.User.ProfileImageURL, defaultAvatarMarker)),
		Verified:       t.User.Verified,
		Likes:          t.FavoriteCount,
		Retweets:       t.RetweetCount,
		Replies:        t.ReplyCount,
		Views:          t.ViewsCount,
		Timestamp:      isoTimestamp(t.TweetCreatedAt),
	}
	if created, ok := parseTime(t.User.CreatedAt); ok {
		p.AccountCreatedAt = &created
	}
	if t.User.ScreenName != "" && t.IDStr != "" {
		p.Permalink = fmt.Sprintf("https://x.com/%s/status/%s", t.User.ScreenName, t.IDStr)
	}
	return p
}

var _ sentiment.PostSource = (*SocialData)(nil)
