package social

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"solana-token-sentinel/internal/domain"
)

// ErrNoSource is returned by a Chain with no configured providers.
var ErrNoSource = errors.New("social: no post source configured")

// Source supplies posts for a query.
type Source interface {
	Posts(ctx context.Context, q domain.PostQuery) ([]domain.SocialPost, error)
}

// Chain tries each source in order and returns the first successful result.
// A successful empty result is final; only errors move on to the next source.
type Chain struct {
	sources []Source
	logger  zerolog.Logger
}

// NewChain chains sources, first preferred.
func NewChain(logger zerolog.Logger, sources ...Source) *Chain {
	return &Chain{sources: sources, logger: logger}
}

// Len returns the number of configured sources.
func (c *Chain) Len() int {
	return len(c.sources)
}

// Posts implements Source. It returns the last error when every source fails.
func (c *Chain) Posts(ctx context.Context, q domain.PostQuery) ([]domain.SocialPost, error) {
	if len(c.sources) == 0 {
		return nil, ErrNoSource
	}
	var lastErr error
	for i, src := range c.sources {
		posts, err := src.Posts(ctx, q)
		if err == nil {
			return posts, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if i < len(c.sources)-1 {
			c.logger.Warn().Err(err).Str("mint", q.Mint).Msg("post source failed, trying next")
		}
	}
	return nil, lastErr
}

var (
	_ Source = (*Chain)(nil)
	_ Source = (*SocialData)(nil)
	_ Source = (*TwitterV2)(nil)
)
