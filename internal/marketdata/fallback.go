package marketdata

import (
	"context"

	"github.com/rs/zerolog"

	"solana-token-sentinel/internal/domain"
	"solana-token-sentinel/internal/risk"
)

// FallbackSecurity tries each source in order and returns the first snapshot.
// When every source fails it returns domain.UnknownSecurity, never an error.
type FallbackSecurity struct {
	sources []risk.SecuritySource
	logger  zerolog.Logger
}

// NewFallbackSecurity chains sources, first preferred.
func NewFallbackSecurity(logger zerolog.Logger, sources ...risk.SecuritySource) *FallbackSecurity {
	return &FallbackSecurity{sources: sources, logger: logger}
}

// Security implements risk.SecuritySource.
func (f *FallbackSecurity) Security(ctx context.Context, mint string) (*domain.TokenSecuritySnapshot, error) {
	for _, src := range f.sources {
		snap, err := src.Security(ctx, mint)
		if err == nil && snap != nil {
			return snap, nil
		}
		if ctx.Err() != nil {
			break
		}
		f.logger.Warn().Err(err).Str("source", sourceName(src)).Str("mint", mint).Msg("security source failed, trying next")
	}
	return domain.UnknownSecurity(), nil
}

func sourceName(src interface{}) string {
	if n, ok := src.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "unnamed"
}

var _ risk.SecuritySource = (*FallbackSecurity)(nil)
