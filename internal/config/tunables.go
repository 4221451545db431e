package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"solana-token-sentinel/internal/sentiment"
)

// Tunables are scoring constants that can be changed without a rebuild.
type Tunables struct {
	Sentiment sentiment.Weights `yaml:"sentiment"`
}

// DefaultTunables returns the built-in scoring constants.
func DefaultTunables() Tunables {
	return Tunables{Sentiment: sentiment.DefaultWeights()}
}

// LoadTunables reads path over the defaults. An empty path returns the defaults.
// Keys missing from the file keep their default values.
func LoadTunables(path string) (Tunables, error) {
	t := DefaultTunables()
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read tunables: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("parse tunables %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tunables %s: %w", path, err)
	}
	return t, nil
}

// Validate rejects values outside their meaningful ranges.
func (t Tunables) Validate() error {
	w := t.Sentiment
	var errs []error
	if w.BotThreshold <= 0 || w.BotThreshold > 1 {
		errs = append(errs, fmt.Errorf("sentiment.bot_threshold must be in (0, 1], got %v", w.BotThreshold))
	}
	if w.DuplicateThreshold <= 0 || w.DuplicateThreshold > 1 {
		errs = append(errs, fmt.Errorf("sentiment.duplicate_threshold must be in (0, 1], got %v", w.DuplicateThreshold))
	}
	if w.DuplicatePenalty < 0 || w.DuplicatePenalty > 1 {
		errs = append(errs, fmt.Errorf("sentiment.duplicate_penalty must be in [0, 1], got %v", w.DuplicatePenalty))
	}
	if w.VerifiedMultiplier <= 0 {
		errs = append(errs, fmt.Errorf("sentiment.verified_multiplier must be positive, got %v", w.VerifiedMultiplier))
	}
	if w.LabelThreshold < 0 || w.LabelThreshold > 100 {
		errs = append(errs, fmt.Errorf("sentiment.label_threshold must be in [0, 100], got %d", w.LabelThreshold))
	}
	for i := 1; i < len(w.FollowerTiers); i++ {
		if w.FollowerTiers[i].MinFollowers >= w.FollowerTiers[i-1].MinFollowers {
			errs = append(errs, errors.New("sentiment.follower_tiers must be ordered highest first"))
			break
		}
	}
	return errors.Join(errs...)
}
