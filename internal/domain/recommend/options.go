package recommend

import (
	"time"

	"github.com/okian/skillswap/internal/domain/scoring"
	"github.com/okian/skillswap/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithScorer replaces the default scorer.
func WithScorer(s *scoring.Scorer) Option {
	return func(e *Engine) {
		if s != nil {
			e.scorer = s
		}
	}
}

// WithWeights builds the scorer from custom weights.
func WithWeights(w scoring.Weights) Option {
	return func(e *Engine) {
		e.scorer = scoring.NewScorer(scoring.WithWeights(w))
	}
}

// WithPrefetchLimit sets how many candidate rows are requested per call.
func WithPrefetchLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.prefetchLimit = n
		}
	}
}

// WithTrendWindow sets the trailing window for trending trades.
func WithTrendWindow(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.trendWindow = d
		}
	}
}

// WithWindowAlignment truncates the window end to a multiple of d, so requests
// arriving within the same slot ask the provider for the same window.
func WithWindowAlignment(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.align = d
		}
	}
}

// WithUserCountWeight sets the trend score coefficient for declaring users.
func WithUserCountWeight(w float64) Option {
	return func(e *Engine) {
		if w >= 0 {
			e.userCountWeight = w
		}
	}
}

// WithClock overrides time.Now. Tests use it to pin the trending window.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}
