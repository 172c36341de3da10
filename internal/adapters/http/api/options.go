package api

import (
	"time"

	"github.com/okian/skillswap/pkg/logger"
)

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithCORSOrigins sets the origins allowed to call the API from a browser.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithRateLimit allows n requests per client IP within window on the
// business routes. n of zero disables limiting.
func WithRateLimit(n int, window time.Duration) Option {
	return func(s *Server) {
		if n >= 0 && window > 0 {
			s.rateLimit = n
			s.rateLimitWindow = window
		}
	}
}

// WithRecommendationLimits sets the default and ceiling for ?limit on
// recommendations.
func WithRecommendationLimits(def, maxLimit int) Option {
	return func(s *Server) {
		if def > 0 && maxLimit >= def {
			s.defaultRecommendations = def
			s.maxRecommendations = maxLimit
		}
	}
}

// WithTrendingLimits sets the default and ceiling for ?limit on trending.
func WithTrendingLimits(def, maxLimit int) Option {
	return func(s *Server) {
		if def > 0 && maxLimit >= def {
			s.defaultTrending = def
			s.maxTrending = maxLimit
		}
	}
}

// WithLogger sets a custom logger for the server.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now for the health timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}
