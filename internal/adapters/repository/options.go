package repository

import (
	"time"

	"github.com/okian/skillswap/pkg/logger"
)

// Option applies a configuration option to the MySQLStore.
type Option func(*MySQLStore)

// WithQueryTimeout bounds every query issued by the store.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *MySQLStore) {
		if d > 0 {
			s.queryTimeout = d
		}
	}
}

// WithPool sets the connection pool limits. Non-positive values keep the defaults.
func WithPool(maxOpen, maxIdle int, maxLifetime time.Duration) Option {
	return func(s *MySQLStore) {
		if maxOpen > 0 {
			s.maxOpenConns = maxOpen
		}
		if maxIdle > 0 {
			s.maxIdleConns = maxIdle
		}
		if maxLifetime > 0 {
			s.connMaxLifetime = maxLifetime
		}
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(s *MySQLStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// BreakerOption applies a configuration option to the Breaker.
type BreakerOption func(*Breaker)

// WithBreakerName names the breaker in logs and metrics.
func WithBreakerName(name string) BreakerOption {
	return func(b *Breaker) {
		if name != "" {
			b.name = name
		}
	}
}

// WithBreakerMaxRequests sets how many requests pass while half-open.
func WithBreakerMaxRequests(n uint32) BreakerOption {
	return func(b *Breaker) {
		if n > 0 {
			b.maxRequests = n
		}
	}
}

// WithBreakerInterval sets the cyclic period after which closed-state counts reset.
func WithBreakerInterval(d time.Duration) BreakerOption {
	return func(b *Breaker) {
		if d > 0 {
			b.interval = d
		}
	}
}

// WithBreakerTimeout sets how long the breaker stays open.
func WithBreakerTimeout(d time.Duration) BreakerOption {
	return func(b *Breaker) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithBreakerTrip opens the breaker once at least minRequests were seen and
// the failure ratio reaches ratio.
func WithBreakerTrip(minRequests uint32, ratio float64) BreakerOption {
	return func(b *Breaker) {
		if minRequests > 0 {
			b.minRequests = minRequests
		}
		if ratio > 0 && ratio <= 1 {
			b.failureRatio = ratio
		}
	}
}

// WithBreakerLogger sets a custom logger for the breaker.
func WithBreakerLogger(l logger.Logger) BreakerOption {
	return func(b *Breaker) {
		if l != nil {
			b.logger = l
		}
	}
}
