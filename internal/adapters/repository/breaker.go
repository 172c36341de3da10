package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"github.com/okian/skillswap/internal/domain/errs"
	"github.com/okian/skillswap/internal/domain/model"
	"github.com/okian/skillswap/internal/domain/recommend"
	"github.com/okian/skillswap/pkg/logger"
	"github.com/okian/skillswap/pkg/metrics"
)

// Breaker defaults.
const (
	defaultBreakerName         = "facts"
	defaultBreakerMaxRequests  = 3
	defaultBreakerInterval     = 60 * time.Second
	defaultBreakerTimeout      = 30 * time.Second
	defaultBreakerMinRequests  = 10
	defaultBreakerFailureRatio = 0.6
)

var _ recommend.FactProvider = (*Breaker)(nil)

// Breaker guards a FactProvider with a circuit breaker and collapses
// concurrent identical trending queries. It keeps no results once a query
// completes.
type Breaker struct {
	next    recommend.FactProvider
	cb      *gobreaker.CircuitBreaker[any]
	flights singleflight.Group

	name         string
	maxRequests  uint32
	interval     time.Duration
	timeout      time.Duration
	minRequests  uint32
	failureRatio float64
	logger       logger.Logger
}

// NewBreaker wraps next.
func NewBreaker(next recommend.FactProvider, opts ...BreakerOption) *Breaker {
	b := &Breaker{
		next:         next,
		name:         defaultBreakerName,
		maxRequests:  defaultBreakerMaxRequests,
		interval:     defaultBreakerInterval,
		timeout:      defaultBreakerTimeout,
		minRequests:  defaultBreakerMinRequests,
		failureRatio: defaultBreakerFailureRatio,
		logger:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}

	b.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        b.name,
		MaxRequests: b.maxRequests,
		Interval:    b.interval,
		Timeout:     b.timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if c.Requests < b.minRequests {
				return false
			}
			return float64(c.TotalFailures)/float64(c.Requests) >= b.failureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordBreakerTransition(name, from.String(), to.String())
			metrics.UpdateBreakerState(name, int(to))
			b.logger.Warn(context.Background(), "fact provider breaker changed state",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
		},
		IsSuccessful: isSuccessful,
	})
	metrics.UpdateBreakerState(b.name, int(gobreaker.StateClosed))

	return b
}

// isSuccessful keeps misses and caller cancellations from tripping the breaker.
func isSuccessful(err error) bool {
	return err == nil ||
		errors.Is(err, errs.ErrNotFound) ||
		errors.Is(err, context.Canceled)
}

// State returns the breaker state name.
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// LookupUser forwards to the wrapped provider.
func (b *Breaker) LookupUser(ctx context.Context, userID int64) (model.User, error) {
	v, err := b.execute("breaker.LookupUser", func() (any, error) {
		return b.next.LookupUser(ctx, userID)
	})
	if err != nil {
		return model.User{}, err
	}
	return v.(model.User), nil
}

// ActiveSkillDeclarations forwards to the wrapped provider.
func (b *Breaker) ActiveSkillDeclarations(ctx context.Context, userID int64) ([]model.SkillDeclaration, error) {
	v, err := b.execute("breaker.ActiveSkillDeclarations", func() (any, error) {
		return b.next.ActiveSkillDeclarations(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.SkillDeclaration), nil
}

// CandidateDeclarations forwards to the wrapped provider.
func (b *Breaker) CandidateDeclarations(ctx context.Context, q recommend.CandidateQuery) ([]model.Candidate, error) {
	v, err := b.execute("breaker.CandidateDeclarations", func() (any, error) {
		return b.next.CandidateDeclarations(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.Candidate), nil
}

// SkillTrendFacts shares one in-flight query among callers asking for the
// same window. The shared query is detached from any single caller's
// cancellation; each caller still returns as soon as its own context ends.
func (b *Breaker) SkillTrendFacts(ctx context.Context, w recommend.Window) ([]model.SkillTrendFact, error) {
	const op = "breaker.SkillTrendFacts"
	key := strconv.FormatInt(w.Start.UnixNano(), 10) + ":" + strconv.FormatInt(w.End.UnixNano(), 10)
	shared := context.WithoutCancel(ctx)

	ch := b.flights.DoChan(key, func() (any, error) {
		return b.execute(op, func() (any, error) {
			return b.next.SkillTrendFacts(shared, w)
		})
	})

	select {
	case <-ctx.Done():
		return nil, errs.WrapKind(op, errs.ErrDependency, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		facts := res.Val.([]model.SkillTrendFact)
		if res.Shared {
			facts = append([]model.SkillTrendFact(nil), facts...)
		}
		return facts, nil
	}
}

func (b *Breaker) execute(op string, fn func() (any, error)) (any, error) {
	v, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, errs.WrapKind(op, errs.ErrDependency, err)
	}
	return v, err
}
