// Package service wires configuration, the fact store, the breaker and the
// recommendation engine into the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/skillswap/internal/adapters/repository"
	"github.com/okian/skillswap/internal/auth"
	"github.com/okian/skillswap/internal/config"
	"github.com/okian/skillswap/internal/domain/errs"
	"github.com/okian/skillswap/internal/domain/model"
	"github.com/okian/skillswap/internal/domain/recommend"
	"github.com/okian/skillswap/pkg/logger"
	"github.com/okian/skillswap/pkg/metrics"
)

// Sentinel errors.
var (
	ErrNotStarted        = errors.New("service not started")
	ErrReloadUnsupported = errors.New("reload requires the memory store")
)

// Service implements the API dependencies for the recommendation service.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	// Core components
	provider recommend.FactProvider
	mysql    *repository.MySQLStore
	memory   *repository.MemoryStore
	breaker  *repository.Breaker
	engine   *recommend.Engine
	tokens   *auth.TokenManager

	// State
	started   bool
	startedAt time.Time
	now       func() time.Time

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithProvider bypasses store construction and serves facts from p.
func WithProvider(p recommend.FactProvider) Option {
	return func(s *Service) {
		if p != nil {
			s.provider = p
		}
	}
}

// WithClock overrides time.Now for the engine and token manager.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service from cfg. A nil cfg means defaults.
func New(cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.New(context.Background())
	}
	s := &Service{
		cfg: cfg,
		now: time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start opens the fact store and builds the engine.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting recommendation service...", logger.String("store", s.cfg.Store))

	tokens, err := auth.NewTokenManager(s.cfg.JWTSecret,
		auth.WithTTL(s.cfg.JWTTTL()),
		auth.WithClock(s.now),
	)
	if err != nil {
		return fmt.Errorf("token manager: %w", err)
	}

	provider := s.provider
	if provider == nil {
		provider, err = s.openStore(ctx)
		if err != nil {
			return err
		}
	}

	s.breaker = repository.NewBreaker(provider,
		repository.WithBreakerMaxRequests(uint32(max(s.cfg.BreakerMaxRequests, 0))),
		repository.WithBreakerInterval(s.cfg.BreakerInterval()),
		repository.WithBreakerTimeout(s.cfg.BreakerTimeout()),
		repository.WithBreakerTrip(uint32(max(s.cfg.BreakerMinRequests, 0)), s.cfg.BreakerFailureRatio),
		repository.WithBreakerLogger(s.logger.Named("breaker")),
	)
	s.engine = recommend.NewEngine(s.breaker,
		recommend.WithWeights(s.cfg.Weights),
		recommend.WithPrefetchLimit(s.cfg.PrefetchLimit),
		recommend.WithTrendWindow(s.cfg.TrendingWindow()),
		recommend.WithWindowAlignment(s.cfg.TrendingAlign()),
		recommend.WithClock(s.now),
		recommend.WithLogger(s.logger.Named("engine")),
	)
	s.tokens = tokens
	s.started = true
	s.startedAt = s.now()

	s.logger.Info(ctx, "recommendation service started",
		logger.Int("prefetchLimit", s.cfg.PrefetchLimit),
		logger.Int("trendingWindowDays", s.cfg.TrendingWindowDays),
	)

	return nil
}

func (s *Service) openStore(ctx context.Context) (recommend.FactProvider, error) {
	switch s.cfg.Store {
	case config.StoreMemory:
		f, err := repository.LoadFixtures(s.cfg.FixturePath)
		if err != nil {
			return nil, err
		}
		mem, err := repository.NewMemoryStore(f)
		if err != nil {
			return nil, err
		}
		s.memory = mem
		s.publishCounts()
		s.logger.Info(ctx, "using memory store", logger.String("fixtures", s.cfg.FixturePath))
		return mem, nil

	case config.StoreMySQL:
		dsn := s.cfg.DBDSN
		if dsn == "" {
			dsn = repository.BuildDSN(s.cfg.DBHost, s.cfg.DBPort, s.cfg.DBUser, s.cfg.DBPassword, s.cfg.DBName)
		}
		db, err := repository.NewMySQLStore(ctx, dsn,
			repository.WithQueryTimeout(s.cfg.QueryTimeout()),
			repository.WithPool(s.cfg.DBMaxOpenConns, s.cfg.DBMaxIdleConns, s.cfg.ConnMaxLifetime()),
			repository.WithLogger(s.logger.Named("mysql")),
		)
		if err != nil {
			return nil, err
		}
		s.mysql = db
		s.logger.Info(ctx, "using mysql store", logger.String("host", s.cfg.DBHost), logger.String("db", s.cfg.DBName))
		return db, nil

	default:
		return nil, fmt.Errorf("%w: unknown store %q", config.ErrInvalidConfig, s.cfg.Store)
	}
}

// Stop releases the fact store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping recommendation service...")

	if s.mysql != nil {
		if err := s.mysql.Close(); err != nil {
			s.logger.Warn(context.Background(), "close mysql store", logger.Error(err))
		}
		s.mysql = nil
	}

	s.started = false
	s.logger.Info(context.Background(), "recommendation service stopped")
}

// Reload re-reads the fixture file into the memory store. On error the
// previous data keeps serving.
func (s *Service) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.memory == nil {
		return ErrReloadUnsupported
	}
	f, err := repository.LoadFixtures(s.cfg.FixturePath)
	if err != nil {
		return err
	}
	if err := s.memory.Replace(f); err != nil {
		return err
	}
	s.publishCounts()

	users, skills, decls := s.memory.Counts()
	s.logger.Info(ctx, "fixtures reloaded",
		logger.Int("users", users), logger.Int("skills", skills), logger.Int("declarations", decls))
	return nil
}

func (s *Service) publishCounts() {
	users, skills, decls := s.memory.Counts()
	metrics.UpdateStoreRecords("users", users)
	metrics.UpdateStoreRecords("skills", skills)
	metrics.UpdateStoreRecords("declarations", decls)
}

func (s *Service) running(op string) (*recommend.Engine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, errs.WrapKind(op, errs.ErrDependency, ErrNotStarted)
	}
	return s.engine, nil
}

// Recommend returns ranked matches for userID.
func (s *Service) Recommend(ctx context.Context, userID int64, limit int) ([]model.CandidateMatch, error) {
	e, err := s.running("service.Recommend")
	if err != nil {
		return nil, err
	}
	return e.Recommend(ctx, userID, limit)
}

// Trending returns the trending skills.
func (s *Service) Trending(ctx context.Context, limit int) ([]model.TrendingSkill, error) {
	e, err := s.running("service.Trending")
	if err != nil {
		return nil, err
	}
	return e.Trending(ctx, limit)
}

// LookupUser resolves an account through the breaker, for authentication.
func (s *Service) LookupUser(ctx context.Context, userID int64) (model.User, error) {
	const op = "service.LookupUser"
	if _, err := s.running(op); err != nil {
		return model.User{}, err
	}
	s.mu.RLock()
	b := s.breaker
	s.mu.RUnlock()
	return b.LookupUser(ctx, userID)
}

// Tokens returns the token manager, nil before Start.
func (s *Service) Tokens() *auth.TokenManager {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens
}

// Verify checks a bearer token.
func (s *Service) Verify(token string) (*auth.Claims, error) {
	tm := s.Tokens()
	if tm == nil {
		return nil, ErrNotStarted
	}
	return tm.Verify(token)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":            s.started,
		"store":              s.cfg.Store,
		"prefetchLimit":      s.cfg.PrefetchLimit,
		"trendingWindowDays": s.cfg.TrendingWindowDays,
	}

	if s.started {
		stats["uptimeSeconds"] = int64(s.now().Sub(s.startedAt).Seconds())
		stats["breakerState"] = s.breaker.State()
		if s.memory != nil {
			users, skills, decls := s.memory.Counts()
			stats["users"] = users
			stats["skills"] = skills
			stats["declarations"] = decls
		}
	}

	return stats
}
