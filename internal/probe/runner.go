package probe

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/skillswap/internal/auth"
	"github.com/okian/skillswap/internal/domain/model"
	"github.com/okian/skillswap/pkg/logger"
)

// Sentinel errors.
var (
	ErrNoUsers = errors.New("no user ids to probe")
	ErrNoAdmin = errors.New("admin account id must be positive")
)

// Run queries every configured user Rounds times and checks the ranking
// properties of each answer. The token is minted for cfg.AdminID, which must
// be an active admin account to read other users' recommendations.
func Run(ctx context.Context, cfg *Config, log logger.Logger) (*Report, error) {
	if len(cfg.UserIDs) == 0 {
		return nil, ErrNoUsers
	}
	if cfg.AdminID <= 0 {
		return nil, ErrNoAdmin
	}
	report := &Report{StartTime: time.Now()}

	tm, err := auth.NewTokenManager(cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}
	token, err := tm.GenerateToken(model.User{ID: cfg.AdminID, Username: "probe", Role: model.RoleAdmin})
	if err != nil {
		return nil, err
	}
	client := NewClient(cfg.BaseURL, token, cfg.Timeout)

	log.Info(ctx, "starting probe",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("users", len(cfg.UserIDs)),
		logger.Int("rounds", cfg.Rounds),
		logger.Int("workers", cfg.Workers))

	if err := client.Health(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	trending, err := client.Trending(ctx, cfg.Limit)
	report.Requests++
	if err != nil {
		report.Failures++
		log.Warn(ctx, "trending failed", logger.Error(err))
	} else {
		report.Violations = append(report.Violations, verifyTrending(cfg.Limit, trending)...)
	}

	rounds := max(cfg.Rounds, 1)
	results := make([][]RecommendationsResponse, len(cfg.UserIDs))
	failed := make([][]bool, len(cfg.UserIDs))
	for i := range results {
		results[i] = make([]RecommendationsResponse, rounds)
		failed[i] = make([]bool, rounds)
	}

	var failures atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for i, userID := range cfg.UserIDs {
		for r := 0; r < rounds; r++ {
			g.Go(func() error {
				resp, err := client.Recommendations(gctx, userID, cfg.Limit)
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					failures.Add(1)
					failed[i][r] = true
					log.Warn(gctx, "recommendations failed", logger.Int64("user_id", userID), logger.Error(err))
					return nil
				}
				if cfg.Verbose {
					log.Info(gctx, "recommendations",
						logger.Int64("user_id", userID),
						logger.Int("round", r),
						logger.Int("count", len(resp.Recommendations)))
				}
				results[i][r] = resp
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	report.Requests += len(cfg.UserIDs) * rounds
	report.Failures += int(failures.Load())

	for i, userID := range cfg.UserIDs {
		var ok [][]Recommendation
		for r, resp := range results[i] {
			if failed[i][r] {
				continue
			}
			report.Violations = append(report.Violations, verifyRecommendations(userID, cfg.Limit, resp)...)
			ok = append(ok, resp.Recommendations)
		}
		report.Violations = append(report.Violations, verifyStable(userID, ok)...)
	}

	report.Duration = time.Since(report.StartTime)
	displayReport(ctx, log, report)
	return report, nil
}

func displayReport(ctx context.Context, log logger.Logger, r *Report) {
	log.Info(ctx, "probe finished",
		logger.Int("requests", r.Requests),
		logger.Int("failures", r.Failures),
		logger.Int("violations", len(r.Violations)),
		logger.String("duration", r.Duration.String()))
	for _, v := range r.Violations {
		log.Warn(ctx, "violation", logger.String("detail", v))
	}
}
