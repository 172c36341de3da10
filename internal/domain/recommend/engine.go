// Package recommend ranks match suggestions and trending skills from the
// facts a FactProvider reports. The engine keeps no state between calls.
package recommend

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"time"

	"github.com/okian/skillswap/internal/domain/errs"
	"github.com/okian/skillswap/internal/domain/model"
	"github.com/okian/skillswap/internal/domain/scoring"
	"github.com/okian/skillswap/pkg/logger"
	"github.com/okian/skillswap/pkg/metrics"
)

// Engine defaults.
const (
	DefaultPrefetchLimit   = 20
	DefaultTrendWindow     = 30 * 24 * time.Hour
	DefaultUserCountWeight = 0.3
)

// Engine computes recommendations. It is safe for concurrent use.
type Engine struct {
	provider        FactProvider
	scorer          *scoring.Scorer
	prefetchLimit   int
	trendWindow     time.Duration
	align           time.Duration
	userCountWeight float64
	now             func() time.Time
	logger          logger.Logger
}

// NewEngine creates an engine reading from provider.
func NewEngine(provider FactProvider, opts ...Option) *Engine {
	e := &Engine{
		provider:        provider,
		scorer:          scoring.NewScorer(),
		prefetchLimit:   DefaultPrefetchLimit,
		trendWindow:     DefaultTrendWindow,
		userCountWeight: DefaultUserCountWeight,
		now:             time.Now,
		logger:          logger.Nop(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Recommend returns up to limit ranked candidate matches for userID.
// A limit below 1 is treated as 1. An empty result is not an error.
func (e *Engine) Recommend(ctx context.Context, userID int64, limit int) ([]model.CandidateMatch, error) {
	const op = "recommend.Recommend"
	start := time.Now()
	defer func() { metrics.RecordEngineLatency("recommend", msSince(start)) }()

	limit = clampLimit(limit)

	user, err := e.provider.LookupUser(ctx, userID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.WrapKind(op, errs.ErrNotFound, err)
		}
		return nil, e.dependencyError(ctx, op, "lookup_user", err)
	}
	if !user.Active {
		return nil, errs.NewKind(op, errs.ErrNotFound)
	}

	decls, err := e.provider.ActiveSkillDeclarations(ctx, userID)
	if err != nil {
		return nil, e.dependencyError(ctx, op, "active_skills", err)
	}

	profile := scoring.NewProfile(decls)
	if profile.Empty() {
		metrics.RecordRecommendationEmpty()
		e.logger.Debug(ctx, "empty profile", logger.Int64("user_id", userID))
		return []model.CandidateMatch{}, nil
	}

	candidates, err := e.provider.CandidateDeclarations(ctx, CandidateQuery{
		ExcludeUserID: userID,
		SeekingNames:  profile.SeekingNames(),
		OfferingNames: profile.OfferingNames(),
		Categories:    profile.CategoryNames(),
		PrefetchLimit: e.prefetchLimit,
	})
	if err != nil {
		return nil, e.dependencyError(ctx, op, "candidates", err)
	}

	ranked := e.rank(userID, profile, candidates)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	if len(ranked) == 0 {
		metrics.RecordRecommendationEmpty()
	}
	for _, m := range ranked {
		metrics.RecordRecommendationServed(string(m.MatchType))
	}

	e.logger.Debug(ctx, "recommendations ranked",
		logger.Int64("user_id", userID),
		logger.Int("candidates", len(candidates)),
		logger.Int("returned", len(ranked)))

	return ranked, nil
}

// ranked pairs a match with the position of its user's first provider row.
type ranked struct {
	match model.CandidateMatch
	first int
}

// rank scores every qualifying declaration, keeps the best one per user and
// orders users by score desc, then by first appearance.
func (e *Engine) rank(callerID int64, profile scoring.Profile, candidates []model.Candidate) []model.CandidateMatch {
	best := make(map[int64]*ranked, len(candidates))
	scored := 0

	for _, c := range candidates {
		d := c.Declaration
		if d.UserID == callerID || !d.Active {
			continue
		}
		score, match := e.scorer.Score(profile, c)
		if match == model.MatchNone {
			continue
		}
		scored++

		cur, ok := best[d.UserID]
		if !ok {
			best[d.UserID] = &ranked{match: toMatch(c, match, score), first: len(best)}
			continue
		}
		if score > cur.match.Score {
			cur.match = toMatch(c, match, score)
		}
	}
	metrics.RecordCandidatesScored(scored)

	all := make([]*ranked, 0, len(best))
	for _, r := range best {
		all = append(all, r)
	}
	slices.SortFunc(all, func(a, b *ranked) int {
		if c := cmp.Compare(b.match.Score, a.match.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.first, b.first)
	})

	out := make([]model.CandidateMatch, len(all))
	for i, r := range all {
		out[i] = r.match
	}
	return out
}

func toMatch(c model.Candidate, match model.MatchType, score float64) model.CandidateMatch {
	d := c.Declaration
	return model.CandidateMatch{
		UserID:      d.UserID,
		Username:    d.Username,
		FullName:    d.FullName,
		SkillID:     d.SkillID,
		SkillName:   d.SkillName,
		Category:    d.Category,
		SkillType:   d.Type,
		Proficiency: d.Proficiency,
		MatchType:   match,
		Reputation:  c.Reputation,
		Score:       score,
	}
}

// Trending returns up to limit skills ranked by trend score over the
// trailing window ending now.
func (e *Engine) Trending(ctx context.Context, limit int) ([]model.TrendingSkill, error) {
	const op = "recommend.Trending"
	start := time.Now()
	defer func() { metrics.RecordEngineLatency("trending", msSince(start)) }()

	limit = clampLimit(limit)
	now := e.now()
	if e.align > 0 {
		now = now.Truncate(e.align)
	}

	facts, err := e.provider.SkillTrendFacts(ctx, Window{Start: now.Add(-e.trendWindow), End: now})
	if err != nil {
		return nil, e.dependencyError(ctx, op, "trend_facts", err)
	}

	out := make([]model.TrendingSkill, len(facts))
	for i, f := range facts {
		out[i] = model.TrendingSkill{
			SkillTrendFact: f,
			TrendScore:     float64(f.UserCount)*e.userCountWeight + float64(f.TradeCount),
		}
	}
	slices.SortFunc(out, func(a, b model.TrendingSkill) int {
		if c := cmp.Compare(b.TrendScore, a.TrendScore); c != 0 {
			return c
		}
		return cmp.Compare(a.SkillID, b.SkillID)
	})
	if len(out) > limit {
		out = out[:limit]
	}

	metrics.RecordTrendingServed()
	return out, nil
}

func (e *Engine) dependencyError(ctx context.Context, op, call string, err error) error {
	metrics.RecordProviderError(call)
	e.logger.Error(ctx, "fact provider failed",
		logger.String("op", op),
		logger.String("call", call),
		logger.Error(err))
	return errs.WrapKind(op, errs.ErrDependency, err)
}

func clampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	return limit
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
