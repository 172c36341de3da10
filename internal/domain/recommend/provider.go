package recommend

import (
	"context"
	"time"

	"github.com/okian/skillswap/internal/domain/model"
)

// CandidateQuery selects declarations of other active users that complement
// the caller's skills.
type CandidateQuery struct {
	ExcludeUserID int64
	SeekingNames  []string
	OfferingNames []string
	Categories    []string
	PrefetchLimit int
}

// Window is the closed-open interval [Start, End) used for trending trades.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// FactProvider is the read-only view of the platform's relational facts.
//
// LookupUser returns an error matching errs.ErrNotFound when the user does
// not exist. CandidateDeclarations returns at most q.PrefetchLimit rows
// ordered by average rating desc, then completed trades desc.
type FactProvider interface {
	LookupUser(ctx context.Context, userID int64) (model.User, error)
	ActiveSkillDeclarations(ctx context.Context, userID int64) ([]model.SkillDeclaration, error)
	CandidateDeclarations(ctx context.Context, q CandidateQuery) ([]model.Candidate, error)
	SkillTrendFacts(ctx context.Context, w Window) ([]model.SkillTrendFact, error)
}
