package repository

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"slices"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/okian/skillswap/internal/domain/errs"
	"github.com/okian/skillswap/internal/domain/model"
	"github.com/okian/skillswap/internal/domain/recommend"
)

// Fixtures mirror the platform tables the engine reads.
type Fixtures struct {
	Users      []FixtureUser      `yaml:"users"`
	Skills     []FixtureSkill     `yaml:"skills"`
	UserSkills []FixtureUserSkill `yaml:"user_skills"`
	Trades     []FixtureTrade     `yaml:"trades"`
	Reviews    []FixtureReview    `yaml:"reviews"`
}

// FixtureUser is a row of users.
type FixtureUser struct {
	ID       int64  `yaml:"id"`
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	FullName string `yaml:"full_name"`
	Role     string `yaml:"role"`
	Active   bool   `yaml:"is_active"`
}

// FixtureSkill is a row of skills.
type FixtureSkill struct {
	ID       int64  `yaml:"id"`
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	Active   bool   `yaml:"is_active"`
}

// FixtureUserSkill is a row of user_skills.
type FixtureUserSkill struct {
	ID          int64  `yaml:"id"`
	UserID      int64  `yaml:"user_id"`
	SkillID     int64  `yaml:"skill_id"`
	SkillType   string `yaml:"skill_type"`
	Proficiency string `yaml:"proficiency_level"`
	Active      bool   `yaml:"is_active"`
}

// FixtureTrade is a row of trades.
type FixtureTrade struct {
	ID               int64     `yaml:"id"`
	RequesterID      int64     `yaml:"requester_id"`
	ProviderID       int64     `yaml:"provider_id"`
	RequesterSkillID int64     `yaml:"requester_skill_id"`
	ProviderSkillID  int64     `yaml:"provider_skill_id"`
	Status           string    `yaml:"status"`
	CreatedAt        time.Time `yaml:"created_at"`
}

// FixtureReview is a row of reviews.
type FixtureReview struct {
	ID         int64   `yaml:"id"`
	RevieweeID int64   `yaml:"reviewee_id"`
	Rating     float64 `yaml:"rating"`
}

// LoadFixtures reads and decodes a YAML fixture file.
func LoadFixtures(path string) (Fixtures, error) {
	var f Fixtures
	b, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("read fixtures %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &f); err != nil {
		return f, fmt.Errorf("%w: %s: %v", ErrInvalidFixture, path, err)
	}
	return f, nil
}

var _ recommend.FactProvider = (*MemoryStore)(nil)

// MemoryStore answers fact queries from fixtures held in memory. Reads go
// through an immutable snapshot, so Replace can swap data under live traffic.
type MemoryStore struct {
	snapshot atomic.Pointer[snapshot]
}

// snapshot is the indexed, read-only form of a Fixtures value.
type snapshot struct {
	users      map[int64]model.User
	skills     map[int64]FixtureSkill
	userSkills []FixtureUserSkill // ordered by id
	trades     []FixtureTrade
	reputation map[int64]model.UserReputation
	skillCount int
}

// NewMemoryStore validates f and returns a store serving it.
func NewMemoryStore(f Fixtures) (*MemoryStore, error) {
	s := &MemoryStore{}
	if err := s.Replace(f); err != nil {
		return nil, err
	}
	return s, nil
}

// Replace validates f and atomically publishes it. On error the previous
// data keeps serving.
func (s *MemoryStore) Replace(f Fixtures) error {
	snap, err := buildSnapshot(f)
	if err != nil {
		return err
	}
	s.snapshot.Store(snap)
	return nil
}

// Counts reports the number of users, skills and declarations loaded.
func (s *MemoryStore) Counts() (users, skills, declarations int) {
	snap := s.snapshot.Load()
	return len(snap.users), snap.skillCount, len(snap.userSkills)
}

func buildSnapshot(f Fixtures) (*snapshot, error) {
	snap := &snapshot{
		users:      make(map[int64]model.User, len(f.Users)),
		skills:     make(map[int64]FixtureSkill, len(f.Skills)),
		userSkills: slices.Clone(f.UserSkills),
		trades:     slices.Clone(f.Trades),
		reputation: make(map[int64]model.UserReputation, len(f.Users)),
		skillCount: len(f.Skills),
	}

	for _, u := range f.Users {
		role := model.Role(u.Role)
		if role == "" {
			role = model.RoleUser
		}
		snap.users[u.ID] = model.User{
			ID:       u.ID,
			Username: u.Username,
			Email:    u.Email,
			FullName: u.FullName,
			Role:     role,
			Active:   u.Active,
		}
	}
	for _, sk := range f.Skills {
		snap.skills[sk.ID] = sk
	}
	for _, us := range snap.userSkills {
		if _, ok := snap.users[us.UserID]; !ok {
			return nil, fmt.Errorf("%w: user_skill %d references unknown user %d", ErrInvalidFixture, us.ID, us.UserID)
		}
		if _, ok := snap.skills[us.SkillID]; !ok {
			return nil, fmt.Errorf("%w: user_skill %d references unknown skill %d", ErrInvalidFixture, us.ID, us.SkillID)
		}
		if _, err := model.ParseSkillType(us.SkillType); err != nil {
			return nil, fmt.Errorf("%w: user_skill %d: %v", ErrInvalidFixture, us.ID, err)
		}
	}
	slices.SortStableFunc(snap.userSkills, func(a, b FixtureUserSkill) int { return cmp.Compare(a.ID, b.ID) })

	ratingSum := make(map[int64]float64)
	ratingN := make(map[int64]int)
	for _, r := range f.Reviews {
		if r.Rating < 0 || r.Rating > 5 {
			return nil, fmt.Errorf("%w: review %d rating %v outside [0,5]", ErrInvalidFixture, r.ID, r.Rating)
		}
		ratingSum[r.RevieweeID] += r.Rating
		ratingN[r.RevieweeID]++
	}
	completed := make(map[int64]int)
	for _, t := range f.Trades {
		if t.Status != "completed" {
			continue
		}
		completed[t.RequesterID]++
		completed[t.ProviderID]++
	}
	for id := range snap.users {
		rep := model.UserReputation{UserID: id, CompletedTrades: completed[id]}
		if n := ratingN[id]; n > 0 {
			avg := ratingSum[id] / float64(n)
			rep.AverageRating = &avg
		}
		snap.reputation[id] = rep
	}

	return snap, nil
}

// LookupUser returns the user or an ErrNotFound error.
func (s *MemoryStore) LookupUser(ctx context.Context, userID int64) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, errs.WrapKind("memory.LookupUser", errs.ErrDependency, err)
	}
	u, ok := s.snapshot.Load().users[userID]
	if !ok {
		return model.User{}, errs.NewKind("memory.LookupUser", errs.ErrNotFound)
	}
	return u, nil
}

// ActiveSkillDeclarations returns the active declarations of userID.
func (s *MemoryStore) ActiveSkillDeclarations(ctx context.Context, userID int64) ([]model.SkillDeclaration, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.WrapKind("memory.ActiveSkillDeclarations", errs.ErrDependency, err)
	}
	snap := s.snapshot.Load()
	out := make([]model.SkillDeclaration, 0)
	for _, us := range snap.userSkills {
		if us.UserID != userID || !us.Active {
			continue
		}
		out = append(out, snap.declaration(us))
	}
	return out, nil
}

// CandidateDeclarations applies the same filter and ordering as the SQL store.
func (s *MemoryStore) CandidateDeclarations(ctx context.Context, q recommend.CandidateQuery) ([]model.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.WrapKind("memory.CandidateDeclarations", errs.ErrDependency, err)
	}
	snap := s.snapshot.Load()
	seeking := toSet(q.SeekingNames)
	offering := toSet(q.OfferingNames)
	categories := toSet(q.Categories)

	out := make([]model.Candidate, 0)
	for _, us := range snap.userSkills {
		if us.UserID == q.ExcludeUserID || !us.Active || !snap.users[us.UserID].Active {
			continue
		}
		d := snap.declaration(us)
		_, wanted := seeking[d.SkillName]
		_, offered := offering[d.SkillName]
		_, shared := categories[d.Category]
		if !(d.Type == model.Offering && wanted) && !(d.Type == model.Seeking && offered) && !shared {
			continue
		}
		out = append(out, model.Candidate{Declaration: d, Reputation: snap.reputation[us.UserID]})
	}

	slices.SortStableFunc(out, func(a, b model.Candidate) int {
		ra, rb := a.Reputation.AverageRating, b.Reputation.AverageRating
		switch {
		case ra != nil && rb == nil:
			return -1
		case ra == nil && rb != nil:
			return 1
		case ra != nil && rb != nil && *ra != *rb:
			return cmp.Compare(*rb, *ra)
		}
		return cmp.Compare(b.Reputation.CompletedTrades, a.Reputation.CompletedTrades)
	})

	limit := q.PrefetchLimit
	if limit <= 0 {
		limit = recommend.DefaultPrefetchLimit
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SkillTrendFacts counts active declarations per active skill and the trades
// referencing them created inside the window.
func (s *MemoryStore) SkillTrendFacts(ctx context.Context, w recommend.Window) ([]model.SkillTrendFact, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.WrapKind("memory.SkillTrendFacts", errs.ErrDependency, err)
	}
	snap := s.snapshot.Load()

	declSkill := make(map[int64]int64)
	facts := make(map[int64]*model.SkillTrendFact)
	for _, us := range snap.userSkills {
		sk := snap.skills[us.SkillID]
		if !us.Active || !sk.Active {
			continue
		}
		declSkill[us.ID] = sk.ID
		f, ok := facts[sk.ID]
		if !ok {
			f = &model.SkillTrendFact{SkillID: sk.ID, Name: sk.Name, Category: sk.Category}
			facts[sk.ID] = f
		}
		f.UserCount++
	}

	for _, t := range snap.trades {
		if !w.Contains(t.CreatedAt) {
			continue
		}
		if id, ok := declSkill[t.RequesterSkillID]; ok {
			facts[id].TradeCount++
		}
		if id, ok := declSkill[t.ProviderSkillID]; ok {
			facts[id].TradeCount++
		}
	}

	out := make([]model.SkillTrendFact, 0, len(facts))
	for _, f := range facts {
		out = append(out, *f)
	}
	slices.SortFunc(out, func(a, b model.SkillTrendFact) int { return cmp.Compare(a.SkillID, b.SkillID) })
	return out, nil
}

func (snap *snapshot) declaration(us FixtureUserSkill) model.SkillDeclaration {
	u := snap.users[us.UserID]
	sk := snap.skills[us.SkillID]
	t, _ := model.ParseSkillType(us.SkillType)
	p, _ := model.ParseProficiency(us.Proficiency)
	return model.SkillDeclaration{
		UserID:      us.UserID,
		Username:    u.Username,
		FullName:    u.FullName,
		SkillID:     sk.ID,
		SkillName:   sk.Name,
		Category:    sk.Category,
		Type:        t,
		Proficiency: p,
		Active:      us.Active,
	}
}

func toSet(vals []string) map[string]struct{} {
	set := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		set[v] = struct{}{}
	}
	return set
}
