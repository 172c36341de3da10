// Package scoring computes how well another user's skill declaration
// complements a caller's skills.
package scoring

import (
	"math"

	"github.com/okian/skillswap/internal/domain/model"
)

// Default weights.
const (
	defaultOfferingMatch    = 10.0
	defaultSeekingMatch     = 8.0
	defaultCategoryMatch    = 3.0
	defaultRatingMultiplier = 2.0
	defaultPerTrade         = 0.5
	defaultExperienceCap    = 10.0
	defaultExpertBonus      = 2.0
	defaultIntermediate     = 1.0
)

// Weights are the coefficients of the weighted sum.
type Weights struct {
	OfferingMatch     float64 `koanf:"offering_match"`
	SeekingMatch      float64 `koanf:"seeking_match"`
	CategoryMatch     float64 `koanf:"category_match"`
	RatingMultiplier  float64 `koanf:"rating_multiplier"`
	PerTrade          float64 `koanf:"per_trade"`
	ExperienceCap     float64 `koanf:"experience_cap"`
	ExpertBonus       float64 `koanf:"expert_bonus"`
	IntermediateBonus float64 `koanf:"intermediate_bonus"`
}

// DefaultWeights returns the production weights.
func DefaultWeights() Weights {
	return Weights{
		OfferingMatch:     defaultOfferingMatch,
		SeekingMatch:      defaultSeekingMatch,
		CategoryMatch:     defaultCategoryMatch,
		RatingMultiplier:  defaultRatingMultiplier,
		PerTrade:          defaultPerTrade,
		ExperienceCap:     defaultExperienceCap,
		ExpertBonus:       defaultExpertBonus,
		IntermediateBonus: defaultIntermediate,
	}
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithWeights replaces the default weights. Negative, NaN and infinite values
// are ignored field by field.
func WithWeights(w Weights) Option {
	return func(s *Scorer) {
		set := func(dst *float64, v float64) {
			if v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0) {
				*dst = v
			}
		}
		set(&s.weights.OfferingMatch, w.OfferingMatch)
		set(&s.weights.SeekingMatch, w.SeekingMatch)
		set(&s.weights.CategoryMatch, w.CategoryMatch)
		set(&s.weights.RatingMultiplier, w.RatingMultiplier)
		set(&s.weights.PerTrade, w.PerTrade)
		set(&s.weights.ExperienceCap, w.ExperienceCap)
		set(&s.weights.ExpertBonus, w.ExpertBonus)
		set(&s.weights.IntermediateBonus, w.IntermediateBonus)
	}
}

// Profile is the caller's side of the comparison.
type Profile struct {
	Offering   map[string]struct{}
	Seeking    map[string]struct{}
	Categories map[string]struct{}
}

// NewProfile partitions a caller's active declarations by type and collects
// the distinct categories across both.
func NewProfile(decls []model.SkillDeclaration) Profile {
	p := Profile{
		Offering:   make(map[string]struct{}),
		Seeking:    make(map[string]struct{}),
		Categories: make(map[string]struct{}),
	}
	for _, d := range decls {
		if !d.Active {
			continue
		}
		switch d.Type {
		case model.Offering:
			p.Offering[d.SkillName] = struct{}{}
		case model.Seeking:
			p.Seeking[d.SkillName] = struct{}{}
		default:
			continue
		}
		p.Categories[d.Category] = struct{}{}
	}
	return p
}

// Empty reports whether the profile gives no basis for matching.
func (p Profile) Empty() bool {
	return len(p.Offering) == 0 && len(p.Seeking) == 0 && len(p.Categories) == 0
}

// OfferingNames returns the offered skill names in sorted order.
func (p Profile) OfferingNames() []string { return sortedKeys(p.Offering) }

// SeekingNames returns the sought skill names in sorted order.
func (p Profile) SeekingNames() []string { return sortedKeys(p.Seeking) }

// CategoryNames returns the categories in sorted order.
func (p Profile) CategoryNames() []string { return sortedKeys(p.Categories) }

// OffersWhatCallerSeeks is true when the candidate offers a skill the caller seeks.
func (p Profile) OffersWhatCallerSeeks(d model.SkillDeclaration) bool {
	_, ok := p.Seeking[d.SkillName]
	return d.Type == model.Offering && ok
}

// SeeksWhatCallerOffers is true when the candidate seeks a skill the caller offers.
func (p Profile) SeeksWhatCallerOffers(d model.SkillDeclaration) bool {
	_, ok := p.Offering[d.SkillName]
	return d.Type == model.Seeking && ok
}

// SharesCategory is true when the candidate's skill is in one of the caller's categories.
func (p Profile) SharesCategory(d model.SkillDeclaration) bool {
	_, ok := p.Categories[d.Category]
	return ok
}

// Classify returns the highest-priority rule the declaration satisfies:
// offering, then seeking, then category. MatchNone means it does not qualify.
func (p Profile) Classify(d model.SkillDeclaration) model.MatchType {
	switch {
	case p.OffersWhatCallerSeeks(d):
		return model.MatchOffering
	case p.SeeksWhatCallerOffers(d):
		return model.MatchSeeking
	case p.SharesCategory(d):
		return model.MatchCategory
	default:
		return model.MatchNone
	}
}

// Scorer computes candidate scores. It holds only immutable weights and is
// safe for concurrent use.
type Scorer struct {
	weights Weights
}

// NewScorer creates a scorer with configuration options.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{weights: DefaultWeights()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Weights returns a copy of the active weights.
func (s *Scorer) Weights() Weights { return s.weights }

// Score returns the candidate's score and the match rule that applied.
// A candidate matching none of the rules scores 0 with MatchNone.
func (s *Scorer) Score(p Profile, c model.Candidate) (float64, model.MatchType) {
	match := p.Classify(c.Declaration)
	if match == model.MatchNone {
		return 0, match
	}
	score := s.MatchBonus(match) +
		s.ReputationBonus(c.Reputation) +
		s.ExperienceBonus(c.Reputation.CompletedTrades) +
		s.ProficiencyBonus(c.Declaration.Proficiency)
	return score, match
}

// MatchBonus is the bonus for the single match rule that applied.
func (s *Scorer) MatchBonus(m model.MatchType) float64 {
	switch m {
	case model.MatchOffering:
		return s.weights.OfferingMatch
	case model.MatchSeeking:
		return s.weights.SeekingMatch
	case model.MatchCategory:
		return s.weights.CategoryMatch
	default:
		return 0
	}
}

// ReputationBonus is rating × multiplier, 0 for unrated users.
func (s *Scorer) ReputationBonus(r model.UserReputation) float64 {
	return r.Rating() * s.weights.RatingMultiplier
}

// ExperienceBonus grows with completed trades up to the cap.
func (s *Scorer) ExperienceBonus(completedTrades int) float64 {
	if completedTrades <= 0 {
		return 0
	}
	return math.Min(float64(completedTrades)*s.weights.PerTrade, s.weights.ExperienceCap)
}

// ProficiencyBonus rewards expert and intermediate declarations.
func (s *Scorer) ProficiencyBonus(p model.Proficiency) float64 {
	switch p {
	case model.Expert:
		return s.weights.ExpertBonus
	case model.Intermediate:
		return s.weights.IntermediateBonus
	default:
		return 0
	}
}
