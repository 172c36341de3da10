// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
)

// SkillType says whether a user offers or seeks a skill.
type SkillType string

// Skill types.
const (
	Offering SkillType = "offering"
	Seeking  SkillType = "seeking"
)

// ParseSkillType accepts "offering" or "seeking" (case-insensitive).
func ParseSkillType(s string) (SkillType, error) {
	switch t := SkillType(strings.ToLower(strings.TrimSpace(s))); t {
	case Offering, Seeking:
		return t, nil
	default:
		return "", fmt.Errorf("unknown skill type %q", s)
	}
}

// Proficiency is the self-declared level for a skill.
type Proficiency string

// Proficiency levels.
const (
	Beginner     Proficiency = "beginner"
	Intermediate Proficiency = "intermediate"
	Expert       Proficiency = "expert"
)

// ParseProficiency accepts beginner, intermediate or expert (case-insensitive).
func ParseProficiency(s string) (Proficiency, error) {
	switch p := Proficiency(strings.ToLower(strings.TrimSpace(s))); p {
	case Beginner, Intermediate, Expert:
		return p, nil
	default:
		return "", fmt.Errorf("unknown proficiency %q", s)
	}
}

// SkillDeclaration is one user's stance on one skill.
type SkillDeclaration struct {
	UserID      int64       `json:"user_id"`
	Username    string      `json:"username,omitempty"`
	FullName    string      `json:"full_name,omitempty"`
	SkillID     int64       `json:"skill_id"`
	SkillName   string      `json:"skill_name"`
	Category    string      `json:"category"`
	Type        SkillType   `json:"skill_type"`
	Proficiency Proficiency `json:"proficiency_level"`
	Active      bool        `json:"is_active"`
}

// UserReputation is a point-in-time snapshot of a user's standing.
// AverageRating is nil when the user has not been reviewed yet.
type UserReputation struct {
	UserID          int64    `json:"user_id"`
	AverageRating   *float64 `json:"average_rating"`
	CompletedTrades int      `json:"completed_trades"`
}

// Rating returns the average rating, or 0 when there is none.
func (r UserReputation) Rating() float64 {
	if r.AverageRating == nil {
		return 0
	}
	return *r.AverageRating
}

// Candidate pairs a declaration of another user with that user's reputation.
type Candidate struct {
	Declaration SkillDeclaration
	Reputation  UserReputation
}
