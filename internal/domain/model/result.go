package model

// MatchType records which complementarity rule qualified a candidate.
type MatchType string

// Match types in priority order.
const (
	MatchOffering MatchType = "offering"
	MatchSeeking  MatchType = "seeking"
	MatchCategory MatchType = "category"
	MatchNone     MatchType = ""
)

// CandidateMatch is one ranked recommendation. It lives for one call only.
type CandidateMatch struct {
	UserID      int64          `json:"user_id"`
	Username    string         `json:"username,omitempty"`
	FullName    string         `json:"full_name,omitempty"`
	SkillID     int64          `json:"skill_id"`
	SkillName   string         `json:"skill_name"`
	Category    string         `json:"category"`
	SkillType   SkillType      `json:"skill_type"`
	Proficiency Proficiency    `json:"proficiency_level"`
	MatchType   MatchType      `json:"match_type"`
	Reputation  UserReputation `json:"reputation"`
	Score       float64        `json:"score"`
}

// SkillTrendFact is the raw per-skill activity a provider reports.
type SkillTrendFact struct {
	SkillID    int64  `json:"skill_id"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	UserCount  int    `json:"user_count"`
	TradeCount int    `json:"trade_count"`
}

// TrendingSkill is a SkillTrendFact with its computed trend score.
type TrendingSkill struct {
	SkillTrendFact
	TrendScore float64 `json:"trend_score"`
}
