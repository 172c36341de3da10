package probe

import "time"

// Config holds configuration for a probe run.
type Config struct {
	BaseURL string        // Base URL of the service
	Secret  string        // JWT secret used to mint an admin token
	AdminID int64         // Active admin account the token is issued for
	UserIDs []int64       // Users whose recommendations are checked
	Rounds  int           // Times each user is queried
	Limit   int           // Recommendation limit requested
	Workers int           // Number of concurrent requests
	Timeout time.Duration // HTTP request timeout
	Verbose bool          // Log every response
}

// Recommendation is the subset of a candidate match the probe checks.
type Recommendation struct {
	UserID    int64   `json:"user_id"`
	SkillID   int64   `json:"skill_id"`
	SkillName string  `json:"skill_name"`
	MatchType string  `json:"match_type"`
	Score     float64 `json:"score"`
}

// RecommendationsResponse mirrors GET /api/v1/recommendations/{userId}.
type RecommendationsResponse struct {
	Recommendations []Recommendation `json:"recommendations"`
	Message         *string          `json:"message"`
}

// TrendingSkill is the subset of a trending entry the probe checks.
type TrendingSkill struct {
	SkillID    int64   `json:"skill_id"`
	Name       string  `json:"name"`
	TrendScore float64 `json:"trend_score"`
}

// TrendingResponse mirrors GET /api/v1/recommendations/trending.
type TrendingResponse struct {
	TrendingSkills []TrendingSkill `json:"trendingSkills"`
}

// Report summarises a run.
type Report struct {
	Requests   int
	Failures   int
	Violations []string
	StartTime  time.Time
	Duration   time.Duration
}

// OK reports whether the run saw no failures or violations.
func (r *Report) OK() bool {
	return r.Failures == 0 && len(r.Violations) == 0
}
