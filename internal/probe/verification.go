package probe

import (
	"fmt"
	"slices"

	"github.com/okian/skillswap/internal/domain/scoring"
)

// verifyRecommendations checks one response of userID requested with limit.
func verifyRecommendations(userID int64, limit int, resp RecommendationsResponse) []string {
	var out []string
	recs := resp.Recommendations

	if want := max(limit, 1); len(recs) > want {
		out = append(out, fmt.Sprintf("user %d: %d recommendations exceed limit %d", userID, len(recs), want))
	}
	if len(recs) == 0 && resp.Message == nil {
		out = append(out, fmt.Sprintf("user %d: empty list without a message", userID))
	}
	if len(recs) > 0 && resp.Message != nil {
		out = append(out, fmt.Sprintf("user %d: message set on a non-empty list", userID))
	}

	seen := make(map[int64]struct{}, len(recs))
	for i, r := range recs {
		if r.UserID == userID {
			out = append(out, fmt.Sprintf("user %d: recommended to themselves", userID))
		}
		if _, dup := seen[r.UserID]; dup {
			out = append(out, fmt.Sprintf("user %d: candidate %d appears twice", userID, r.UserID))
		}
		seen[r.UserID] = struct{}{}
		if i > 0 && r.Score > recs[i-1].Score {
			out = append(out, fmt.Sprintf("user %d: score rises at position %d (%.3f > %.3f)", userID, i, r.Score, recs[i-1].Score))
		}
	}
	return out
}

// verifyTrending checks the trending list ordering and size.
func verifyTrending(limit int, resp TrendingResponse) []string {
	var out []string
	skills := resp.TrendingSkills

	if want := max(limit, 1); len(skills) > want {
		out = append(out, fmt.Sprintf("trending: %d skills exceed limit %d", len(skills), want))
	}
	seen := make(map[int64]struct{}, len(skills))
	for i, s := range skills {
		if _, dup := seen[s.SkillID]; dup {
			out = append(out, fmt.Sprintf("trending: skill %d appears twice", s.SkillID))
		}
		seen[s.SkillID] = struct{}{}
		if i == 0 {
			continue
		}
		prev := skills[i-1]
		switch {
		case s.TrendScore > prev.TrendScore:
			out = append(out, fmt.Sprintf("trending: score rises at position %d", i))
		case s.TrendScore == prev.TrendScore && s.SkillID < prev.SkillID:
			out = append(out, fmt.Sprintf("trending: tie at position %d not ordered by skill id", i))
		}
	}
	return out
}

// verifyStable compares every round of one user against the first. Rankings
// are deterministic while the data is unchanged.
func verifyStable(userID int64, rounds [][]Recommendation) []string {
	if len(rounds) < 2 {
		return nil
	}
	var out []string
	first := candidateIDs(rounds[0])
	for i, round := range rounds[1:] {
		ids := candidateIDs(round)
		if len(first) == 0 && len(ids) == 0 {
			continue
		}
		if sim := scoring.Jaccard(first, ids); sim < 1 {
			out = append(out, fmt.Sprintf("user %d: round %d differs from round 0 (jaccard %.2f)", userID, i+1, sim))
			continue
		}
		if !slices.Equal(first, ids) {
			out = append(out, fmt.Sprintf("user %d: round %d reorders round 0", userID, i+1))
		}
	}
	return out
}

func candidateIDs(recs []Recommendation) []int64 {
	ids := make([]int64, len(recs))
	for i, r := range recs {
		ids[i] = r.UserID
	}
	return ids
}
