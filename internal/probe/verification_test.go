package probe

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func recs(pairs ...float64) []Recommendation {
	out := make([]Recommendation, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, Recommendation{UserID: int64(pairs[i]), Score: pairs[i+1]})
	}
	return out
}

func TestVerifyRecommendations(t *testing.T) {
	Convey("Given recommendation responses for user 1", t, func() {
		msg := "No recommendations available yet. Complete your profile and start trading!"

		Convey("A well formed list passes", func() {
			So(verifyRecommendations(1, 5, RecommendationsResponse{Recommendations: recs(2, 31.6, 3, 14.5)}), ShouldBeEmpty)
		})

		Convey("An empty list with the hint passes", func() {
			So(verifyRecommendations(1, 5, RecommendationsResponse{Message: &msg}), ShouldBeEmpty)
		})

		Convey("An empty list without the hint is flagged", func() {
			So(verifyRecommendations(1, 5, RecommendationsResponse{}), ShouldHaveLength, 1)
		})

		Convey("A non-positive limit allows a single entry", func() {
			So(verifyRecommendations(1, 0, RecommendationsResponse{Recommendations: recs(2, 3)}), ShouldBeEmpty)
			So(verifyRecommendations(1, 0, RecommendationsResponse{Recommendations: recs(2, 3, 3, 2)}), ShouldHaveLength, 1)
		})

		Convey("Self matches, duplicates and rising scores are each flagged", func() {
			v := verifyRecommendations(1, 5, RecommendationsResponse{Recommendations: recs(2, 10, 1, 9, 2, 8, 4, 12)})
			So(v, ShouldHaveLength, 3)
		})
	})
}

func TestVerifyTrending(t *testing.T) {
	Convey("Given trending responses", t, func() {
		Convey("Ties ordered by skill id pass", func() {
			resp := TrendingResponse{TrendingSkills: []TrendingSkill{
				{SkillID: 2, TrendScore: 8.6}, {SkillID: 1, TrendScore: 8}, {SkillID: 3, TrendScore: 8},
			}}
			So(verifyTrending(10, resp), ShouldBeEmpty)
		})

		Convey("A tie out of id order and an oversized list are flagged", func() {
			resp := TrendingResponse{TrendingSkills: []TrendingSkill{
				{SkillID: 3, TrendScore: 8}, {SkillID: 1, TrendScore: 8},
			}}
			So(verifyTrending(1, resp), ShouldHaveLength, 2)
		})
	})
}

func TestVerifyStable(t *testing.T) {
	Convey("Given several rounds for one user", t, func() {
		Convey("Identical rounds pass", func() {
			So(verifyStable(1, [][]Recommendation{recs(2, 5, 3, 4), recs(2, 5, 3, 4)}), ShouldBeEmpty)
		})

		Convey("Empty rounds pass", func() {
			So(verifyStable(1, [][]Recommendation{nil, {}}), ShouldBeEmpty)
		})

		Convey("A different candidate set is flagged", func() {
			v := verifyStable(1, [][]Recommendation{recs(2, 5, 3, 4), recs(2, 5, 4, 4)})
			So(v, ShouldHaveLength, 1)
			So(v[0], ShouldContainSubstring, "jaccard 0.33")
		})

		Convey("A reordering is flagged", func() {
			v := verifyStable(1, [][]Recommendation{recs(2, 5, 3, 5), recs(3, 5, 2, 5)})
			So(v, ShouldHaveLength, 1)
			So(v[0], ShouldContainSubstring, "reorders")
		})
	})
}

func TestParseUserIDs(t *testing.T) {
	Convey("User id lists are parsed", t, func() {
		ids, err := ParseUserIDs(" 1, 2,,3 ")
		So(err, ShouldBeNil)
		So(ids, ShouldResemble, []int64{1, 2, 3})

		_, err = ParseUserIDs("1,x")
		So(err, ShouldNotBeNil)

		_, err = ParseUserIDs("0")
		So(err, ShouldNotBeNil)

		_, err = ParseUserIDs("")
		So(err, ShouldEqual, ErrNoUsers)
	})
}
