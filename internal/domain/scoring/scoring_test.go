package scoring_test

import (
	"math"
	"testing"

	"github.com/okian/skillswap/internal/domain/model"
	scoring "github.com/okian/skillswap/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func rating(v float64) *float64 { return &v }

func decl(userID int64, name, category string, t model.SkillType, p model.Proficiency) model.SkillDeclaration {
	return model.SkillDeclaration{
		UserID:      userID,
		SkillName:   name,
		Category:    category,
		Type:        t,
		Proficiency: p,
		Active:      true,
	}
}

func TestNewProfile(t *testing.T) {
	Convey("Given a caller's declarations", t, func() {
		decls := []model.SkillDeclaration{
			decl(1, "Python", "Programming", model.Offering, model.Expert),
			decl(1, "React Development", "Programming", model.Seeking, model.Beginner),
			decl(1, "Photography", "Arts", model.Seeking, model.Beginner),
			{UserID: 1, SkillName: "Guitar", Category: "Music", Type: model.Offering, Active: false},
		}

		Convey("When building the profile", func() {
			p := scoring.NewProfile(decls)

			Convey("Then skills are partitioned by type", func() {
				So(p.OfferingNames(), ShouldResemble, []string{"Python"})
				So(p.SeekingNames(), ShouldResemble, []string{"Photography", "React Development"})
			})

			Convey("And categories are the distinct set across both types", func() {
				So(p.CategoryNames(), ShouldResemble, []string{"Arts", "Programming"})
			})

			Convey("And inactive declarations are ignored", func() {
				So(p.OfferingNames(), ShouldNotContain, "Guitar")
				So(p.CategoryNames(), ShouldNotContain, "Music")
			})

			Convey("And the profile is not empty", func() {
				So(p.Empty(), ShouldBeFalse)
			})
		})

		Convey("When the caller declared nothing", func() {
			p := scoring.NewProfile(nil)

			Convey("Then the profile is empty", func() {
				So(p.Empty(), ShouldBeTrue)
				So(p.OfferingNames(), ShouldBeEmpty)
			})
		})
	})
}

func TestClassify(t *testing.T) {
	Convey("Given a caller who offers Python and seeks React Development", t, func() {
		p := scoring.NewProfile([]model.SkillDeclaration{
			decl(1, "Python", "Programming", model.Offering, model.Expert),
			decl(1, "React Development", "Programming", model.Seeking, model.Beginner),
		})

		Convey("A candidate offering React Development is an offering match", func() {
			So(p.Classify(decl(2, "React Development", "Programming", model.Offering, model.Expert)), ShouldEqual, model.MatchOffering)
		})

		Convey("A candidate seeking Python is a seeking match", func() {
			So(p.Classify(decl(2, "Python", "Programming", model.Seeking, model.Expert)), ShouldEqual, model.MatchSeeking)
		})

		Convey("A candidate seeking React Development only shares the category", func() {
			So(p.Classify(decl(2, "React Development", "Programming", model.Seeking, model.Expert)), ShouldEqual, model.MatchCategory)
		})

		Convey("A candidate offering Python only shares the category", func() {
			So(p.Classify(decl(2, "Python", "Programming", model.Offering, model.Expert)), ShouldEqual, model.MatchCategory)
		})

		Convey("An offering match outranks the category rule on the same declaration", func() {
			d := decl(2, "React Development", "Programming", model.Offering, model.Expert)
			So(p.OffersWhatCallerSeeks(d), ShouldBeTrue)
			So(p.SharesCategory(d), ShouldBeTrue)
			So(p.Classify(d), ShouldEqual, model.MatchOffering)
		})

		Convey("An unrelated declaration does not qualify", func() {
			So(p.Classify(decl(2, "Pottery", "Crafts", model.Offering, model.Expert)), ShouldEqual, model.MatchNone)
		})
	})
}

func TestScorer_Score(t *testing.T) {
	Convey("Given the default scorer and a caller seeking React Development", t, func() {
		s := scoring.NewScorer()
		p := scoring.NewProfile([]model.SkillDeclaration{
			decl(1, "React Development", "Programming", model.Seeking, model.Beginner),
		})

		Convey("When scoring an expert offering the sought skill with 4.8 rating and 23 trades", func() {
			c := model.Candidate{
				Declaration: decl(2, "React Development", "Programming", model.Offering, model.Expert),
				Reputation:  model.UserReputation{UserID: 2, AverageRating: rating(4.8), CompletedTrades: 23},
			}
			score, match := s.Score(p, c)

			Convey("Then the score is 10 + 9.6 + 10 + 2", func() {
				So(match, ShouldEqual, model.MatchOffering)
				So(score, ShouldAlmostEqual, 31.6, 1e-9)
			})
		})

		Convey("When scoring an intermediate who only shares the category", func() {
			c := model.Candidate{
				Declaration: decl(3, "Node.js", "Programming", model.Offering, model.Intermediate),
				Reputation:  model.UserReputation{UserID: 3, AverageRating: rating(4.0), CompletedTrades: 5},
			}
			score, match := s.Score(p, c)

			Convey("Then the score is 3 + 8 + 2.5 + 1", func() {
				So(match, ShouldEqual, model.MatchCategory)
				So(score, ShouldAlmostEqual, 14.5, 1e-9)
			})
		})

		Convey("When the candidate has no rating yet", func() {
			c := model.Candidate{
				Declaration: decl(4, "React Development", "Programming", model.Offering, model.Beginner),
				Reputation:  model.UserReputation{UserID: 4},
			}
			score, _ := s.Score(p, c)

			Convey("Then the reputation bonus is zero", func() {
				So(score, ShouldEqual, 10)
			})
		})

		Convey("When the candidate does not qualify", func() {
			c := model.Candidate{
				Declaration: decl(5, "Pottery", "Crafts", model.Offering, model.Expert),
				Reputation:  model.UserReputation{UserID: 5, AverageRating: rating(5), CompletedTrades: 40},
			}
			score, match := s.Score(p, c)

			Convey("Then it scores zero", func() {
				So(match, ShouldEqual, model.MatchNone)
				So(score, ShouldEqual, 0)
			})
		})
	})
}

func TestScorer_ExperienceMonotonic(t *testing.T) {
	Convey("Given the default scorer", t, func() {
		s := scoring.NewScorer()
		p := scoring.NewProfile([]model.SkillDeclaration{
			decl(1, "Python", "Programming", model.Offering, model.Expert),
		})
		base := model.Candidate{
			Declaration: decl(2, "Python", "Programming", model.Seeking, model.Intermediate),
			Reputation:  model.UserReputation{UserID: 2, AverageRating: rating(3.5)},
		}

		Convey("Increasing completed trades never decreases the score", func() {
			prev := math.Inf(-1)
			for trades := 0; trades <= 40; trades++ {
				c := base
				c.Reputation.CompletedTrades = trades
				score, _ := s.Score(p, c)
				So(score, ShouldBeGreaterThanOrEqualTo, prev)
				prev = score
			}
		})

		Convey("The experience bonus stops growing at the cap", func() {
			So(s.ExperienceBonus(20), ShouldEqual, 10)
			So(s.ExperienceBonus(200), ShouldEqual, 10)
			So(s.ExperienceBonus(19), ShouldEqual, 9.5)
			So(s.ExperienceBonus(-3), ShouldEqual, 0)
		})
	})
}

func TestScorer_ProficiencyBonus(t *testing.T) {
	Convey("Given the default scorer", t, func() {
		s := scoring.NewScorer()

		So(s.ProficiencyBonus(model.Expert), ShouldEqual, 2)
		So(s.ProficiencyBonus(model.Intermediate), ShouldEqual, 1)
		So(s.ProficiencyBonus(model.Beginner), ShouldEqual, 0)
		So(s.ProficiencyBonus(""), ShouldEqual, 0)
	})
}

func TestWithWeights(t *testing.T) {
	Convey("Given custom weights", t, func() {
		w := scoring.DefaultWeights()
		w.OfferingMatch = 20
		w.CategoryMatch = -1
		w.ExpertBonus = math.NaN()

		s := scoring.NewScorer(scoring.WithWeights(w))

		Convey("Then valid values replace the defaults", func() {
			So(s.Weights().OfferingMatch, ShouldEqual, 20)
		})

		Convey("And invalid values keep the defaults", func() {
			So(s.Weights().CategoryMatch, ShouldEqual, 3)
			So(s.Weights().ExpertBonus, ShouldEqual, 2)
		})
	})
}

func TestJaccard(t *testing.T) {
	Convey("Given two skill sets", t, func() {
		Convey("Identical sets have similarity 1", func() {
			So(scoring.Jaccard([]string{"a", "b"}, []string{"b", "a"}), ShouldEqual, 1)
		})

		Convey("Disjoint sets have similarity 0", func() {
			So(scoring.Jaccard([]string{"a"}, []string{"b"}), ShouldEqual, 0)
		})

		Convey("Partial overlap is intersection over union", func() {
			So(scoring.Jaccard([]string{"a", "b", "c"}, []string{"b", "c", "d"}), ShouldEqual, 0.5)
		})

		Convey("Duplicates are ignored", func() {
			So(scoring.Jaccard([]int64{1, 1, 2}, []int64{2, 2}), ShouldEqual, 0.5)
		})

		Convey("Two empty sets have similarity 0", func() {
			So(scoring.Jaccard[string](nil, nil), ShouldEqual, 0)
		})
	})
}
