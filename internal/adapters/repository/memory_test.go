package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/skillswap/internal/domain/errs"
	"github.com/okian/skillswap/internal/domain/model"
	"github.com/okian/skillswap/internal/domain/recommend"
	. "github.com/smartystreets/goconvey/convey"
)

const fixtureYAML = `
users:
  - {id: 1, username: alice, email: alice@example.com, full_name: Alice, role: user, is_active: true}
  - {id: 2, username: bob, email: bob@example.com, full_name: Bob, role: user, is_active: true}
  - {id: 3, username: carol, email: carol@example.com, full_name: Carol, role: admin, is_active: true}
  - {id: 4, username: dave, email: dave@example.com, full_name: Dave, is_active: false}
  - {id: 5, username: erin, email: erin@example.com, full_name: Erin, is_active: true}
skills:
  - {id: 10, name: React Development, category: Programming, is_active: true}
  - {id: 11, name: Node.js, category: Programming, is_active: true}
  - {id: 12, name: Photography, category: Arts, is_active: true}
  - {id: 13, name: Knitting, category: Crafts, is_active: false}
user_skills:
  - {id: 100, user_id: 1, skill_id: 10, skill_type: seeking, proficiency_level: beginner, is_active: true}
  - {id: 101, user_id: 1, skill_id: 12, skill_type: offering, proficiency_level: expert, is_active: false}
  - {id: 102, user_id: 2, skill_id: 10, skill_type: offering, proficiency_level: expert, is_active: true}
  - {id: 103, user_id: 3, skill_id: 11, skill_type: offering, proficiency_level: intermediate, is_active: true}
  - {id: 104, user_id: 4, skill_id: 10, skill_type: offering, proficiency_level: expert, is_active: true}
  - {id: 105, user_id: 5, skill_id: 12, skill_type: offering, proficiency_level: expert, is_active: true}
  - {id: 106, user_id: 5, skill_id: 13, skill_type: offering, proficiency_level: expert, is_active: true}
trades:
  - {id: 1, requester_id: 1, provider_id: 2, requester_skill_id: 100, provider_skill_id: 102, status: completed, created_at: 2026-03-20T10:00:00Z}
  - {id: 2, requester_id: 3, provider_id: 2, requester_skill_id: 103, provider_skill_id: 102, status: completed, created_at: 2026-03-01T00:00:00Z}
  - {id: 3, requester_id: 3, provider_id: 5, requester_skill_id: 103, provider_skill_id: 105, status: pending, created_at: 2026-02-28T23:59:59Z}
  - {id: 4, requester_id: 5, provider_id: 3, requester_skill_id: 105, provider_skill_id: 103, status: completed, created_at: 2026-03-31T00:00:00Z}
reviews:
  - {id: 1, reviewee_id: 2, rating: 5}
  - {id: 2, reviewee_id: 2, rating: 4.6}
  - {id: 3, reviewee_id: 3, rating: 4}
`

func writeFixture(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func newFixtureStore(t *testing.T) *MemoryStore {
	t.Helper()
	f, err := LoadFixtures(writeFixture(t, fixtureYAML))
	if err != nil {
		t.Fatalf("load fixtures: %v", err)
	}
	s, err := NewMemoryStore(f)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func TestMemoryStore_LookupUser(t *testing.T) {
	Convey("Given a fixture store", t, func() {
		s := newFixtureStore(t)
		ctx := context.Background()

		Convey("Known users are returned with their role", func() {
			u, err := s.LookupUser(ctx, 3)
			So(err, ShouldBeNil)
			So(u.Username, ShouldEqual, "carol")
			So(u.IsAdmin(), ShouldBeTrue)
		})

		Convey("A missing role defaults to user", func() {
			u, err := s.LookupUser(ctx, 4)
			So(err, ShouldBeNil)
			So(u.Role, ShouldEqual, model.RoleUser)
			So(u.Active, ShouldBeFalse)
		})

		Convey("Unknown users are NotFound", func() {
			_, err := s.LookupUser(ctx, 42)
			So(errors.Is(err, errs.ErrNotFound), ShouldBeTrue)
		})

		Convey("A cancelled context is a dependency failure", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := s.LookupUser(cctx, 1)
			So(errors.Is(err, errs.ErrDependency), ShouldBeTrue)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})

		Convey("Counts reflect the fixture", func() {
			users, skills, decls := s.Counts()
			So(users, ShouldEqual, 5)
			So(skills, ShouldEqual, 4)
			So(decls, ShouldEqual, 7)
		})
	})
}

func TestMemoryStore_ActiveSkillDeclarations(t *testing.T) {
	Convey("Given a user with one active and one inactive declaration", t, func() {
		s := newFixtureStore(t)

		decls, err := s.ActiveSkillDeclarations(context.Background(), 1)

		Convey("Only the active one is returned", func() {
			So(err, ShouldBeNil)
			So(decls, ShouldHaveLength, 1)
			So(decls[0].SkillName, ShouldEqual, "React Development")
			So(decls[0].Type, ShouldEqual, model.Seeking)
			So(decls[0].Proficiency, ShouldEqual, model.Beginner)
		})
	})
}

func TestMemoryStore_CandidateDeclarations(t *testing.T) {
	Convey("Given a caller seeking React Development", t, func() {
		s := newFixtureStore(t)
		q := recommend.CandidateQuery{
			ExcludeUserID: 1,
			SeekingNames:  []string{"React Development"},
			Categories:    []string{"Programming"},
			PrefetchLimit: 20,
		}

		got, err := s.CandidateDeclarations(context.Background(), q)

		Convey("Then complementary declarations of other active users are returned", func() {
			So(err, ShouldBeNil)
			So(got, ShouldHaveLength, 2)
			for _, c := range got {
				So(c.Declaration.UserID, ShouldNotEqual, 1)
				So(c.Declaration.UserID, ShouldNotEqual, 4)
			}
		})

		Convey("And they are ordered by rating desc", func() {
			So(got[0].Declaration.UserID, ShouldEqual, 2)
			So(*got[0].Reputation.AverageRating, ShouldAlmostEqual, 4.8, 1e-9)
			So(got[0].Reputation.CompletedTrades, ShouldEqual, 2)
			So(got[0].Declaration.Username, ShouldEqual, "bob")
			So(got[1].Declaration.UserID, ShouldEqual, 3)
			So(got[1].Reputation.CompletedTrades, ShouldEqual, 2)
		})

		Convey("And the prefetch limit caps the rows", func() {
			q.PrefetchLimit = 1
			limited, err := s.CandidateDeclarations(context.Background(), q)
			So(err, ShouldBeNil)
			So(limited, ShouldHaveLength, 1)
			So(limited[0].Declaration.UserID, ShouldEqual, 2)
		})
	})

	Convey("Given unrated candidates", t, func() {
		s := newFixtureStore(t)
		got, err := s.CandidateDeclarations(context.Background(), recommend.CandidateQuery{
			ExcludeUserID: 1,
			Categories:    []string{"Arts", "Programming"},
			PrefetchLimit: 20,
		})

		Convey("They sort after rated ones and carry a nil rating", func() {
			So(err, ShouldBeNil)
			So(got, ShouldHaveLength, 3)
			last := got[len(got)-1]
			So(last.Declaration.UserID, ShouldEqual, 5)
			So(last.Reputation.AverageRating, ShouldBeNil)
		})
	})
}

func TestMemoryStore_SkillTrendFacts(t *testing.T) {
	Convey("Given trades around the window edges", t, func() {
		s := newFixtureStore(t)
		end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
		w := recommend.Window{Start: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), End: end}

		facts, err := s.SkillTrendFacts(context.Background(), w)
		So(err, ShouldBeNil)

		byID := make(map[int64]model.SkillTrendFact)
		for _, f := range facts {
			byID[f.SkillID] = f
		}

		Convey("Inactive skills are excluded", func() {
			_, ok := byID[13]
			So(ok, ShouldBeFalse)
			So(facts, ShouldHaveLength, 3)
		})

		Convey("User counts include every active declaration", func() {
			So(byID[10].UserCount, ShouldEqual, 3)
			So(byID[11].UserCount, ShouldEqual, 1)
			So(byID[12].UserCount, ShouldEqual, 1)
		})

		Convey("The start is inclusive and the end exclusive", func() {
			So(byID[10].TradeCount, ShouldEqual, 3)
			So(byID[11].TradeCount, ShouldEqual, 1)
			So(byID[12].TradeCount, ShouldEqual, 0)
		})

		Convey("Facts are ordered by skill id", func() {
			So(facts[0].SkillID, ShouldEqual, 10)
			So(facts[2].SkillID, ShouldEqual, 12)
		})
	})
}

func TestMemoryStore_Replace(t *testing.T) {
	Convey("Given a running store", t, func() {
		s := newFixtureStore(t)

		Convey("An invalid fixture is rejected and the old data keeps serving", func() {
			err := s.Replace(Fixtures{
				UserSkills: []FixtureUserSkill{{ID: 1, UserID: 99, SkillID: 1, SkillType: "offering"}},
			})
			So(errors.Is(err, ErrInvalidFixture), ShouldBeTrue)
			_, err = s.LookupUser(context.Background(), 1)
			So(err, ShouldBeNil)
		})

		Convey("A valid fixture replaces the data", func() {
			err := s.Replace(Fixtures{Users: []FixtureUser{{ID: 77, Username: "zed", Active: true}}})
			So(err, ShouldBeNil)
			_, err = s.LookupUser(context.Background(), 1)
			So(errors.Is(err, errs.ErrNotFound), ShouldBeTrue)
			u, err := s.LookupUser(context.Background(), 77)
			So(err, ShouldBeNil)
			So(u.Username, ShouldEqual, "zed")
		})
	})
}

func TestLoadFixtures(t *testing.T) {
	Convey("Given fixture files", t, func() {
		Convey("A missing file is an error", func() {
			_, err := LoadFixtures(filepath.Join(t.TempDir(), "missing.yaml"))
			So(err, ShouldNotBeNil)
		})

		Convey("Malformed YAML is an invalid fixture", func() {
			_, err := LoadFixtures(writeFixture(t, "users: [ {id: 1"))
			So(errors.Is(err, ErrInvalidFixture), ShouldBeTrue)
		})

		Convey("An unknown skill type is rejected", func() {
			f := Fixtures{
				Users:      []FixtureUser{{ID: 1}},
				Skills:     []FixtureSkill{{ID: 1}},
				UserSkills: []FixtureUserSkill{{ID: 1, UserID: 1, SkillID: 1, SkillType: "lending"}},
			}
			_, err := NewMemoryStore(f)
			So(errors.Is(err, ErrInvalidFixture), ShouldBeTrue)
		})

		Convey("A rating out of range is rejected", func() {
			_, err := NewMemoryStore(Fixtures{Reviews: []FixtureReview{{ID: 1, RevieweeID: 1, Rating: 6}}})
			So(errors.Is(err, ErrInvalidFixture), ShouldBeTrue)
		})
	})
}
