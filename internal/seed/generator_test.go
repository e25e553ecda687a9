package seed

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func lessonSequence(p *Plan, studentID string) []string {
	var out []string
	for _, e := range p.Events[studentID] {
		out = append(out, e.Path+" "+e.LessonID)
	}
	return out
}

func TestGenerate(t *testing.T) {
	Convey("Given a seed configuration", t, func() {
		now := time.Date(2024, time.March, 6, 12, 0, 0, 0, time.UTC)
		cfg := &Config{Students: 6, LessonsPerType: 3, Days: 10, Activity: 0.7, QuizRate: 0.5, Seed: 42}
		p := Generate(cfg, now)

		Convey("Then the catalog covers every lesson type", func() {
			So(len(p.Lessons), ShouldEqual, 15)
			types := map[string]int{}
			for _, l := range p.Lessons {
				types[l.LessonType]++
			}
			So(len(types), ShouldEqual, 5)
		})

		Convey("And every third student is a walk-in", func() {
			So(len(p.Students), ShouldEqual, 6)
			So(len(p.Parents), ShouldEqual, 4)
			So(p.Students[2].ParentID, ShouldBeNil)
			So(p.Students[5].ParentID, ShouldBeNil)
			So(*p.Students[0].ParentID, ShouldEqual, p.Parents[0].ID)
		})

		Convey("And each completion follows the start of the same lesson", func() {
			total := 0
			for _, st := range p.Students {
				started := map[string]bool{}
				completed := map[string]bool{}
				completions := 0
				for _, e := range p.Events[st.ID] {
					total++
					So(e.StudentID, ShouldEqual, st.ID)
					ts, err := time.Parse(time.RFC3339, e.TS)
					So(err, ShouldBeNil)
					So(ts.After(now), ShouldBeFalse)
					switch {
					case e.Path == "/quiz-attempts":
						So(completed[e.LessonID], ShouldBeTrue)
					case e.Completed:
						So(started[e.LessonID], ShouldBeTrue)
						So(completed[e.LessonID], ShouldBeFalse)
						So(*e.Score, ShouldBeBetweenOrEqual, 40, 100)
						completed[e.LessonID] = true
						completions++
					default:
						So(started[e.LessonID], ShouldBeFalse)
						started[e.LessonID] = true
					}
				}
				So(p.Completions[st.ID], ShouldEqual, completions)
			}
			So(p.Total(), ShouldEqual, total)
		})

		Convey("And the same seed gives the same plan", func() {
			again := Generate(cfg, now)
			for _, st := range p.Students {
				So(lessonSequence(again, st.ID), ShouldResemble, lessonSequence(p, st.ID))
			}
		})

		Convey("And no activity means no events", func() {
			idle := Generate(&Config{Students: 2, LessonsPerType: 1, Days: 5, Activity: 0, Seed: 1}, now)
			So(idle.Total(), ShouldEqual, 0)
		})
	})
}
