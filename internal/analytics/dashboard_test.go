package analytics_test

import (
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/pragati/internal/analytics"
	"github.com/okian/pragati/internal/domain/calendar"
	"github.com/okian/pragati/internal/domain/model"
	"github.com/okian/pragati/internal/domain/types"
)

func TestLogActivity(t *testing.T) {
	Convey("Given the activity log", t, func() {
		f := newFixture(t)
		lesson := "c1"

		Convey("When entries are appended at different times", func() {
			So(f.engineAt(march(4, 9, 0)).LogActivity(f.ctx, "ravi", types.ActivityLessonStart, &lesson, "Started lesson: Using a mouse"), ShouldBeNil)
			So(f.engineAt(march(4, 9, 30)).LogActivity(f.ctx, "ravi", types.ActivityLessonComplete, &lesson, "Completed lesson: Using a mouse"), ShouldBeNil)
			So(f.engineAt(march(5, 9, 0)).LogActivity(f.ctx, "ravi", types.ActivityWeeklyGoal, nil, "Weekly goal reached"), ShouldBeNil)

			Convey("Then they are listed newest first", func() {
				entries, err := f.engineAt(march(6, 0, 0)).Activities(f.ctx, "ravi", 10)
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 3)
				So(entries[0].Type, ShouldEqual, types.ActivityWeeklyGoal)
				So(entries[0].LessonID, ShouldBeNil)
				So(entries[2].Type, ShouldEqual, types.ActivityLessonStart)
				So(entries[2].CreatedAt.Equal(march(4, 9, 0)), ShouldBeTrue)
			})

			Convey("Then aggregates are not touched", func() {
				weeks, err := f.store.ListWeekly(f.ctx, "ravi", 10)
				So(err, ShouldBeNil)
				So(weeks, ShouldBeEmpty)
			})
		})

		Convey("When the activity type is unknown", func() {
			err := f.engineAt(march(4, 9, 0)).LogActivity(f.ctx, "ravi", types.ActivityType("dance"), nil, "")

			Convey("Then it is rejected and nothing is stored", func() {
				So(errors.Is(err, analytics.ErrInvalidActivityType), ShouldBeTrue)
				entries, err := f.store.Activities(f.ctx, "ravi", 10)
				So(err, ShouldBeNil)
				So(entries, ShouldBeEmpty)
			})
		})
	})
}

func TestRefreshAll(t *testing.T) {
	Convey("Given a student who started a lesson today", t, func() {
		f := newFixture(t)
		f.complete("ravi", "c1", march(6, 9, 0), intp(90), durp(30*time.Minute))
		engine := f.engineAt(march(6, 12, 0))

		Convey("When everything is refreshed", func() {
			err := engine.RefreshAll(f.ctx, "ravi")
			So(err, ShouldBeNil)

			Convey("Then the week, month and subjects are stored", func() {
				weeks, err := f.store.ListWeekly(f.ctx, "ravi", 10)
				So(err, ShouldBeNil)
				So(len(weeks), ShouldEqual, 1)
				So(weeks[0].WeekStart, ShouldEqual, calendar.NewDate(2024, time.March, 4))
				So(weeks[0].LessonsCompleted, ShouldEqual, 1)

				months, err := f.store.LatestMonthly(f.ctx, "ravi", 10)
				So(err, ShouldBeNil)
				So(len(months), ShouldEqual, 1)
				So(months[0].Month, ShouldEqual, 3)

				subjects, err := f.store.ListSubjects(f.ctx, "ravi")
				So(err, ShouldBeNil)
				So(len(subjects), ShouldEqual, len(types.LessonTypes()))
			})

			Convey("Then today's streak counts the activity", func() {
				rec := f.streakOn("ravi", calendar.NewDate(2024, time.March, 6))
				So(rec, ShouldNotBeNil)
				So(rec.LessonsCompleted, ShouldEqual, 1)
				So(rec.StreakCount, ShouldEqual, 1)
				So(rec.TimeSpent, ShouldEqual, 30*time.Minute)
			})
		})
	})

	Convey("Given a student with no progress today", t, func() {
		f := newFixture(t)
		f.complete("ravi", "c1", march(4, 9, 0), intp(90), nil)

		Convey("When everything is refreshed", func() {
			err := f.engineAt(march(6, 12, 0)).RefreshAll(f.ctx, "ravi")

			Convey("Then no streak record is created", func() {
				So(err, ShouldBeNil)
				So(f.streakOn("ravi", calendar.NewDate(2024, time.March, 6)), ShouldBeNil)
			})
		})
	})
}

func TestProgressChart(t *testing.T) {
	Convey("Given stored weekly and monthly aggregates", t, func() {
		f := newFixture(t)
		for _, w := range []model.WeeklyRecord{
			{StudentID: "ravi", WeekStart: calendar.NewDate(2024, time.January, 1), LessonsCompleted: 9},
			{StudentID: "ravi", WeekStart: calendar.NewDate(2024, time.February, 26), LessonsCompleted: 2, TotalTimeSpent: 30 * time.Minute, AverageScore: 70},
			{StudentID: "ravi", WeekStart: calendar.NewDate(2024, time.March, 4), LessonsCompleted: 3, TotalTimeSpent: 90 * time.Minute, AverageScore: 80},
		} {
			rec := w
			So(f.store.UpsertWeekly(f.ctx, &rec), ShouldBeNil)
		}
		for i := 0; i < 7; i++ {
			month := time.Date(2023, time.September+time.Month(i), 1, 0, 0, 0, 0, time.UTC)
			rec := model.MonthlyRecord{
				StudentID:        "ravi",
				Year:             month.Year(),
				Month:            int(month.Month()),
				LessonsCompleted: i,
				TotalTimeSpent:   time.Duration(i) * time.Hour,
				MaxStreak:        i + 1,
			}
			So(f.store.UpsertMonthly(f.ctx, &rec), ShouldBeNil)
		}
		engine := f.engineAt(march(6, 12, 0))

		Convey("When the weekly chart is requested", func() {
			chart, err := engine.ProgressChart(f.ctx, "ravi", types.PeriodWeek)

			Convey("Then only the last eight weeks appear, oldest first", func() {
				So(err, ShouldBeNil)
				So(chart.Labels, ShouldResemble, []string{"Week of 02/26", "Week of 03/04"})
				So(chart.Lessons, ShouldResemble, []int{2, 3})
				So(chart.Hours, ShouldResemble, []float64{0.5, 1.5})
				So(chart.Scores, ShouldResemble, []float64{70, 80})
				So(chart.Streaks, ShouldBeNil)
			})
		})

		Convey("When the monthly chart is requested", func() {
			chart, err := engine.ProgressChart(f.ctx, "ravi", types.PeriodMonth)

			Convey("Then the latest six months appear chronologically", func() {
				So(err, ShouldBeNil)
				So(chart.Labels, ShouldResemble, []string{"2023/10", "2023/11", "2023/12", "2024/01", "2024/02", "2024/03"})
				So(chart.Lessons, ShouldResemble, []int{1, 2, 3, 4, 5, 6})
				So(chart.Hours[5], ShouldEqual, 6.0)
				So(chart.Streaks, ShouldResemble, []int{2, 3, 4, 5, 6, 7})
			})
		})

		Convey("When an unknown period is requested", func() {
			_, err := engine.ProgressChart(f.ctx, "ravi", types.ChartPeriod("year"))

			Convey("Then it is rejected", func() {
				So(errors.Is(err, analytics.ErrInvalidPeriod), ShouldBeTrue)
			})
		})
	})
}

func TestSubjectChart(t *testing.T) {
	Convey("Given stored subject aggregates", t, func() {
		f := newFixture(t)
		for _, s := range []model.SubjectPerformanceRecord{
			{StudentID: "ravi", LessonType: types.LessonComputer, TotalLessons: 4, CompletedLessons: 1, AverageScore: 75, TotalTimeSpent: 45 * time.Minute},
			{StudentID: "ravi", LessonType: types.LessonSafety},
		} {
			rec := s
			So(f.store.UpsertSubject(f.ctx, &rec), ShouldBeNil)
		}

		Convey("When the subject chart is requested", func() {
			chart, err := f.engineAt(march(6, 12, 0)).SubjectChart(f.ctx, "ravi")

			Convey("Then subjects are labelled with percentages and hours", func() {
				So(err, ShouldBeNil)
				So(chart.Subjects, ShouldResemble, []string{"Computer Basics", "Digital Safety"})
				So(chart.Completion, ShouldResemble, []float64{25, 0})
				So(chart.Scores, ShouldResemble, []float64{75, 0})
				So(chart.Hours, ShouldResemble, []float64{0.75, 0})
			})
		})
	})
}

func TestCalendar(t *testing.T) {
	Convey("Given activities across two months", t, func() {
		f := newFixture(t)
		lesson := "c1"
		So(f.engineAt(march(5, 9, 15)).LogActivity(f.ctx, "ravi", types.ActivityLessonStart, &lesson, "Started lesson: Using a mouse"), ShouldBeNil)
		So(f.engineAt(march(5, 10, 0)).LogActivity(f.ctx, "ravi", types.ActivityLessonComplete, &lesson, "Completed lesson: Using a mouse"), ShouldBeNil)
		So(f.engineAt(march(20, 18, 45)).LogActivity(f.ctx, "ravi", types.ActivityWeeklyGoal, nil, "Weekly goal reached"), ShouldBeNil)
		So(f.engineAt(time.Date(2024, time.April, 1, 8, 0, 0, 0, time.UTC)).LogActivity(f.ctx, "ravi", types.ActivityQuizAttempt, &lesson, "Attempted quiz for: Using a mouse"), ShouldBeNil)
		engine := f.engineAt(march(25, 12, 0))

		Convey("When March is requested", func() {
			cal, err := engine.Calendar(f.ctx, "ravi", 2024, 3)

			Convey("Then activities are grouped by day in order", func() {
				So(err, ShouldBeNil)
				So(len(cal), ShouldEqual, 2)
				So(len(cal[5]), ShouldEqual, 2)
				So(cal[5][0].Time, ShouldEqual, "09:15")
				So(cal[5][1].Type, ShouldEqual, types.ActivityLessonComplete)
				So(*cal[5][1].Lesson, ShouldEqual, "Using a mouse")
				So(cal[20][0].Time, ShouldEqual, "18:45")
				So(cal[20][0].Lesson, ShouldBeNil)
			})
		})

		Convey("When the calendar is read in India time", func() {
			ist := time.FixedZone("IST", 5*3600+1800)
			cal, err := f.engineAt(march(25, 12, 0), analytics.WithLocation(ist)).Calendar(f.ctx, "ravi", 2024, 3)

			Convey("Then days and times follow the zone", func() {
				So(err, ShouldBeNil)
				So(cal[5][0].Time, ShouldEqual, "14:45")
				So(cal[21][0].Time, ShouldEqual, "00:15")
			})
		})

		Convey("When the month is invalid", func() {
			_, err := engine.Calendar(f.ctx, "ravi", 2024, 0)

			Convey("Then it is rejected", func() {
				So(errors.Is(err, analytics.ErrInvalidMonth), ShouldBeTrue)
			})
		})
	})
}
