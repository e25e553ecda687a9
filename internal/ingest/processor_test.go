package ingest_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/pragati/internal/adapters/repository"
	"github.com/okian/pragati/internal/adapters/repository/repotest"
	"github.com/okian/pragati/internal/analytics"
	"github.com/okian/pragati/internal/domain/calendar"
	"github.com/okian/pragati/internal/domain/model"
	"github.com/okian/pragati/internal/domain/types"
	"github.com/okian/pragati/internal/ingest"
	"github.com/okian/pragati/internal/notify"
)

// Wednesday noon, outside the default quiet hours.
var noon = time.Date(2024, time.March, 6, 12, 0, 0, 0, time.UTC)

func intp(v int) *int                     { return &v }
func durp(d time.Duration) *time.Duration { return &d }

type fixture struct {
	ctx       context.Context
	store     *repository.Store
	engine    *analytics.Engine
	notifier  *notify.Notifier
	processor *ingest.Processor
}

func newFixture(t *testing.T, opts ...ingest.Option) *fixture {
	ctx := context.Background()
	store := repotest.Store(t)
	parent := "p1"
	for _, err := range []error{
		store.UpsertLesson(ctx, &model.Lesson{ID: "c1", Title: "Using a mouse", Type: types.LessonComputer, Active: true}),
		store.UpsertLesson(ctx, &model.Lesson{ID: "c2", Title: "Typing", Type: types.LessonComputer, Active: true}),
		store.UpsertParent(ctx, &model.Parent{ID: parent, Name: "Asha"}),
		store.UpsertStudent(ctx, &model.Student{ID: "ravi", Name: "Ravi", ParentID: &parent}),
	} {
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	clock := calendar.Fixed(noon)
	engine := analytics.New(store, analytics.WithClock(clock))
	notifier := notify.New(store, engine, notify.WithClock(clock))
	return &fixture{
		ctx:       ctx,
		store:     store,
		engine:    engine,
		notifier:  notifier,
		processor: ingest.New(store, engine, notifier, opts...),
	}
}

func progress(student, lesson string, completed bool) model.Event {
	return model.Event{
		Kind:      model.KindProgress,
		EventID:   student + "-" + lesson,
		StudentID: student,
		LessonID:  lesson,
		Completed: completed,
		TS:        noon,
	}
}

func (f *fixture) activityTypes(student string) []types.ActivityType {
	entries, err := f.engine.Activities(f.ctx, student, 20)
	So(err, ShouldBeNil)
	out := make([]types.ActivityType, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Type)
	}
	return out
}

func TestApply(t *testing.T) {
	Convey("Given a student with a parent", t, func() {
		f := newFixture(t)

		Convey("When a lesson is started", func() {
			out, err := f.processor.Apply(f.ctx, progress("ravi", "c1", false))

			Convey("Then the start is logged and aggregates exist", func() {
				So(err, ShouldBeNil)
				So(out.Started, ShouldBeTrue)
				So(out.Completed, ShouldBeFalse)
				So(f.activityTypes("ravi"), ShouldResemble, []types.ActivityType{types.ActivityLessonStart})

				week, err := f.store.GetWeekly(f.ctx, "ravi", calendar.NewDate(2024, time.March, 4))
				So(err, ShouldBeNil)
				So(week.LessonsCompleted, ShouldEqual, 0)
				So(week.ActiveDays, ShouldEqual, 1)

				unread, err := f.notifier.Unread(f.ctx, "p1", 10)
				So(err, ShouldBeNil)
				So(unread, ShouldBeEmpty)
			})
		})

		Convey("When a lesson is started and completed in one event", func() {
			ev := progress("ravi", "c1", true)
			ev.Score = intp(90)
			ev.TimeSpent = durp(20 * time.Minute)
			out, err := f.processor.Apply(f.ctx, ev)

			Convey("Then the timeline, streak, parent and aggregates all move", func() {
				So(err, ShouldBeNil)
				So(out.Started, ShouldBeTrue)
				So(out.Completed, ShouldBeTrue)
				So(out.Streak, ShouldEqual, 1)
				So(out.Milestone, ShouldBeFalse)
				So(f.activityTypes("ravi"), ShouldResemble, []types.ActivityType{
					types.ActivityLessonComplete, types.ActivityLessonStart,
				})

				rec, err := f.store.FindStreak(f.ctx, "ravi", calendar.NewDate(2024, time.March, 6))
				So(err, ShouldBeNil)
				So(rec.LessonsCompleted, ShouldEqual, 1)
				So(rec.TimeSpent, ShouldEqual, 20*time.Minute)

				unread, err := f.notifier.Unread(f.ctx, "p1", 10)
				So(err, ShouldBeNil)
				So(len(unread), ShouldEqual, 1)
				So(unread[0].Message, ShouldContainSubstring, "with a score of 90%")

				month, err := f.store.GetMonthly(f.ctx, "ravi", 2024, 3)
				So(err, ShouldBeNil)
				So(month.LessonsCompleted, ShouldEqual, 1)
				So(month.MaxStreak, ShouldEqual, 1)

				subjects, err := f.store.ListSubjects(f.ctx, "ravi")
				So(err, ShouldBeNil)
				So(len(subjects), ShouldEqual, 1)
				So(subjects[0].LessonType, ShouldEqual, types.LessonComputer)
				So(subjects[0].TotalLessons, ShouldEqual, 2)
				So(subjects[0].CompletedLessons, ShouldEqual, 1)
			})

			Convey("And the completion is reported again", func() {
				again, err := f.processor.Apply(f.ctx, progress("ravi", "c1", true))

				Convey("Then nothing is logged or counted twice", func() {
					So(err, ShouldBeNil)
					So(again.Started, ShouldBeFalse)
					So(again.Completed, ShouldBeFalse)
					So(len(f.activityTypes("ravi")), ShouldEqual, 2)
					rec, err := f.store.FindStreak(f.ctx, "ravi", calendar.NewDate(2024, time.March, 6))
					So(err, ShouldBeNil)
					So(rec.LessonsCompleted, ShouldEqual, 1)
				})
			})
		})

		Convey("When the lesson is unknown", func() {
			_, err := f.processor.Apply(f.ctx, progress("ravi", "nope", true))

			Convey("Then the event is rejected", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				So(f.activityTypes("ravi"), ShouldBeEmpty)
			})
		})

		Convey("When the student has no parent", func() {
			out, err := f.processor.Apply(f.ctx, progress("walk-in", "c1", true))

			Convey("Then the event still applies", func() {
				So(err, ShouldBeNil)
				So(out.Completed, ShouldBeTrue)
				st, err := f.store.GetStudent(f.ctx, "walk-in")
				So(err, ShouldBeNil)
				So(st.ParentID, ShouldBeNil)
			})
		})
	})
}

func TestApply_Milestone(t *testing.T) {
	Convey("Given six straight days of learning", t, func() {
		f := newFixture(t, ingest.WithMilestones([]int{3, 7}))
		today := calendar.NewDate(2024, time.March, 6)
		for i := 6; i >= 1; i-- {
			rec, _, err := f.store.GetOrCreateStreak(f.ctx, "ravi", today.AddDays(-i))
			So(err, ShouldBeNil)
			n := 7 - i
			So(f.store.SaveStreakTotals(f.ctx, rec.ID, 0, &n), ShouldBeNil)
		}

		Convey("When a lesson is completed today", func() {
			out, err := f.processor.Apply(f.ctx, progress("ravi", "c2", true))

			Convey("Then the seventh day is a milestone", func() {
				So(err, ShouldBeNil)
				So(out.Streak, ShouldEqual, 7)
				So(out.Milestone, ShouldBeTrue)

				entries, err := f.engine.Activities(f.ctx, "ravi", 1)
				So(err, ShouldBeNil)
				So(entries[0].Type, ShouldEqual, types.ActivityStreakMilestone)
				So(entries[0].Description, ShouldEqual, "Achieved 7 day learning streak!")

				unread, err := f.notifier.Unread(f.ctx, "p1", 10)
				So(err, ShouldBeNil)
				So(len(unread), ShouldEqual, 2)
				kinds := []types.NotificationType{unread[0].Type, unread[1].Type}
				So(kinds, ShouldContain, types.NotifyStreakMilestone)
				So(kinds, ShouldContain, types.NotifyLessonComplete)
			})
		})
	})
}

func TestApplyQuiz(t *testing.T) {
	Convey("Given a student taking a quiz", t, func() {
		f := newFixture(t)
		quiz := model.Event{Kind: model.KindQuiz, EventID: "q1", StudentID: "ravi", LessonID: "c1", TS: noon}

		Convey("When the attempt fails", func() {
			So(f.processor.Handle(f.ctx, quiz), ShouldBeNil)

			Convey("Then only the attempt is logged", func() {
				So(f.activityTypes("ravi"), ShouldResemble, []types.ActivityType{types.ActivityQuizAttempt})
				unread, err := f.notifier.Unread(f.ctx, "p1", 10)
				So(err, ShouldBeNil)
				So(unread, ShouldBeEmpty)
			})
		})

		Convey("When the attempt passes without a score", func() {
			quiz.Correct = true
			So(f.processor.Handle(f.ctx, quiz), ShouldBeNil)

			Convey("Then the pass is logged and the parent hears the default score", func() {
				So(f.activityTypes("ravi"), ShouldResemble, []types.ActivityType{
					types.ActivityQuizPassed, types.ActivityQuizAttempt,
				})
				unread, err := f.notifier.Unread(f.ctx, "p1", 10)
				So(err, ShouldBeNil)
				So(len(unread), ShouldEqual, 1)
				So(unread[0].Message, ShouldContainSubstring, "scored 85%")
			})
		})

		Convey("When the quiz lesson is unknown", func() {
			quiz.LessonID = "nope"
			err := f.processor.ApplyQuiz(f.ctx, quiz)

			Convey("Then it is rejected", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestHandle_UnknownKind(t *testing.T) {
	Convey("Given an event of an unknown kind", t, func() {
		p := ingest.New(nil, nil, nil)
		err := p.Handle(context.Background(), model.Event{Kind: "badge"})

		Convey("Then it is rejected before touching storage", func() {
			So(errors.Is(err, ingest.ErrUnknownKind), ShouldBeTrue)
		})
	})
}
