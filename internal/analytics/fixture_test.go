package analytics_test

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/pragati/internal/adapters/repository"
	"github.com/okian/pragati/internal/adapters/repository/repotest"
	"github.com/okian/pragati/internal/analytics"
	"github.com/okian/pragati/internal/domain/calendar"
	"github.com/okian/pragati/internal/domain/model"
	"github.com/okian/pragati/internal/domain/types"
)

// March 2024: the 4th is a Monday.
func march(day, hour, minute int) time.Time {
	return time.Date(2024, time.March, day, hour, minute, 0, 0, time.UTC)
}

func intp(v int) *int                     { return &v }
func durp(d time.Duration) *time.Duration { return &d }

type fixture struct {
	ctx   context.Context
	store *repository.Store
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{ctx: context.Background(), store: repotest.Store(t)}
	lessons := []model.Lesson{
		{ID: "c1", Title: "Using a mouse", Type: types.LessonComputer, Active: true},
		{ID: "c2", Title: "Typing", Type: types.LessonComputer, Active: true},
		{ID: "c3", Title: "Files and folders", Type: types.LessonComputer, Active: true},
		{ID: "s1", Title: "Strong passwords", Type: types.LessonSafety, Active: true},
		{ID: "i1", Title: "Dial-up", Type: types.LessonInternet, Active: false},
	}
	for i := range lessons {
		if err := f.store.UpsertLesson(f.ctx, &lessons[i]); err != nil {
			t.Fatalf("seed lesson: %v", err)
		}
	}
	return f
}

func (f *fixture) engineAt(now time.Time, opts ...analytics.Option) *analytics.Engine {
	opts = append([]analytics.Option{analytics.WithClock(calendar.Fixed(now))}, opts...)
	return analytics.New(f.store, opts...)
}

func (f *fixture) start(student, lesson string, at time.Time) {
	_, err := f.store.ApplyProgress(f.ctx, model.Event{
		Kind: model.KindProgress, StudentID: student, LessonID: lesson, TS: at,
	})
	So(err, ShouldBeNil)
}

func (f *fixture) complete(student, lesson string, at time.Time, score *int, spent *time.Duration) {
	_, err := f.store.ApplyProgress(f.ctx, model.Event{
		Kind:      model.KindProgress,
		StudentID: student,
		LessonID:  lesson,
		Completed: true,
		Score:     score,
		TimeSpent: spent,
		TS:        at,
	})
	So(err, ShouldBeNil)
}

func (f *fixture) streakOn(student string, day calendar.Date) *model.StreakRecord {
	rec, err := f.store.FindStreak(f.ctx, student, day)
	So(err, ShouldBeNil)
	return rec
}
