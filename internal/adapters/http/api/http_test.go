package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/pragati/internal/adapters/http/api"
	"github.com/okian/pragati/internal/adapters/repository"
	service "github.com/okian/pragati/internal/app"
	"github.com/okian/pragati/internal/domain/calendar"
	"github.com/okian/pragati/internal/domain/model"
	"github.com/okian/pragati/internal/domain/types"
	"github.com/okian/pragati/internal/notify"
	"github.com/okian/pragati/pkg/logger"
)

type fakeDeps struct {
	mu        sync.Mutex
	seen      map[string]bool
	events    []model.Event
	submitErr error
	pingErr   error

	lessons  map[string]model.Lesson
	parents  map[string]model.Parent
	students map[string]model.Student
	settings map[string]model.NotificationSettings
	unread   []model.ParentNotification

	lastLimit  int
	lastPeriod types.ChartPeriod
	lastYear   int
	lastMonth  int
}

func newFakeDeps() *fakeDeps {
	return &fakeDeps{
		seen:     map[string]bool{},
		lessons:  map[string]model.Lesson{},
		parents:  map[string]model.Parent{"p1": {ID: "p1", Name: "Asha"}},
		students: map[string]model.Student{"ravi": {ID: "ravi", Name: "Ravi"}},
		settings: map[string]model.NotificationSettings{},
		unread: []model.ParentNotification{
			{ID: "n1", ParentID: "p1", ChildID: "ravi", Type: types.NotifyLessonComplete, Status: types.StatusSent},
			{ID: "n2", ParentID: "p1", ChildID: "ravi", Type: types.NotifyQuizPassed, Status: types.StatusSent},
		},
	}
}

func (f *fakeDeps) Submit(_ context.Context, e model.Event) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return false, f.submitErr
	}
	if f.seen[e.EventID] {
		return true, nil
	}
	f.seen[e.EventID] = true
	f.events = append(f.events, e)
	return false, nil
}

func (f *fakeDeps) UpsertLesson(_ context.Context, l *model.Lesson) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lessons[l.ID] = *l
	return nil
}

func (f *fakeDeps) UpsertParent(_ context.Context, p *model.Parent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.parents[p.ID] = *p
	return nil
}

func (f *fakeDeps) UpsertStudent(_ context.Context, s *model.Student) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.students[s.ID] = *s
	return nil
}

func (f *fakeDeps) Today() calendar.Date { return calendar.NewDate(2024, time.March, 6) }

func (f *fakeDeps) CurrentStreak(_ context.Context, _ string) (int, error) { return 3, nil }

func (f *fakeDeps) WeeklyHistory(_ context.Context, id string, limit int) ([]model.WeeklyRecord, error) {
	f.lastLimit = limit
	return []model.WeeklyRecord{{StudentID: id, WeekStart: calendar.NewDate(2024, time.March, 4), LessonsCompleted: 2}}, nil
}

func (f *fakeDeps) MonthlyHistory(_ context.Context, id string, limit int) ([]model.MonthlyRecord, error) {
	f.lastLimit = limit
	return []model.MonthlyRecord{{StudentID: id, Year: 2024, Month: 3, MaxStreak: 3}}, nil
}

func (f *fakeDeps) Subjects(_ context.Context, id string) ([]model.SubjectPerformanceRecord, error) {
	return []model.SubjectPerformanceRecord{
		{StudentID: id, LessonType: types.LessonSafety, TotalLessons: 8, CompletedLessons: 2},
	}, nil
}

func (f *fakeDeps) Activities(_ context.Context, id string, limit int) ([]model.ActivityLogEntry, error) {
	f.lastLimit = limit
	return []model.ActivityLogEntry{{ID: 1, StudentID: id, Type: types.ActivityLessonStart, Description: "Started lesson: Typing"}}, nil
}

func (f *fakeDeps) Calendar(_ context.Context, _ string, year, month int) (types.Calendar, error) {
	f.lastYear, f.lastMonth = year, month
	return types.Calendar{6: {{Type: types.ActivityLessonComplete, Description: "Completed lesson: Typing", Time: "10:30"}}}, nil
}

func (f *fakeDeps) ProgressChart(_ context.Context, _ string, period types.ChartPeriod) (types.ProgressChart, error) {
	f.lastPeriod = period
	return types.ProgressChart{Labels: []string{"Week of 03/04"}, Lessons: []int{2}, Hours: []float64{1.5}, Scores: []float64{90}}, nil
}

func (f *fakeDeps) SubjectChart(_ context.Context, _ string) (types.SubjectChart, error) {
	return types.SubjectChart{Subjects: []string{"Digital Safety"}, Completion: []float64{25}}, nil
}

func (f *fakeDeps) Refresh(_ context.Context, id string) error {
	if _, ok := f.students[id]; !ok {
		return repository.ErrNotFound
	}
	return nil
}

func (f *fakeDeps) Unread(_ context.Context, parentID string, limit int) ([]model.ParentNotification, error) {
	f.lastLimit = limit
	var out []model.ParentNotification
	for _, n := range f.unread {
		if n.ParentID == parentID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeDeps) MarkAllRead(_ context.Context, parentID string) (int64, error) {
	var n int64
	for _, u := range f.unread {
		if u.ParentID == parentID {
			n++
		}
	}
	return n, nil
}

func (f *fakeDeps) Settings(_ context.Context, parentID string) (model.NotificationSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.parents[parentID]; !ok {
		return model.NotificationSettings{}, repository.ErrNotFound
	}
	if s, ok := f.settings[parentID]; ok {
		return s, nil
	}
	return notify.New(nil, nil).DefaultSettings(parentID), nil
}

func (f *fakeDeps) UpdateSettings(_ context.Context, s model.NotificationSettings) (model.NotificationSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings[s.ParentID] = s
	return s, nil
}

func (f *fakeDeps) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true, "workerCount": 2}
}

func (f *fakeDeps) Ping(context.Context) error { return f.pingErr }

func newApp(deps *fakeDeps) *fiber.App {
	return api.NewServer(deps, api.WithLogger(logger.NewNop())).App()
}

func do(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader = http.NoBody
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func decode(t *testing.T, raw []byte) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &m), string(raw))
	return m
}

const progressBody = `{"event_id":"e1","student_id":"ravi","lesson_id":"c1","completed":true,"score":90,"time_spent_seconds":1200,"ts":"2024-03-06T10:00:00Z"}`

func TestPostEvent(t *testing.T) {
	deps := newFakeDeps()
	app := newApp(deps)

	resp, raw := do(t, app, fiber.MethodPost, "/events", progressBody)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "accepted", decode(t, raw)["status"])
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))

	require.Len(t, deps.events, 1)
	e := deps.events[0]
	assert.Equal(t, model.KindProgress, e.Kind)
	assert.True(t, e.Completed)
	require.NotNil(t, e.Score)
	assert.Equal(t, 90, *e.Score)
	require.NotNil(t, e.TimeSpent)
	assert.Equal(t, 20*time.Minute, *e.TimeSpent)
	assert.True(t, e.TS.Equal(time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC)))

	t.Run("duplicate answers 200", func(t *testing.T) {
		resp, raw := do(t, app, fiber.MethodPost, "/events", progressBody)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		body := decode(t, raw)
		assert.Equal(t, "accepted", body["status"])
		assert.Equal(t, true, body["duplicate"])
		assert.Len(t, deps.events, 1)
	})

	t.Run("validation failures answer 400", func(t *testing.T) {
		for name, body := range map[string]string{
			"missing student": `{"event_id":"e2","lesson_id":"c1","ts":"2024-03-06T10:00:00Z"}`,
			"bad timestamp":   `{"event_id":"e2","student_id":"ravi","lesson_id":"c1","ts":"yesterday"}`,
			"score too high":  `{"event_id":"e2","student_id":"ravi","lesson_id":"c1","score":101,"ts":"2024-03-06T10:00:00Z"}`,
			"negative time":   `{"event_id":"e2","student_id":"ravi","lesson_id":"c1","time_spent_seconds":-1,"ts":"2024-03-06T10:00:00Z"}`,
			"time over a day": `{"event_id":"e2","student_id":"ravi","lesson_id":"c1","time_spent_seconds":86401,"ts":"2024-03-06T10:00:00Z"}`,
			"time overflows":  `{"event_id":"e2","student_id":"ravi","lesson_id":"c1","time_spent_seconds":9300000000,"ts":"2024-03-06T10:00:00Z"}`,
			"not json":        `{"event_id":`,
		} {
			resp, raw := do(t, app, fiber.MethodPost, "/events", body)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, name)
			assert.Equal(t, "bad_request", decode(t, raw)["code"], name)
		}
	})

	t.Run("backpressure answers 429", func(t *testing.T) {
		deps.submitErr = fmt.Errorf("%w: queue full", service.ErrBackpressure)
		defer func() { deps.submitErr = nil }()
		resp, raw := do(t, app, fiber.MethodPost, "/events",
			`{"event_id":"e3","student_id":"ravi","lesson_id":"c1","ts":"2024-03-06T10:00:00Z"}`)
		assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
		assert.Equal(t, "backpressure", decode(t, raw)["code"])
	})

	t.Run("not started answers 503", func(t *testing.T) {
		deps.submitErr = service.ErrNotStarted
		defer func() { deps.submitErr = nil }()
		resp, _ := do(t, app, fiber.MethodPost, "/events",
			`{"event_id":"e4","student_id":"ravi","lesson_id":"c1","ts":"2024-03-06T10:00:00Z"}`)
		assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("internal errors are not leaked", func(t *testing.T) {
		deps.submitErr = errors.New("disk on fire")
		defer func() { deps.submitErr = nil }()
		resp, raw := do(t, app, fiber.MethodPost, "/events",
			`{"event_id":"e5","student_id":"ravi","lesson_id":"c1","ts":"2024-03-06T10:00:00Z"}`)
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
		body := decode(t, raw)
		assert.Equal(t, "internal", body["code"])
		assert.NotContains(t, body["message"], "disk")
	})
}

func TestPostQuizAttempt(t *testing.T) {
	deps := newFakeDeps()
	app := newApp(deps)

	resp, _ := do(t, app, fiber.MethodPost, "/quiz-attempts",
		`{"event_id":"q1","student_id":"ravi","lesson_id":"c1","correct":true,"ts":"2024-03-06T11:00:00+05:30"}`)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	require.Len(t, deps.events, 1)
	assert.Equal(t, model.KindQuiz, deps.events[0].Kind)
	assert.True(t, deps.events[0].Correct)
	assert.Nil(t, deps.events[0].Score)
}

func TestCatalog(t *testing.T) {
	deps := newFakeDeps()
	app := newApp(deps)

	resp, raw := do(t, app, fiber.MethodPost, "/lessons", `{"id":"c1","title":"Typing","lesson_type":"computer"}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "computer", decode(t, raw)["lesson_type"])
	assert.True(t, deps.lessons["c1"].Active)

	resp, _ = do(t, app, fiber.MethodPost, "/lessons", `{"id":"c2","title":"Old","lesson_type":"mobile","active":false}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.False(t, deps.lessons["c2"].Active)

	resp, _ = do(t, app, fiber.MethodPost, "/lessons", `{"id":"c3","title":"Cooking","lesson_type":"kitchen"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, fiber.MethodPost, "/parents", `{"id":"p2","name":"Lakshmi"}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Lakshmi", deps.parents["p2"].Name)

	resp, _ = do(t, app, fiber.MethodPost, "/students", `{"id":"meena","name":"Meena","parent_id":"p2"}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NotNil(t, deps.students["meena"].ParentID)
	assert.Equal(t, "p2", *deps.students["meena"].ParentID)

	resp, _ = do(t, app, fiber.MethodPost, "/students", `{"id":"kiran","name":"Kiran","parent_id":""}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Nil(t, deps.students["kiran"].ParentID)
}

func TestStudentReports(t *testing.T) {
	deps := newFakeDeps()
	app := newApp(deps)

	t.Run("streak", func(t *testing.T) {
		resp, raw := do(t, app, fiber.MethodGet, "/students/ravi/streak", "")
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		body := decode(t, raw)
		assert.EqualValues(t, 3, body["current_streak"])
		assert.Equal(t, "2024-03-06", body["today"])
	})

	t.Run("history limits", func(t *testing.T) {
		resp, _ := do(t, app, fiber.MethodGet, "/students/ravi/weekly", "")
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, 12, deps.lastLimit)

		resp, _ = do(t, app, fiber.MethodGet, "/students/ravi/monthly?limit=3", "")
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, 3, deps.lastLimit)

		resp, _ = do(t, app, fiber.MethodGet, "/students/ravi/activities", "")
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, 20, deps.lastLimit)

		resp, _ = do(t, app, fiber.MethodGet, "/students/ravi/weekly?limit=0", "")
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("subjects carry completion percentage", func(t *testing.T) {
		resp, raw := do(t, app, fiber.MethodGet, "/students/ravi/subjects", "")
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		var out []map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &out))
		require.Len(t, out, 1)
		assert.EqualValues(t, 25, out[0]["completion_percentage"])
		assert.Equal(t, "Digital Safety", out[0]["label"])
		assert.Equal(t, "safety", out[0]["lesson_type"])
	})

	t.Run("calendar defaults to this month", func(t *testing.T) {
		resp, raw := do(t, app, fiber.MethodGet, "/students/ravi/calendar", "")
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, 2024, deps.lastYear)
		assert.Equal(t, 3, deps.lastMonth)
		days, ok := decode(t, raw)["days"].(map[string]interface{})
		require.True(t, ok)
		assert.Len(t, days["6"], 1)

		do(t, app, fiber.MethodGet, "/students/ravi/calendar?year=2023&month=12", "")
		assert.Equal(t, 2023, deps.lastYear)
		assert.Equal(t, 12, deps.lastMonth)
	})

	t.Run("charts", func(t *testing.T) {
		resp, raw := do(t, app, fiber.MethodGet, "/students/ravi/charts?period=week", "")
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, types.PeriodWeek, deps.lastPeriod)
		assert.Equal(t, []interface{}{"Week of 03/04"}, decode(t, raw)["labels"])

		do(t, app, fiber.MethodGet, "/students/ravi/charts", "")
		assert.Equal(t, types.PeriodMonth, deps.lastPeriod)

		resp, _ = do(t, app, fiber.MethodGet, "/students/ravi/charts?period=year", "")
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

		resp, raw = do(t, app, fiber.MethodGet, "/students/ravi/charts/subjects", "")
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, []interface{}{"Digital Safety"}, decode(t, raw)["subjects"])
	})

	t.Run("refresh", func(t *testing.T) {
		resp, raw := do(t, app, fiber.MethodPost, "/students/ravi/refresh", "")
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "refreshed", decode(t, raw)["status"])

		resp, raw = do(t, app, fiber.MethodPost, "/students/ghost/refresh", "")
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "not_found", decode(t, raw)["code"])
	})
}

func TestParentEndpoints(t *testing.T) {
	deps := newFakeDeps()
	app := newApp(deps)

	resp, raw := do(t, app, fiber.MethodGet, "/parents/p1/notifications", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Len(t, list, 2)
	assert.Equal(t, 50, deps.lastLimit)

	resp, raw = do(t, app, fiber.MethodPost, "/parents/p1/notifications/read", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, decode(t, raw)["marked"])

	t.Run("settings defaults", func(t *testing.T) {
		resp, raw := do(t, app, fiber.MethodGet, "/parents/p1/settings", "")
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		body := decode(t, raw)
		assert.Equal(t, "immediate", body["lesson_completion"])
		assert.Equal(t, "22:00", body["quiet_hours_start"])
	})

	t.Run("settings partial update", func(t *testing.T) {
		resp, raw := do(t, app, fiber.MethodPut, "/parents/p1/settings",
			`{"weekly_summary":false,"inactivity_alerts":"never","quiet_hours_start":"21:30"}`)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		body := decode(t, raw)
		assert.Equal(t, false, body["weekly_summary"])
		assert.Equal(t, "never", body["inactivity_alerts"])
		assert.Equal(t, "21:30", body["quiet_hours_start"])
		assert.Equal(t, "08:00", body["quiet_hours_end"])
		assert.Equal(t, "immediate", body["lesson_completion"])
	})

	t.Run("settings validation", func(t *testing.T) {
		resp, _ := do(t, app, fiber.MethodPut, "/parents/p1/settings", `{"lesson_completion":"hourly"}`)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

		resp, _ = do(t, app, fiber.MethodPut, "/parents/p1/settings", `{"quiet_hours_end":"25:00"}`)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

		resp, _ = do(t, app, fiber.MethodGet, "/parents/ghost/settings", "")
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestOperationalEndpoints(t *testing.T) {
	deps := newFakeDeps()
	app := newApp(deps)

	resp, raw := do(t, app, fiber.MethodGet, "/healthz", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "pragati_analytics_queue_size")

	resp, raw = do(t, app, fiber.MethodGet, "/stats", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decode(t, raw)["started"])

	resp, _ = do(t, app, fiber.MethodGet, "/readyz", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	deps.pingErr = errors.New("db down")
	resp, raw = do(t, app, fiber.MethodGet, "/readyz", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "unavailable", decode(t, raw)["code"])

	resp, raw = do(t, app, fiber.MethodGet, "/nowhere", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", decode(t, raw)["code"])
}

func TestMetricsAfterMixedMethods(t *testing.T) {
	app := newApp(newFakeDeps())

	for _, method := range []string{fiber.MethodPut, fiber.MethodGet, fiber.MethodPut, fiber.MethodGet} {
		body := ""
		if method == fiber.MethodPut {
			body = `{"weekly_summary":true}`
		}
		resp, _ := do(t, app, method, "/parents/p1/settings", body)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, method)
	}

	resp, raw := do(t, app, fiber.MethodGet, "/healthz", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	text := string(raw)
	assert.Contains(t, text, `endpoint="/parents/:id/settings",method="PUT",status_code="200"`)
	assert.Contains(t, text, `endpoint="/parents/:id/settings",method="GET",status_code="200"`)
}

func TestPanicRecovery(t *testing.T) {
	app := newApp(newFakeDeps())
	app.Get("/boom", func(*fiber.Ctx) error { panic("boom") })

	resp, raw := do(t, app, fiber.MethodGet, "/boom", "")
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "internal", decode(t, raw)["code"])
}
