// Package types contains the enums and read shapes shared across the application.
package types

import (
	"errors"
	"fmt"
)

// ErrUnknownValue is wrapped by every Parse* helper in this package.
var ErrUnknownValue = errors.New("unknown enum value")

// LessonType is the subject category of a lesson.
type LessonType string

const (
	LessonBasic    LessonType = "basic"
	LessonComputer LessonType = "computer"
	LessonInternet LessonType = "internet"
	LessonMobile   LessonType = "mobile"
	LessonSafety   LessonType = "safety"
)

// LessonTypes lists every known lesson type in display order.
func LessonTypes() []LessonType {
	return []LessonType{LessonBasic, LessonComputer, LessonInternet, LessonMobile, LessonSafety}
}

var lessonTypeLabels = map[LessonType]string{
	LessonBasic:    "Basic Digital Literacy",
	LessonComputer: "Computer Basics",
	LessonInternet: "Internet Basics",
	LessonMobile:   "Mobile Usage",
	LessonSafety:   "Digital Safety",
}

func (t LessonType) Valid() bool {
	_, ok := lessonTypeLabels[t]
	return ok
}

// Label is the human readable subject name.
func (t LessonType) Label() string {
	if l, ok := lessonTypeLabels[t]; ok {
		return l
	}
	return string(t)
}

// ParseLessonType validates s.
func ParseLessonType(s string) (LessonType, error) {
	t := LessonType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: lesson type %q", ErrUnknownValue, s)
	}
	return t, nil
}

// ActivityType tags an activity log entry.
type ActivityType string

const (
	ActivityLessonStart     ActivityType = "lesson_start"
	ActivityLessonComplete  ActivityType = "lesson_complete"
	ActivityQuizAttempt     ActivityType = "quiz_attempt"
	ActivityQuizPassed      ActivityType = "quiz_passed"
	ActivityStreakMilestone ActivityType = "streak_milestone"
	ActivityWeeklyGoal      ActivityType = "weekly_goal"
)

func (t ActivityType) Valid() bool {
	switch t {
	case ActivityLessonStart, ActivityLessonComplete, ActivityQuizAttempt,
		ActivityQuizPassed, ActivityStreakMilestone, ActivityWeeklyGoal:
		return true
	}
	return false
}

// NotificationType identifies what a parent notification is about.
type NotificationType string

const (
	NotifyLessonComplete  NotificationType = "lesson_complete"
	NotifyQuizPassed      NotificationType = "quiz_passed"
	NotifyStreakMilestone NotificationType = "streak_milestone"
	NotifyWeeklySummary   NotificationType = "weekly_summary"
	NotifyMonthlySummary  NotificationType = "monthly_summary"
	NotifyInactivity      NotificationType = "inactivity_alert"
)

// Frequency is a parent's delivery preference for one kind of notification.
type Frequency string

const (
	FrequencyImmediate Frequency = "immediate"
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyNever     Frequency = "never"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyImmediate, FrequencyDaily, FrequencyWeekly, FrequencyNever:
		return true
	}
	return false
}

// NotificationStatus is the delivery state of a stored notification.
type NotificationStatus string

const (
	StatusPending NotificationStatus = "pending"
	StatusSent    NotificationStatus = "sent"
	StatusRead    NotificationStatus = "read"
	StatusFailed  NotificationStatus = "failed"
)

// ChartPeriod selects the granularity of ProgressChart.
type ChartPeriod string

const (
	PeriodWeek  ChartPeriod = "week"
	PeriodMonth ChartPeriod = "month"
)

// ProgressChart holds parallel series for dashboard charts. Time is in hours.
type ProgressChart struct {
	Labels  []string  `json:"labels"`
	Lessons []int     `json:"lessons"`
	Hours   []float64 `json:"time"`
	Scores  []float64 `json:"scores"`
	Streaks []int     `json:"streaks,omitempty"`
}

// SubjectChart holds per-subject series. Time is in hours.
type SubjectChart struct {
	Subjects   []string  `json:"subjects"`
	Completion []float64 `json:"completion"`
	Scores     []float64 `json:"scores"`
	Hours      []float64 `json:"time"`
}

// CalendarEntry is one activity shown on a calendar day.
type CalendarEntry struct {
	Type        ActivityType `json:"type"`
	Description string       `json:"description"`
	Time        string       `json:"time"`
	Lesson      *string      `json:"lesson"`
}

// Calendar maps day-of-month to that day's activities in chronological order.
type Calendar map[int][]CalendarEntry

// ParseActivityType validates s.
func ParseActivityType(s string) (ActivityType, error) {
	t := ActivityType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: activity type %q", ErrUnknownValue, s)
	}
	return t, nil
}

// ParseChartPeriod validates s; empty means month.
func ParseChartPeriod(s string) (ChartPeriod, error) {
	switch ChartPeriod(s) {
	case "", PeriodMonth:
		return PeriodMonth, nil
	case PeriodWeek:
		return PeriodWeek, nil
	}
	return "", fmt.Errorf("%w: chart period %q", ErrUnknownValue, s)
}
