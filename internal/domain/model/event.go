// Package model contains domain models passed between layers and persisted by
// the repository.
package model

import "time"

// EventKind tells the ingest processor how to apply an Event.
type EventKind string

const (
	// KindProgress is a lesson session being started, updated or completed.
	KindProgress EventKind = "progress"
	// KindQuiz is a quiz attempt on a lesson.
	KindQuiz EventKind = "quiz"
)

// Event is a learning interaction submitted by lesson players and quiz handlers.
// Fields mirror the OpenAPI schemas for /events and /quiz-attempts.
type Event struct {
	Kind      EventKind
	EventID   string // unique id for idempotency
	StudentID string
	LessonID  string
	Completed bool           // progress: lesson finished in this session
	Correct   bool           // quiz: attempt passed
	Score     *int           // optional score, 0..100
	TimeSpent *time.Duration // optional session length
	TS        time.Time      // event timestamp
}
