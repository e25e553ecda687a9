// Package seed generates synthetic learners and drives them through the HTTP
// API, then checks that the aggregates the service computed are consistent
// with what was sent.
package seed

import "time"

// Config holds configuration for a seeding run.
type Config struct {
	BaseURL        string        // base URL of the service
	Students       int           // students to create
	LessonsPerType int           // lessons created for each lesson type
	Days           int           // how many past days activity is spread over, today included
	Activity       float64       // chance a student learns on a given day, 0..1
	QuizRate       float64       // chance a completion is followed by a quiz attempt, 0..1
	Replays        int           // events resent at the end to exercise deduplication
	Workers        int           // students submitted concurrently
	Timeout        time.Duration // per request timeout
	Wait           time.Duration // how long to wait for the workers to drain
	Seed           uint64        // random seed; runs with the same seed generate the same plan
}

// Lesson mirrors the POST /lessons body.
type Lesson struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	LessonType string `json:"lesson_type"`
}

// Parent mirrors the POST /parents body.
type Parent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Student mirrors the POST /students body.
type Student struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"`
}

// Event is a progress event or a quiz attempt, posted to Path.
type Event struct {
	Path             string `json:"-"`
	EventID          string `json:"event_id"`
	StudentID        string `json:"student_id"`
	LessonID         string `json:"lesson_id"`
	Completed        bool   `json:"completed,omitempty"`
	Correct          bool   `json:"correct,omitempty"`
	Score            *int   `json:"score,omitempty"`
	TimeSpentSeconds *int64 `json:"time_spent_seconds,omitempty"`
	TS               string `json:"ts"`
}

// AckResponse is the answer to an event submission.
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Stats summarizes a run.
type Stats struct {
	Lessons          int
	Students         int
	EventsGenerated  int
	EventsAccepted   int
	EventsDuplicate  int
	EventsRetried    int
	EventsFailed     int
	StudentsVerified int
	Violations       []string
	Duration         time.Duration
}
