package seed

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/okian/pragati/internal/domain/types"
)

var firstNames = []string{
	"Ravi", "Meena", "Kiran", "Asha", "Suresh", "Lakshmi", "Arjun", "Priya",
	"Gopal", "Sita", "Mohan", "Radha", "Vijay", "Anita", "Raju", "Kavya",
}

// Plan is everything a run registers and submits.
type Plan struct {
	Lessons  []Lesson
	Parents  []Parent
	Students []Student
	// Events holds each student's events in submission order.
	Events map[string][]Event
	// Completions counts each student's completion events.
	Completions map[string]int
}

// Total is the number of events in the plan.
func (p *Plan) Total() int {
	n := 0
	for _, evs := range p.Events {
		n += len(evs)
	}
	return n
}

// Generate builds a plan ending at now. Every student gets a parent except
// every third one, who is a walk-in learner. On an active day a student
// starts and completes one lesson they have not finished before.
func Generate(cfg *Config, now time.Time) *Plan {
	r := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)) //nolint:gosec // synthetic data
	p := &Plan{
		Events:      make(map[string][]Event, cfg.Students),
		Completions: make(map[string]int, cfg.Students),
	}

	for _, t := range types.LessonTypes() {
		for i := 1; i <= cfg.LessonsPerType; i++ {
			p.Lessons = append(p.Lessons, Lesson{
				ID:         fmt.Sprintf("%s-%02d", t, i),
				Title:      fmt.Sprintf("%s %d", t.Label(), i),
				LessonType: string(t),
			})
		}
	}

	for i := 0; i < cfg.Students; i++ {
		name := firstNames[i%len(firstNames)]
		st := Student{ID: fmt.Sprintf("student-%03d", i+1), Name: name}
		if i%3 != 2 {
			parent := Parent{ID: fmt.Sprintf("parent-%03d", i+1), Name: "Parent of " + name}
			p.Parents = append(p.Parents, parent)
			st.ParentID = &parent.ID
		}
		p.Students = append(p.Students, st)
		p.Events[st.ID] = studentEvents(r, cfg, p, st.ID, now)
	}
	return p
}

func studentEvents(r *rand.Rand, cfg *Config, p *Plan, studentID string, now time.Time) []Event {
	var out []Event
	order := r.Perm(len(p.Lessons))
	next := 0
	for d := cfg.Days - 1; d >= 0 && next < len(order); d-- {
		if r.Float64() >= cfg.Activity {
			continue
		}
		lesson := p.Lessons[order[next]]
		next++

		start := now.AddDate(0, 0, -d).Add(-time.Duration(40+r.IntN(120)) * time.Minute)
		spent := int64(300 + r.IntN(1500))
		score := 40 + r.IntN(61)

		out = append(out,
			Event{
				Path:      "/events",
				EventID:   uuid.NewString(),
				StudentID: studentID,
				LessonID:  lesson.ID,
				TS:        start.UTC().Format(time.RFC3339),
			},
			Event{
				Path:             "/events",
				EventID:          uuid.NewString(),
				StudentID:        studentID,
				LessonID:         lesson.ID,
				Completed:        true,
				Score:            &score,
				TimeSpentSeconds: &spent,
				TS:               start.Add(time.Duration(spent) * time.Second).UTC().Format(time.RFC3339),
			},
		)
		p.Completions[studentID]++

		if r.Float64() < cfg.QuizRate {
			quizScore := 50 + r.IntN(51)
			out = append(out, Event{
				Path:      "/quiz-attempts",
				EventID:   uuid.NewString(),
				StudentID: studentID,
				LessonID:  lesson.ID,
				Correct:   quizScore >= 60,
				Score:     &quizScore,
				TS:        start.Add(time.Duration(spent+60) * time.Second).UTC().Format(time.RFC3339),
			})
		}
	}
	return out
}
