package notify

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/okian/pragati/internal/domain/types"
)

type message struct {
	title *template.Template
	body  *template.Template
}

var messages = map[types.NotificationType]message{
	types.NotifyLessonComplete: mustMessage(
		`🎉 {{.child_name}} completed a lesson!`,
		`{{.child_name}} just finished "{{.lesson_title}}"{{if .score}} with a score of {{.score}}%{{end}}. Great progress!`),
	types.NotifyQuizPassed: mustMessage(
		`🏆 {{.child_name}} passed a quiz!`,
		`{{.child_name}} scored {{.score}}% on the quiz for "{{.lesson_title}}". Excellent work!`),
	types.NotifyStreakMilestone: mustMessage(
		`🔥 {{.streak_count}} day learning streak!`,
		`{{.child_name}} has been learning consistently for {{.streak_count}} days in a row. This is fantastic dedication!`),
	types.NotifyWeeklySummary: mustMessage(
		`📊 Weekly Progress Report for {{.child_name}}`,
		`This week {{.child_name}} completed {{.total_lessons}} lessons and spent {{printf "%.1f" .total_time_hours}} hours learning. Current streak: {{.current_streak}} days.`),
	types.NotifyMonthlySummary: mustMessage(
		`📅 Monthly Progress Report for {{.child_name}}`,
		`In {{.month_name}} {{.child_name}} completed {{.total_lessons}} lessons and spent {{printf "%.1f" .total_time_hours}} hours learning. Longest streak: {{.max_streak}} days.`),
	types.NotifyInactivity: mustMessage(
		`⏰ {{.child_name}} hasn't been active`,
		`{{.child_name}} hasn't logged in for {{.days_inactive}} days. Consider encouraging them to continue their learning journey!`),
}

var fallback = mustMessage(
	`Learning Update for {{.child_name}}`,
	`Your child has a learning update!`)

func mustMessage(title, body string) message {
	return message{
		title: template.Must(template.New("title").Parse(title)),
		body:  template.Must(template.New("body").Parse(body)),
	}
}

// render fills the title and message for t. Unknown types get a generic text.
func render(t types.NotificationType, vars map[string]interface{}) (string, string, error) {
	m, ok := messages[t]
	if !ok {
		m = fallback
	}
	var title, body bytes.Buffer
	if err := m.title.Execute(&title, vars); err != nil {
		return "", "", fmt.Errorf("render %s title: %w", t, err)
	}
	if err := m.body.Execute(&body, vars); err != nil {
		return "", "", fmt.Errorf("render %s message: %w", t, err)
	}
	return title.String(), body.String(), nil
}
