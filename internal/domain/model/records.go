package model

import (
	"time"

	"gorm.io/datatypes"

	"github.com/okian/pragati/internal/domain/calendar"
	"github.com/okian/pragati/internal/domain/types"
)

// Lesson is a unit of learning content. Only active lessons count towards
// subject totals.
type Lesson struct {
	ID        string           `gorm:"primaryKey;size:64" json:"id"`
	Title     string           `gorm:"size:200;not null" json:"title"`
	Type      types.LessonType `gorm:"column:lesson_type;size:20;not null;index" json:"lesson_type"`
	Active    bool             `gorm:"not null" json:"active"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func (Lesson) TableName() string { return "lessons" }

// Parent receives notifications about linked students.
type Parent struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Name      string    `gorm:"size:150;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (Parent) TableName() string { return "parents" }

// Student is a learner. ParentID links the parent that receives notifications.
type Student struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Name      string    `gorm:"size:150;not null" json:"name"`
	ParentID  *string   `gorm:"size:64;index" json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Student) TableName() string { return "students" }

// ProgressRecord is a student's state on one lesson. It is the single source
// of truth every aggregate is recomputed from.
type ProgressRecord struct {
	ID           uint64         `gorm:"primaryKey;autoIncrement" json:"-"`
	StudentID    string         `gorm:"size:64;not null;uniqueIndex:ux_progress_student_lesson,priority:1;index:ix_progress_student_started,priority:1" json:"student_id"`
	LessonID     string         `gorm:"size:64;not null;uniqueIndex:ux_progress_student_lesson,priority:2" json:"lesson_id"`
	Completed    bool           `gorm:"not null" json:"completed"`
	Score        *int           `json:"score"`
	TimeSpent    *time.Duration `json:"time_spent"`
	StartedAt    time.Time      `gorm:"not null;index:ix_progress_student_started,priority:2" json:"started_at"`
	CompletedAt  *time.Time     `json:"completed_at"`
	LastAccessed time.Time      `gorm:"not null;index" json:"last_accessed"`
}

func (ProgressRecord) TableName() string { return "progress_records" }

// StreakRecord is one (student, day) entry of the streak chain.
type StreakRecord struct {
	ID               uint64        `gorm:"primaryKey;autoIncrement" json:"-"`
	StudentID        string        `gorm:"size:64;not null;uniqueIndex:ux_streak_student_date,priority:1" json:"student_id"`
	Date             calendar.Date `gorm:"column:streak_date;not null;uniqueIndex:ux_streak_student_date,priority:2" json:"date"`
	LessonsCompleted int           `gorm:"not null" json:"lessons_completed"`
	TimeSpent        time.Duration `gorm:"not null" json:"time_spent"`
	StreakCount      int           `gorm:"not null" json:"streak_count"`
}

func (StreakRecord) TableName() string { return "learning_streaks" }

// WeeklyRecord aggregates one Monday-started week.
type WeeklyRecord struct {
	ID               uint64        `gorm:"primaryKey;autoIncrement" json:"-"`
	StudentID        string        `gorm:"size:64;not null;uniqueIndex:ux_weekly_student_week,priority:1" json:"student_id"`
	WeekStart        calendar.Date `gorm:"not null;uniqueIndex:ux_weekly_student_week,priority:2" json:"week_start"`
	LessonsCompleted int           `gorm:"not null" json:"lessons_completed"`
	TotalTimeSpent   time.Duration `gorm:"not null" json:"total_time_spent"`
	AverageScore     float64       `gorm:"not null" json:"average_score"`
	ActiveDays       int           `gorm:"not null" json:"active_days"`
}

func (WeeklyRecord) TableName() string { return "weekly_progress" }

// MonthlyRecord aggregates one calendar month.
type MonthlyRecord struct {
	ID               uint64        `gorm:"primaryKey;autoIncrement" json:"-"`
	StudentID        string        `gorm:"size:64;not null;uniqueIndex:ux_monthly_student_month,priority:1" json:"student_id"`
	Year             int           `gorm:"not null;uniqueIndex:ux_monthly_student_month,priority:2" json:"year"`
	Month            int           `gorm:"not null;uniqueIndex:ux_monthly_student_month,priority:3" json:"month"`
	LessonsCompleted int           `gorm:"not null" json:"lessons_completed"`
	TotalTimeSpent   time.Duration `gorm:"not null" json:"total_time_spent"`
	AverageScore     float64       `gorm:"not null" json:"average_score"`
	ActiveDays       int           `gorm:"not null" json:"active_days"`
	MaxStreak        int           `gorm:"not null" json:"max_streak"`
}

func (MonthlyRecord) TableName() string { return "monthly_progress" }

// SubjectPerformanceRecord aggregates all-time progress in one lesson type.
type SubjectPerformanceRecord struct {
	ID               uint64           `gorm:"primaryKey;autoIncrement" json:"-"`
	StudentID        string           `gorm:"size:64;not null;uniqueIndex:ux_subject_student_type,priority:1" json:"student_id"`
	LessonType       types.LessonType `gorm:"size:20;not null;uniqueIndex:ux_subject_student_type,priority:2" json:"lesson_type"`
	TotalLessons     int              `gorm:"not null" json:"total_lessons"`
	CompletedLessons int              `gorm:"not null" json:"completed_lessons"`
	AverageScore     float64          `gorm:"not null" json:"average_score"`
	TotalTimeSpent   time.Duration    `gorm:"not null" json:"total_time_spent"`
}

func (SubjectPerformanceRecord) TableName() string { return "subject_performance" }

// CompletionPercentage is completed/total*100, or 0 when there are no lessons.
func (r SubjectPerformanceRecord) CompletionPercentage() float64 {
	if r.TotalLessons == 0 {
		return 0
	}
	return float64(r.CompletedLessons) / float64(r.TotalLessons) * 100
}

// ActivityLogEntry is an append-only timeline item.
type ActivityLogEntry struct {
	ID          uint64             `gorm:"primaryKey;autoIncrement" json:"id"`
	StudentID   string             `gorm:"size:64;not null;index:ix_activity_student_created,priority:1" json:"student_id"`
	Type        types.ActivityType `gorm:"column:activity_type;size:30;not null" json:"activity_type"`
	LessonID    *string            `gorm:"size:64" json:"lesson_id"`
	Description string             `gorm:"size:500;not null" json:"description"`
	CreatedAt   time.Time          `gorm:"not null;index:ix_activity_student_created,priority:2" json:"created_at"`
}

func (ActivityLogEntry) TableName() string { return "learning_activities" }

// NotificationSettings are a parent's delivery preferences.
type NotificationSettings struct {
	ParentID         string             `gorm:"primaryKey;size:64" json:"parent_id"`
	LessonCompletion types.Frequency    `gorm:"size:20;not null" json:"lesson_completion"`
	StreakMilestones types.Frequency    `gorm:"size:20;not null" json:"streak_milestones"`
	InactivityAlerts types.Frequency    `gorm:"size:20;not null" json:"inactivity_alerts"`
	WeeklySummary    bool               `gorm:"not null" json:"weekly_summary"`
	MonthlySummary   bool               `gorm:"not null" json:"monthly_summary"`
	InApp            bool               `gorm:"column:in_app_notifications;not null" json:"in_app_notifications"`
	QuietHoursStart  calendar.TimeOfDay `gorm:"size:5;not null" json:"quiet_hours_start"`
	QuietHoursEnd    calendar.TimeOfDay `gorm:"size:5;not null" json:"quiet_hours_end"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

func (NotificationSettings) TableName() string { return "notification_settings" }

// ParentNotification is a rendered notification addressed to a parent.
type ParentNotification struct {
	ID        string                   `gorm:"primaryKey;size:36" json:"id"`
	ParentID  string                   `gorm:"size:64;not null;index:ix_notification_parent_status,priority:1" json:"parent_id"`
	ChildID   string                   `gorm:"size:64;not null" json:"child_id"`
	Type      types.NotificationType   `gorm:"column:notification_type;size:30;not null" json:"notification_type"`
	Status    types.NotificationStatus `gorm:"size:20;not null;index:ix_notification_parent_status,priority:2" json:"status"`
	Title     string                   `gorm:"size:200;not null" json:"title"`
	Message   string                   `gorm:"type:text;not null" json:"message"`
	LessonID  *string                  `gorm:"size:64" json:"lesson_id,omitempty"`
	Data      datatypes.JSONMap        `json:"data"`
	SentInApp bool                     `gorm:"not null" json:"sent_in_app"`
	SentAt    *time.Time               `json:"sent_at,omitempty"`
	ReadAt    *time.Time               `json:"read_at,omitempty"`
	CreatedAt time.Time                `gorm:"not null;index" json:"created_at"`
}

func (ParentNotification) TableName() string { return "parent_notifications" }

// All returns every persisted model, in migration order.
func All() []interface{} {
	return []interface{}{
		&Lesson{}, &Parent{}, &Student{}, &ProgressRecord{},
		&StreakRecord{}, &WeeklyRecord{}, &MonthlyRecord{}, &SubjectPerformanceRecord{},
		&ActivityLogEntry{}, &NotificationSettings{}, &ParentNotification{},
	}
}
