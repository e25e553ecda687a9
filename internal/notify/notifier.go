// Package notify renders and stores in-app notifications for parents about
// their children's learning.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/okian/pragati/internal/domain/calendar"
	"github.com/okian/pragati/internal/domain/model"
	"github.com/okian/pragati/internal/domain/types"
	"github.com/okian/pragati/pkg/logger"
	"github.com/okian/pragati/pkg/metrics"
)

// Store is the persistence the notifier needs.
type Store interface {
	GetParent(ctx context.Context, id string) (model.Parent, error)
	GetStudent(ctx context.Context, id string) (model.Student, error)
	StudentsWithParent(ctx context.Context) ([]model.Student, error)
	LastAccess(ctx context.Context, studentID string) (*time.Time, error)

	GetOrCreateSettings(ctx context.Context, defaults model.NotificationSettings) (model.NotificationSettings, error)
	SaveSettings(ctx context.Context, rec *model.NotificationSettings) error

	CreateNotification(ctx context.Context, n *model.ParentNotification) error
	MarkNotificationSent(ctx context.Context, id string, at time.Time) error
	MarkNotificationFailed(ctx context.Context, id string) error
	UnreadNotifications(ctx context.Context, parentID string, limit int) ([]model.ParentNotification, error)
	MarkAllRead(ctx context.Context, parentID string, at time.Time) (int64, error)
}

// Stats supplies the figures summaries report.
type Stats interface {
	CurrentStreak(ctx context.Context, studentID string) (int, error)
	UpdateWeekly(ctx context.Context, studentID string, weekStart *calendar.Date) (model.WeeklyRecord, error)
	UpdateMonthly(ctx context.Context, studentID string, year, month int) (model.MonthlyRecord, error)
}

// Notifier decides whether a notification is due, renders it and stores it.
type Notifier struct {
	store      Store
	stats      Stats
	clock      calendar.Clock
	loc        *time.Location
	log        logger.Logger
	quietStart calendar.TimeOfDay
	quietEnd   calendar.TimeOfDay
}

// Option applies a configuration option to the Notifier.
type Option func(*Notifier)

// WithClock sets the source of "now".
func WithClock(c calendar.Clock) Option {
	return func(n *Notifier) {
		if c != nil {
			n.clock = c
		}
	}
}

// WithLocation sets the zone quiet hours are read in.
func WithLocation(loc *time.Location) Option {
	return func(n *Notifier) {
		if loc != nil {
			n.loc = loc
		}
	}
}

// WithLogger sets the notifier logger.
func WithLogger(l logger.Logger) Option {
	return func(n *Notifier) {
		if l != nil {
			n.log = l
		}
	}
}

// WithQuietHours sets the quiet hours given to parents without settings.
func WithQuietHours(start, end calendar.TimeOfDay) Option {
	return func(n *Notifier) {
		n.quietStart = start
		n.quietEnd = end
	}
}

// New creates a Notifier.
func New(store Store, stats Stats, opts ...Option) *Notifier {
	n := &Notifier{
		store:      store,
		stats:      stats,
		clock:      calendar.SystemClock,
		loc:        time.UTC,
		log:        logger.NewNop(),
		quietStart: calendar.At(22, 0),
		quietEnd:   calendar.At(8, 0),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// DefaultSettings are the settings a parent starts with.
func (n *Notifier) DefaultSettings(parentID string) model.NotificationSettings {
	return model.NotificationSettings{
		ParentID:         parentID,
		LessonCompletion: types.FrequencyImmediate,
		StreakMilestones: types.FrequencyImmediate,
		InactivityAlerts: types.FrequencyDaily,
		WeeklySummary:    true,
		MonthlySummary:   true,
		InApp:            true,
		QuietHoursStart:  n.quietStart,
		QuietHoursEnd:    n.quietEnd,
	}
}

// Settings returns the parent's settings, creating the defaults on first use.
func (n *Notifier) Settings(ctx context.Context, parentID string) (model.NotificationSettings, error) {
	return n.store.GetOrCreateSettings(ctx, n.DefaultSettings(parentID))
}

// UpdateSettings validates and stores s.
func (n *Notifier) UpdateSettings(ctx context.Context, s model.NotificationSettings) (model.NotificationSettings, error) {
	for _, f := range []types.Frequency{s.LessonCompletion, s.StreakMilestones, s.InactivityAlerts} {
		if !f.Valid() {
			return model.NotificationSettings{}, fmt.Errorf("%w: frequency %q", ErrInvalidSettings, f)
		}
	}
	if err := n.store.SaveSettings(ctx, &s); err != nil {
		return model.NotificationSettings{}, fmt.Errorf("save settings for %s: %w", s.ParentID, err)
	}
	return n.Settings(ctx, s.ParentID)
}

// frequency maps each notification type onto the setting that governs it.
// Summary types are governed by on/off flags instead.
func frequency(s model.NotificationSettings, t types.NotificationType) (types.Frequency, bool) {
	switch t {
	case types.NotifyLessonComplete, types.NotifyQuizPassed:
		return s.LessonCompletion, true
	case types.NotifyStreakMilestone:
		return s.StreakMilestones, true
	case types.NotifyInactivity:
		return s.InactivityAlerts, true
	}
	return "", false
}

// enabled reports whether s allows notifications of type t at all.
func enabled(s model.NotificationSettings, t types.NotificationType) bool {
	switch t {
	case types.NotifyWeeklySummary:
		return s.WeeklySummary
	case types.NotifyMonthlySummary:
		return s.MonthlySummary
	}
	if f, ok := frequency(s, t); ok {
		return f != types.FrequencyNever
	}
	return true
}

// immediate reports whether a notification of type t is delivered as soon as
// it is created. Daily and weekly types wait as pending for a digest.
func immediate(s model.NotificationSettings, t types.NotificationType) bool {
	f, ok := frequency(s, t)
	return !ok || f == types.FrequencyImmediate
}

// Allowed reports whether a notification of type t may be created at now.
func (n *Notifier) Allowed(s model.NotificationSettings, t types.NotificationType, now time.Time) bool {
	if calendar.TimeOfDayOf(now, n.loc).Within(s.QuietHoursStart, s.QuietHoursEnd) {
		return false
	}
	return enabled(s, t)
}

// Notify renders a notification of type t about child for the child's parent
// and stores it. Extra template values go in vars and are kept as the
// notification's data.
func (n *Notifier) Notify(ctx context.Context, childID string, t types.NotificationType, lesson *model.Lesson, vars map[string]interface{}) (*model.ParentNotification, error) {
	child, err := n.store.GetStudent(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("child %s: %w", childID, err)
	}
	if child.ParentID == nil {
		return nil, ErrNoParent
	}
	parentID := *child.ParentID
	now := n.clock()

	settings, err := n.Settings(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("settings for %s: %w", parentID, err)
	}
	if !n.Allowed(settings, t, now) {
		metrics.RecordNotification(string(t), "suppressed")
		return nil, ErrSuppressed
	}

	parentName := parentID
	if parent, err := n.store.GetParent(ctx, parentID); err == nil {
		parentName = parent.Name
	}
	data := datatypes.JSONMap{}
	for k, v := range vars {
		data[k] = v
	}
	values := map[string]interface{}{
		"child_name":   child.Name,
		"parent_name":  parentName,
		"lesson_title": "",
	}
	var lessonID *string
	if lesson != nil {
		values["lesson_title"] = lesson.Title
		id := lesson.ID
		lessonID = &id
	}
	for k, v := range vars {
		values[k] = v
	}
	title, message, err := render(t, values)
	if err != nil {
		return nil, err
	}

	rec := &model.ParentNotification{
		ID:        uuid.NewString(),
		ParentID:  parentID,
		ChildID:   childID,
		Type:      t,
		Status:    types.StatusPending,
		Title:     title,
		Message:   message,
		LessonID:  lessonID,
		Data:      data,
		CreatedAt: now,
	}
	if err := n.store.CreateNotification(ctx, rec); err != nil {
		return nil, fmt.Errorf("store %s notification: %w", t, err)
	}

	if settings.InApp && immediate(settings, t) {
		n.deliver(ctx, rec, now)
	}
	metrics.RecordNotification(string(t), string(rec.Status))
	return rec, nil
}

// deliver marks rec as sent in-app. A failure is recorded on the
// notification rather than returned.
func (n *Notifier) deliver(ctx context.Context, rec *model.ParentNotification, now time.Time) {
	if err := n.store.MarkNotificationSent(ctx, rec.ID, now); err != nil {
		n.log.Error(ctx, "failed to deliver notification",
			logger.String("notification_id", rec.ID),
			logger.String("parent_id", rec.ParentID),
			logger.Error(err))
		if ferr := n.store.MarkNotificationFailed(ctx, rec.ID); ferr != nil {
			n.log.Warn(ctx, "failed to mark notification failed", logger.Error(ferr))
		}
		rec.Status = types.StatusFailed
		return
	}
	sentAt := now
	rec.Status = types.StatusSent
	rec.SentInApp = true
	rec.SentAt = &sentAt
	n.log.Info(ctx, "notification sent",
		logger.String("notification_id", rec.ID),
		logger.String("parent_id", rec.ParentID),
		logger.String("type", string(rec.Type)))
}

// Unread lists the parent's pending and sent notifications, newest first.
func (n *Notifier) Unread(ctx context.Context, parentID string, limit int) ([]model.ParentNotification, error) {
	return n.store.UnreadNotifications(ctx, parentID, limit)
}

// MarkAllRead marks every unread notification of the parent as read.
func (n *Notifier) MarkAllRead(ctx context.Context, parentID string) (int64, error) {
	return n.store.MarkAllRead(ctx, parentID, n.clock())
}
