package analytics

import (
	"context"
	"fmt"

	"github.com/okian/pragati/internal/domain/model"
	"github.com/okian/pragati/internal/domain/types"
	"github.com/okian/pragati/pkg/metrics"
)

// LogActivity appends one timeline entry. It never touches aggregates.
func (e *Engine) LogActivity(ctx context.Context, studentID string, activityType types.ActivityType, lessonID *string, description string) error {
	if !activityType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidActivityType, activityType)
	}
	entry := model.ActivityLogEntry{
		StudentID:   studentID,
		Type:        activityType,
		LessonID:    lessonID,
		Description: description,
		CreatedAt:   e.clock(),
	}
	if err := e.store.AppendActivity(ctx, &entry); err != nil {
		return fmt.Errorf("log %s for %s: %w", activityType, studentID, err)
	}
	metrics.RecordActivity(string(activityType))
	return nil
}

// Activities returns the student's latest entries, newest first.
func (e *Engine) Activities(ctx context.Context, studentID string, limit int) ([]model.ActivityLogEntry, error) {
	return e.store.Activities(ctx, studentID, limit)
}
