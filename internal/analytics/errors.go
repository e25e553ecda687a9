package analytics

import "errors"

// Sentinel kinds for analytics errors.
var (
	ErrInvalidActivityType = errors.New("invalid activity type")
	ErrInvalidLessonType   = errors.New("invalid lesson type")
	ErrInvalidMonth        = errors.New("invalid month")
	ErrInvalidPeriod       = errors.New("invalid chart period")
)
