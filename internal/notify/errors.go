package notify

import "errors"

// Sentinel kinds for notification errors.
var (
	// ErrSuppressed means the parent's settings or quiet hours ruled the
	// notification out. Nothing was stored.
	ErrSuppressed = errors.New("notification suppressed")
	// ErrNoParent means the child has no linked parent to notify.
	ErrNoParent = errors.New("child has no parent")

	ErrInvalidSettings = errors.New("invalid notification settings")
	ErrInvalidType     = errors.New("invalid notification type")
)

// Skipped reports whether err only means no notification was due.
func Skipped(err error) bool {
	return errors.Is(err, ErrSuppressed) || errors.Is(err, ErrNoParent)
}
