package calendar

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"
)

const minutesPerDay = 24 * 60

// ErrInvalidTimeOfDay is returned for strings that are not HH:MM.
var ErrInvalidTimeOfDay = errors.New("invalid time of day")

// TimeOfDay is a wall clock time with minute precision, stored as "HH:MM".
type TimeOfDay struct {
	minutes int
}

// At builds a TimeOfDay from hour and minute.
func At(hour, minute int) TimeOfDay {
	return TimeOfDay{minutes: ((hour*60+minute)%minutesPerDay + minutesPerDay) % minutesPerDay}
}

// TimeOfDayOf returns the wall clock time of t in loc.
func TimeOfDayOf(t time.Time, loc *time.Location) TimeOfDay {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return At(t.Hour(), t.Minute())
}

// ParseTimeOfDay reads "HH:MM" (24h).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	return At(t.Hour(), t.Minute()), nil
}

// MustTimeOfDay is ParseTimeOfDay for constants.
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) Hour() int   { return t.minutes / 60 }
func (t TimeOfDay) Minute() int { return t.minutes % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Within reports whether t lies in the window that starts at start and ends
// (exclusive) at end, wrapping past midnight when end <= start.
// An empty window (start == end) contains nothing.
func (t TimeOfDay) Within(start, end TimeOfDay) bool {
	switch {
	case start.minutes == end.minutes:
		return false
	case start.minutes < end.minutes:
		return t.minutes >= start.minutes && t.minutes < end.minutes
	default:
		return t.minutes >= start.minutes || t.minutes < end.minutes
	}
}

func (t TimeOfDay) Value() (driver.Value, error) { return t.String(), nil }

func (t *TimeOfDay) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case time.Time:
		*t = At(v.Hour(), v.Minute())
		return nil
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidTimeOfDay, src)
	}
	if len(s) > 5 {
		s = s[:5]
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// GormDataType keeps the column portable across drivers.
func (TimeOfDay) GormDataType() string { return "string" }

func (t TimeOfDay) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
