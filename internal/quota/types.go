package quota

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the ISO-8601 calendar date layout used for quota days.
const DateLayout = "2006-01-02"

var (
	// ErrInvalidConfig indicates a guard was constructed with unusable settings.
	ErrInvalidConfig = errors.New("quota: invalid config")
	// ErrQuotaExceeded matches any *ExceededError via errors.Is.
	ErrQuotaExceeded = errors.New("quota: daily limit reached")
)

// ExceededError is returned when the budget for the current day is spent.
type ExceededError struct {
	Limit int
	Date  time.Time
}

// Error implements error.
func (e *ExceededError) Error() string {
	return fmt.Sprintf("daily API limit reached (%d calls)", e.Limit)
}

// Is reports whether target is ErrQuotaExceeded.
func (e *ExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}

// Snapshot describes guard usage at a point in time.
type Snapshot struct {
	UsedToday   int
	Limit       int
	CurrentDate time.Time
}

// Remaining returns the calls left for the snapshot's day.
func (s Snapshot) Remaining() int {
	if s.UsedToday >= s.Limit {
		return 0
	}
	return s.Limit - s.UsedToday
}

// DateString formats the snapshot day as YYYY-MM-DD.
func (s Snapshot) DateString() string {
	return s.CurrentDate.Format(DateLayout)
}
