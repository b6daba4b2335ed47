package ledger

import (
	"fmt"
	"time"

	"github.com/foodzone/foodzone-pos/internal/shared"
)

// DateLayout is the calendar day format used for periods and query params.
const DateLayout = "2006-01-02"

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Day returns the calendar day containing t in loc.
func Day(t time.Time, loc *time.Location) Window {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return Window{Start: start, End: start.AddDate(0, 0, 1)}
}

// ParseDay parses a YYYY-MM-DD string into the window covering that day.
func ParseDay(value string, loc *time.Location) (Window, error) {
	if loc == nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return Window{}, fmt.Errorf("ledger: invalid date %q: %w", value, shared.ErrValidation)
	}
	return Day(day, loc), nil
}

// ErrInvalidRange is returned when the end day precedes the start day.
var ErrInvalidRange = fmt.Errorf("ledger: end date before start date: %w", shared.ErrValidation)

// ParseRange builds a window from start day through end day inclusive.
func ParseRange(start, end string, loc *time.Location) (Window, error) {
	from, err := ParseDay(start, loc)
	if err != nil {
		return Window{}, err
	}
	to, err := ParseDay(end, loc)
	if err != nil {
		return Window{}, err
	}
	if to.Start.Before(from.Start) {
		return Window{}, ErrInvalidRange
	}
	return Window{Start: from.Start, End: to.End}, nil
}

// Contains reports whether t falls inside the window. Nil never matches.
func (w Window) Contains(t *time.Time) bool {
	if t == nil {
		return false
	}
	return !t.Before(w.Start) && t.Before(w.End)
}

// Precedes reports whether t is strictly before the window start.
func (w Window) Precedes(t time.Time) bool {
	return t.Before(w.Start)
}

// Label renders the window start as a calendar day.
func (w Window) Label() string {
	return w.Start.Format(DateLayout)
}
