package calendar

import (
	"fmt"
	"time"
)

// ViewMode selects how the cursor moves and which grid is rendered.
type ViewMode string

const (
	ViewMonth ViewMode = "month"
	ViewWeek  ViewMode = "week"
	ViewDay   ViewMode = "day"
)

// ParseViewMode validates a wire view-mode tag at the API boundary.
func ParseViewMode(s string) (ViewMode, error) {
	switch ViewMode(s) {
	case ViewMonth, ViewWeek, ViewDay:
		return ViewMode(s), nil
	}
	return "", fmt.Errorf("view mode %q: %w", s, ErrInvalidConfiguration)
}

// Cursor is the reference point of a calendar view. It is a value: the
// navigation methods return a new cursor and never mutate shared state.
type Cursor struct {
	Date time.Time `json:"date"`
	Mode ViewMode  `json:"mode"`
}

// Next moves the cursor forward by one unit of its view mode. Month
// moves keep the day-of-month, clamped to the last valid day of the
// target month (Jan 31 -> Feb 28/29, never Mar 3).
func (c Cursor) Next() Cursor {
	return c.step(1)
}

// Previous moves the cursor backward by one unit of its view mode.
func (c Cursor) Previous() Cursor {
	return c.step(-1)
}

func (c Cursor) step(dir int) Cursor {
	switch c.Mode {
	case ViewMonth:
		c.Date = addMonthsClamped(c.Date, dir)
	case ViewWeek:
		c.Date = c.Date.AddDate(0, 0, 7*dir)
	case ViewDay:
		c.Date = c.Date.AddDate(0, 0, dir)
	}
	return c
}

// Today returns a cursor at the current date for the given mode. The
// clock is passed in so tests stay deterministic.
func Today(mode ViewMode, now func() time.Time) Cursor {
	return Cursor{Date: StartOfDay(now()), Mode: mode}
}

// addMonthsClamped shifts t by months whole months without the
// normalization AddDate would apply to out-of-range days.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month := t.Year(), int(t.Month())-1+months
	year += month / 12
	month %= 12
	if month < 0 {
		month += 12
		year--
	}
	target := time.Month(month + 1)

	day := t.Day()
	if max := daysIn(target, year); day > max {
		day = max
	}
	return time.Date(year, target, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
