package calendar

import (
	"fmt"
	"time"
)

// Presentational helpers for view headers. Locale-agnostic and pure.

// FormatMonthYear renders a month-view header like "November 2025".
func FormatMonthYear(t time.Time) string {
	return t.Format("January 2006")
}

// FormatWeekRange renders a week-view header for the span [start, end].
func FormatWeekRange(start, end time.Time) string {
	switch {
	case start.Year() != end.Year():
		return fmt.Sprintf("%s – %s", start.Format("Jan 2, 2006"), end.Format("Jan 2, 2006"))
	case start.Month() != end.Month():
		return fmt.Sprintf("%s – %s", start.Format("Jan 2"), end.Format("Jan 2, 2006"))
	default:
		return fmt.Sprintf("%s – %d, %d", start.Format("Jan 2"), end.Day(), end.Year())
	}
}

// FormatDayHeader renders a day-column header like "Mon, Nov 10".
func FormatDayHeader(t time.Time) string {
	return t.Format("Mon, Jan 2")
}

// FormatTime renders a slot or appointment time like "09:30".
func FormatTime(t time.Time) string {
	return t.Format("15:04")
}

// FormatRelativeDate classifies date against now as "Today", "Tomorrow"
// or a short calendar date. Only the calendar day matters, not the
// time of day.
func FormatRelativeDate(date, now time.Time) string {
	switch {
	case SameDay(date, now):
		return "Today"
	case SameDay(date, now.AddDate(0, 0, 1)):
		return "Tomorrow"
	}
	if date.Year() != now.Year() {
		return date.Format("Jan 2, 2006")
	}
	return date.Format("Jan 2")
}
