package calendar

import (
	"fmt"
	"time"
)

// MonthGrid returns the cells for a month view as a sequence of dates
// (at local midnight) covering the full weeks that contain the first and
// last day of ref's month. A nil entry is a padding cell outside the
// month; the caller decides how to render it. The length is always a
// multiple of 7; months may need 4, 5 or 6 displayed weeks.
func MonthGrid(ref time.Time, weekStartsOn time.Weekday) ([]*time.Time, error) {
	if err := validateWeekday(weekStartsOn); err != nil {
		return nil, fmt.Errorf("month grid: %w", err)
	}

	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	lead := int(first.Weekday()-weekStartsOn+7) % 7
	days := daysIn(ref.Month(), ref.Year())

	cells := make([]*time.Time, 0, 42)
	for i := 0; i < lead; i++ {
		cells = append(cells, nil)
	}
	for day := 1; day <= days; day++ {
		d := time.Date(ref.Year(), ref.Month(), day, 0, 0, 0, 0, ref.Location())
		cells = append(cells, &d)
	}
	for len(cells)%7 != 0 {
		cells = append(cells, nil)
	}
	return cells, nil
}

// WeekDays returns the 7 consecutive dates (at local midnight) of the
// calendar week containing ref, starting on weekStartsOn.
func WeekDays(ref time.Time, weekStartsOn time.Weekday) ([]time.Time, error) {
	if err := validateWeekday(weekStartsOn); err != nil {
		return nil, fmt.Errorf("week days: %w", err)
	}

	start := StartOfDay(ref).AddDate(0, 0, -int(ref.Weekday()-weekStartsOn+7)%7)
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days, nil
}

// StartOfDay truncates t to local midnight.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same local calendar day.
func SameDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func daysIn(m time.Month, year int) int {
	switch m {
	case time.February:
		if (year%4 == 0 && year%100 != 0) || year%400 == 0 {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}
