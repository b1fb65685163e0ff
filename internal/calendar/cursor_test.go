package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_MonthNavigationClampsDay(t *testing.T) {
	// Mar 31 back one month lands on Feb 28 (2025 is not a leap year),
	// never on Mar 3.
	c := Cursor{Date: date(2025, 3, 31), Mode: ViewMonth}
	prev := c.Previous()
	assert.Equal(t, date(2025, 2, 28), prev.Date)

	leap := Cursor{Date: date(2024, 3, 31), Mode: ViewMonth}
	assert.Equal(t, date(2024, 2, 29), leap.Previous().Date)

	// Jan 31 forward clamps the same way.
	jan := Cursor{Date: date(2025, 1, 31), Mode: ViewMonth}
	assert.Equal(t, date(2025, 2, 28), jan.Next().Date)
}

func TestCursor_MonthNavigationCrossesYear(t *testing.T) {
	c := Cursor{Date: date(2025, 12, 15), Mode: ViewMonth}
	assert.Equal(t, date(2026, 1, 15), c.Next().Date)

	c = Cursor{Date: date(2025, 1, 15), Mode: ViewMonth}
	assert.Equal(t, date(2024, 12, 15), c.Previous().Date)
}

func TestCursor_WeekAndDayNavigation(t *testing.T) {
	week := Cursor{Date: date(2025, 11, 10), Mode: ViewWeek}
	assert.Equal(t, date(2025, 11, 17), week.Next().Date)
	assert.Equal(t, date(2025, 11, 3), week.Previous().Date)

	day := Cursor{Date: date(2025, 11, 1), Mode: ViewDay}
	assert.Equal(t, date(2025, 11, 2), day.Next().Date)
	assert.Equal(t, date(2025, 10, 31), day.Previous().Date)
}

func TestCursor_RoundTrip(t *testing.T) {
	for _, mode := range []ViewMode{ViewMonth, ViewWeek, ViewDay} {
		c := Cursor{Date: date(2025, 11, 15), Mode: mode}
		assert.Equal(t, c, c.Previous().Next(), "mode %s", mode)
		assert.Equal(t, c, c.Next().Previous(), "mode %s", mode)
	}
}

func TestCursor_RoundTripClampingEdge(t *testing.T) {
	// Jan 31 -> Feb 28 -> Mar 28: the round trip does not restore the
	// day-of-month once clamping happened. It must still never overflow
	// into the wrong month.
	c := Cursor{Date: date(2025, 1, 31), Mode: ViewMonth}
	back := c.Next().Previous()
	assert.Equal(t, time.January, back.Date.Month())
	assert.Equal(t, 28, back.Date.Day())
}

func TestToday(t *testing.T) {
	now := func() time.Time { return time.Date(2025, 11, 10, 16, 45, 12, 0, time.UTC) }
	c := Today(ViewWeek, now)
	assert.Equal(t, date(2025, 11, 10), c.Date)
	assert.Equal(t, ViewWeek, c.Mode)
}

func TestParseViewMode(t *testing.T) {
	m, err := ParseViewMode("month")
	require.NoError(t, err)
	assert.Equal(t, ViewMonth, m)

	_, err = ParseViewMode("year")
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}
