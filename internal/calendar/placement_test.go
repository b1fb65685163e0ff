package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caredesk/internal/model"
)

func appt(id string, start, end time.Time) model.Appointment {
	return model.Appointment{
		ID:        id,
		Status:    model.StatusScheduled,
		StartTime: start,
		EndTime:   end,
	}
}

func at(day, hour, min int) time.Time {
	return time.Date(2025, 11, day, hour, min, 0, 0, time.UTC)
}

func TestAppointmentsOnDate(t *testing.T) {
	appts := []model.Appointment{
		appt("b", at(10, 14, 0), at(10, 15, 0)),
		appt("a", at(11, 9, 0), at(11, 10, 0)),
		appt("c", at(10, 9, 0), at(10, 9, 30)),
	}

	nov10 := AppointmentsOnDate(appts, date(2025, 11, 10))
	require.Len(t, nov10, 2)
	assert.Equal(t, "c", nov10[0].ID)
	assert.Equal(t, "b", nov10[1].ID)

	assert.Empty(t, AppointmentsOnDate(appts, date(2025, 11, 12)))
}

func TestAppointmentsOnDate_Deterministic(t *testing.T) {
	appts := []model.Appointment{
		appt("z", at(10, 9, 0), at(10, 9, 30)),
		appt("a", at(10, 9, 0), at(10, 9, 30)),
	}

	first := AppointmentsOnDate(appts, date(2025, 11, 10))
	second := AppointmentsOnDate(appts, date(2025, 11, 10))
	assert.Equal(t, first, second)
	// Equal starts break ties by ID.
	assert.Equal(t, "a", first[0].ID)
	assert.Equal(t, "z", first[1].ID)
}

func TestAppointmentsInRange(t *testing.T) {
	appts := []model.Appointment{
		appt("a", at(9, 9, 0), at(9, 10, 0)),
		appt("b", at(10, 0, 0), at(10, 1, 0)),
		appt("c", at(12, 0, 0), at(12, 1, 0)),
	}

	// Inclusive of rangeStart, exclusive of rangeEnd.
	got := AppointmentsInRange(appts, date(2025, 11, 10), date(2025, 11, 12))
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}

func TestGridPosition_OneHourInThirteenHourWindow(t *testing.T) {
	pos, err := GridPosition(appt("a", at(10, 8, 0), at(10, 9, 0)), 7, 20)
	require.NoError(t, err)
	assert.True(t, pos.Visible)
	assert.InDelta(t, 100.0/13, pos.TopPercent, 1e-9)
	assert.InDelta(t, 100.0/13, pos.HeightPercent, 1e-9)
}

func TestGridPosition_ClampsToWindow(t *testing.T) {
	// Starts before the window opens: top clamps to 0.
	early, err := GridPosition(appt("a", at(10, 6, 0), at(10, 8, 0)), 7, 20)
	require.NoError(t, err)
	assert.True(t, early.Visible)
	assert.Zero(t, early.TopPercent)
	assert.InDelta(t, 100.0/13, early.HeightPercent, 1e-9)

	// Ends after the window closes: bottom clamps to 100.
	late, err := GridPosition(appt("b", at(10, 19, 0), at(10, 21, 0)), 7, 20)
	require.NoError(t, err)
	assert.True(t, late.Visible)
	assert.InDelta(t, 100.0*12/13, late.TopPercent, 1e-9)
	assert.InDelta(t, 100.0/13, late.HeightPercent, 1e-9)
}

func TestGridPosition_NotVisibleOutsideWindow(t *testing.T) {
	// Entirely before the window: distinct from a clamped zero-height block.
	before, err := GridPosition(appt("a", at(10, 5, 0), at(10, 6, 30)), 7, 20)
	require.NoError(t, err)
	assert.False(t, before.Visible)

	after, err := GridPosition(appt("b", at(10, 21, 0), at(10, 22, 0)), 7, 20)
	require.NoError(t, err)
	assert.False(t, after.Visible)

	// Ending exactly at window start is still invisible (half-open).
	boundary, err := GridPosition(appt("c", at(10, 6, 0), at(10, 7, 0)), 7, 20)
	require.NoError(t, err)
	assert.False(t, boundary.Visible)
}

func TestGridPosition_RejectsInvalidInput(t *testing.T) {
	_, err := GridPosition(appt("a", at(10, 9, 0), at(10, 9, 0)), 7, 20)
	assert.ErrorIs(t, err, model.ErrInvalidAppointment)

	_, err = GridPosition(appt("a", at(10, 9, 0), at(10, 10, 0)), 20, 7)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}
