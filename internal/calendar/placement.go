package calendar

import (
	"fmt"
	"sort"
	"time"

	"caredesk/internal/model"
)

// Position is the vertical placement of an appointment inside a day
// column, as percentages of the displayed window height. Visible is
// false when the appointment lies entirely outside the window; the
// caller renders an overflow indicator instead of a zero-height block.
type Position struct {
	TopPercent    float64 `json:"top_percent"`
	HeightPercent float64 `json:"height_percent"`
	Visible       bool    `json:"visible"`
}

// AppointmentsOnDate returns the appointments whose start instant falls
// on the same local calendar day as date, ordered by start time
// ascending with ties broken by ID.
func AppointmentsOnDate(appts []model.Appointment, date time.Time) []model.Appointment {
	var out []model.Appointment
	for _, a := range appts {
		if a.IsSameDay(date) {
			out = append(out, a)
		}
	}
	sortAppointments(out)
	return out
}

// AppointmentsInRange returns the appointments whose start instant falls
// in [rangeStart, rangeEnd), ordered like AppointmentsOnDate.
func AppointmentsInRange(appts []model.Appointment, rangeStart, rangeEnd time.Time) []model.Appointment {
	var out []model.Appointment
	for _, a := range appts {
		if !a.StartTime.Before(rangeStart) && a.StartTime.Before(rangeEnd) {
			out = append(out, a)
		}
	}
	sortAppointments(out)
	return out
}

// GridPosition linear-maps the appointment's [start, end] interval onto
// the [dayStartHour, dayEndHour] window of its start date. Partially
// visible appointments are clamped to the window boundary; fully
// invisible ones yield Visible=false rather than an error.
func GridPosition(a model.Appointment, dayStartHour, dayEndHour int) (Position, error) {
	if dayStartHour < 0 || dayEndHour > 24 || dayStartHour >= dayEndHour {
		return Position{}, fmt.Errorf("grid position: hours %d-%d: %w", dayStartHour, dayEndHour, ErrInvalidConfiguration)
	}
	if err := a.Validate(); err != nil {
		return Position{}, err
	}

	day := StartOfDay(a.StartTime)
	windowStart := day.Add(time.Duration(dayStartHour) * time.Hour)
	windowEnd := day.Add(time.Duration(dayEndHour) * time.Hour)

	if !a.EndTime.After(windowStart) || !a.StartTime.Before(windowEnd) {
		return Position{}, nil
	}

	start := a.StartTime
	if start.Before(windowStart) {
		start = windowStart
	}
	end := a.EndTime
	if end.After(windowEnd) {
		end = windowEnd
	}

	total := windowEnd.Sub(windowStart).Minutes()
	return Position{
		TopPercent:    start.Sub(windowStart).Minutes() / total * 100,
		HeightPercent: end.Sub(start).Minutes() / total * 100,
		Visible:       true,
	}, nil
}

func sortAppointments(appts []model.Appointment) {
	sort.Slice(appts, func(i, j int) bool {
		if appts[i].StartTime.Equal(appts[j].StartTime) {
			return appts[i].ID < appts[j].ID
		}
		return appts[i].StartTime.Before(appts[j].StartTime)
	})
}
