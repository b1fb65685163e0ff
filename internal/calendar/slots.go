package calendar

import (
	"fmt"
	"time"
)

// TimeSlots returns the ordered slot start instants for a day, beginning
// at startHour:00 and stepping by slotMinutes. Only slots that fit
// entirely before endHour:00 are produced, so the last start is always
// strictly before endHour. Slots are contiguous, non-overlapping and
// strictly increasing.
func TimeSlots(date time.Time, startHour, endHour, slotMinutes int) ([]time.Time, error) {
	if startHour < 0 || endHour > 24 {
		return nil, fmt.Errorf("time slots: hours %d-%d out of range: %w", startHour, endHour, ErrInvalidConfiguration)
	}
	if startHour >= endHour {
		return nil, fmt.Errorf("time slots: start hour %d >= end hour %d: %w", startHour, endHour, ErrInvalidConfiguration)
	}
	if slotMinutes <= 0 {
		return nil, fmt.Errorf("time slots: slot duration %d must be positive: %w", slotMinutes, ErrInvalidConfiguration)
	}

	day := StartOfDay(date)
	cursor := day.Add(time.Duration(startHour) * time.Hour)
	end := day.Add(time.Duration(endHour) * time.Hour)
	step := time.Duration(slotMinutes) * time.Minute

	var slots []time.Time
	for ; !cursor.Add(step).After(end); cursor = cursor.Add(step) {
		slots = append(slots, cursor)
	}
	return slots, nil
}

// SlotsForSettings is TimeSlots driven by a Settings value.
func SlotsForSettings(date time.Time, s Settings) ([]time.Time, error) {
	return TimeSlots(date, s.StartHour, s.EndHour, s.SlotDurationMinutes)
}
