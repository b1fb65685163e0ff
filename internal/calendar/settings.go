// Package calendar implements the scheduling math behind the provider
// dashboard's month/week/day views: date grids, time-slot partitioning,
// appointment placement and conflict detection.
//
// Every function here is pure and synchronous. The only time-dependent
// helpers (Today, FormatRelativeDate) take the current instant as an
// explicit argument so callers and tests control the clock.
package calendar

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfiguration is returned for malformed settings such as
// startHour >= endHour or an out-of-range week start. It signals a
// programming or config error, never a transient condition.
var ErrInvalidConfiguration = errors.New("invalid calendar configuration")

// Settings configures grid and slot generation. Immutable once built.
type Settings struct {
	StartHour           int            `yaml:"start_hour" json:"start_hour"`
	EndHour             int            `yaml:"end_hour" json:"end_hour"`
	SlotDurationMinutes int            `yaml:"slot_duration_minutes" json:"slot_duration_minutes"`
	WeekStartsOn        time.Weekday   `yaml:"week_starts_on" json:"week_starts_on"`
	WorkingDays         []time.Weekday `yaml:"working_days" json:"working_days"`
	ShowWeekends        bool           `yaml:"show_weekends" json:"show_weekends"`
	AllowDoubleBooking  bool           `yaml:"allow_double_booking" json:"allow_double_booking"`
}

// DefaultSettings returns the settings used when the config file has no
// calendar section.
func DefaultSettings() Settings {
	return Settings{
		StartHour:           8,
		EndHour:             18,
		SlotDurationMinutes: 30,
		WeekStartsOn:        time.Sunday,
		WorkingDays: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
		},
		ShowWeekends:       true,
		AllowDoubleBooking: false,
	}
}

// Validate checks all invariants at once so a bad config fails at load
// time rather than at the first view render.
func (s Settings) Validate() error {
	if s.StartHour < 0 || s.StartHour > 23 {
		return fmt.Errorf("start_hour %d out of range [0,23]: %w", s.StartHour, ErrInvalidConfiguration)
	}
	if s.EndHour < 0 || s.EndHour > 23 {
		return fmt.Errorf("end_hour %d out of range [0,23]: %w", s.EndHour, ErrInvalidConfiguration)
	}
	if s.StartHour >= s.EndHour {
		return fmt.Errorf("start_hour %d >= end_hour %d: %w", s.StartHour, s.EndHour, ErrInvalidConfiguration)
	}
	if s.SlotDurationMinutes <= 0 {
		return fmt.Errorf("slot_duration_minutes %d must be positive: %w", s.SlotDurationMinutes, ErrInvalidConfiguration)
	}
	if err := validateWeekday(s.WeekStartsOn); err != nil {
		return fmt.Errorf("week_starts_on: %w", err)
	}
	for _, d := range s.WorkingDays {
		if err := validateWeekday(d); err != nil {
			return fmt.Errorf("working_days: %w", err)
		}
	}
	return nil
}

// IsWorkingDay reports whether the weekday of date is configured as working.
func (s Settings) IsWorkingDay(date time.Time) bool {
	for _, d := range s.WorkingDays {
		if date.Weekday() == d {
			return true
		}
	}
	return false
}

func validateWeekday(d time.Weekday) error {
	if d < time.Sunday || d > time.Saturday {
		return fmt.Errorf("weekday %d out of range [0,6]: %w", d, ErrInvalidConfiguration)
	}
	return nil
}
