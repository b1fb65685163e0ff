package model

import (
	"fmt"
	"time"
)

// Appointment represents a scheduled clinical encounter.
//
// Start and End are timezone-naive local instants; End must be strictly
// after Start. Appointments are never deleted here, only transitioned
// between statuses or rescheduled.
type Appointment struct {
	ID          string          `json:"id"`
	PatientID   string          `json:"patient_id"`
	PatientName string          `json:"patient_name"`
	Type        AppointmentType `json:"type"`
	Status      Status          `json:"status"`
	StartTime   time.Time       `json:"start_time"`
	EndTime     time.Time       `json:"end_time"`
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description,omitempty"`
	Location    string          `json:"location,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Validate checks the temporal invariant End > Start.
func (a *Appointment) Validate() error {
	if !a.EndTime.After(a.StartTime) {
		return fmt.Errorf("appointment %s: end %s is not after start %s: %w",
			a.ID, a.EndTime.Format(time.RFC3339), a.StartTime.Format(time.RFC3339), ErrInvalidAppointment)
	}
	return nil
}

// Duration returns the appointment length.
func (a *Appointment) Duration() time.Duration {
	return a.EndTime.Sub(a.StartTime)
}

// OverlapsWith reports half-open interval overlap with another appointment.
// Back-to-back appointments (a.End == b.Start) do not overlap.
func (a *Appointment) OverlapsWith(b *Appointment) bool {
	return a.StartTime.Before(b.EndTime) && b.StartTime.Before(a.EndTime)
}

// ContainsTime reports whether t falls within [Start, End).
func (a *Appointment) ContainsTime(t time.Time) bool {
	return !t.Before(a.StartTime) && t.Before(a.EndTime)
}

// IsSameDay reports whether the appointment starts on the given local calendar day.
func (a *Appointment) IsSameDay(date time.Time) bool {
	y1, m1, d1 := a.StartTime.Date()
	y2, m2, d2 := date.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// Transition moves the appointment to a new status if the lifecycle allows it.
func (a *Appointment) Transition(to Status) error {
	if !CanTransition(a.Status, to) {
		return fmt.Errorf("status %s -> %s: %w", a.Status, to, ErrInvalidTransition)
	}
	a.Status = to
	return nil
}

// Reschedule changes the appointment window, re-validating Start < End.
// Terminal-status appointments cannot be rescheduled.
func (a *Appointment) Reschedule(start, end time.Time) error {
	if a.Status.Terminal() {
		return fmt.Errorf("appointment %s has terminal status %s: %w", a.ID, a.Status, ErrInvalidTransition)
	}
	if !end.After(start) {
		return fmt.Errorf("reschedule of %s: end %s is not after start %s: %w",
			a.ID, end.Format(time.RFC3339), start.Format(time.RFC3339), ErrInvalidAppointment)
	}
	a.StartTime = start
	a.EndTime = end
	return nil
}
