package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for appointment validation and lifecycle.
var (
	ErrInvalidAppointment = errors.New("invalid appointment")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrUnknownStatus      = errors.New("unknown appointment status")
	ErrUnknownType        = errors.New("unknown appointment type")
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

func (s Status) String() string { return string(s) }

// transitions holds the allowed status transitions.
var transitions = map[Status][]Status{
	StatusScheduled: {StatusCompleted, StatusCancelled, StatusNoShow},
	StatusCompleted: {},
	StatusCancelled: {},
	StatusNoShow:    {},
}

// CanTransition checks if a status transition is allowed.
func CanTransition(from, to Status) bool {
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// ParseStatus validates a wire status tag at the API boundary.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow:
		return Status(s), nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownStatus)
}

// AppointmentType is the clinical category of an appointment,
// used by the UI for color-coding and filtering.
type AppointmentType string

const (
	TypeCheckup      AppointmentType = "checkup"
	TypeFollowUp     AppointmentType = "follow_up"
	TypeConsultation AppointmentType = "consultation"
	TypeProcedure    AppointmentType = "procedure"
	TypeTelehealth   AppointmentType = "telehealth"
)

func (t AppointmentType) String() string { return string(t) }

// ParseType validates a wire type tag at the API boundary.
func ParseType(s string) (AppointmentType, error) {
	switch AppointmentType(s) {
	case TypeCheckup, TypeFollowUp, TypeConsultation, TypeProcedure, TypeTelehealth:
		return AppointmentType(s), nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownType)
}
