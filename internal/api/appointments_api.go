package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"caredesk/internal/calendar"
	"caredesk/internal/events"
	"caredesk/internal/metrics"
	"caredesk/internal/model"
)

// ConflictCheckRequest is the body for POST /api/v1/appointments/conflicts.
type ConflictCheckRequest struct {
	ID          string `json:"id,omitempty"`
	PatientID   string `json:"patient_id"`
	PatientName string `json:"patient_name,omitempty"`
	Type        string `json:"type"`
	Start       string `json:"start"` // Format: 2006-01-02T15:04:05
	End         string `json:"end"`
}

// ConflictCheckResponse lists the overlapping appointments.
type ConflictCheckResponse struct {
	HasConflicts       bool                  `json:"has_conflicts"`
	AllowDoubleBooking bool                  `json:"allow_double_booking"`
	Conflicts          []AppointmentResponse `json:"conflicts"`
}

// StatusChangeRequest is the body for POST /api/v1/appointments/{id}/status.
type StatusChangeRequest struct {
	Status string `json:"status"`
	Actor  string `json:"actor,omitempty"`
}

// RescheduleRequest is the body for POST /api/v1/appointments/{id}/reschedule.
type RescheduleRequest struct {
	Start string `json:"start"` // Format: 2006-01-02T15:04:05
	End   string `json:"end"`
	Actor string `json:"actor,omitempty"`
}

// handleConflicts checks a candidate appointment against the local
// snapshot. Detection is a pure query; whether a conflict blocks the
// booking is the caller's call, so the double-booking policy is only
// echoed back.
// POST /api/v1/appointments/conflicts
func (s *Server) handleConflicts(w http.ResponseWriter, r *http.Request) {
	metrics.IncCalendarRequest("conflicts")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req ConflictCheckRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	candidate, err := s.candidateFromRequest(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conflicts, err := s.findConflicts(r.Context(), *candidate)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load appointments for conflict check")
		writeError(w, http.StatusInternalServerError, "failed to load appointments")
		return
	}

	metrics.AddConflictsDetected(len(conflicts))

	writeJSON(w, http.StatusOK, ConflictCheckResponse{
		HasConflicts:       len(conflicts) > 0,
		AllowDoubleBooking: s.currentSettings().AllowDoubleBooking,
		Conflicts:          s.toResponses(conflicts, nil),
	})
}

// handleAppointmentAction dispatches POST /api/v1/appointments/{id}/status
// and POST /api/v1/appointments/{id}/reschedule.
func (s *Server) handleAppointmentAction(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/appointments/"
	rest := strings.TrimPrefix(r.URL.Path, prefix)

	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	id, action := parts[0], parts[1]

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	switch action {
	case "status":
		s.handleStatusChange(w, r, id)
	case "reschedule":
		s.handleReschedule(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handleStatusChange(w http.ResponseWriter, r *http.Request, id string) {
	metrics.IncCalendarRequest("status_change")

	var req StatusChangeRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	status, err := model.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	appt, err := s.db.GetAppointment(r.Context(), id)
	if err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("failed to load appointment")
		writeError(w, http.StatusInternalServerError, "failed to load appointment")
		return
	}
	if appt == nil {
		writeError(w, http.StatusNotFound, "appointment not found")
		return
	}

	from := appt.Status
	if err := appt.Transition(status); err != nil {
		if errors.Is(err, model.ErrInvalidTransition) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.db.UpdateAppointmentStatus(r.Context(), id, status); err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("failed to persist status change")
		writeError(w, http.StatusInternalServerError, "failed to update appointment")
		return
	}

	if s.pusher != nil {
		if err := s.pusher.PushStatus(r.Context(), id, status); err != nil {
			// The local snapshot is authoritative for the UI; the next
			// sync pass reconciles upstream.
			s.log.Error().Err(err).Str("id", id).Msg("failed to push status upstream")
		}
	}

	metrics.IncStatusTransition(string(status))
	s.publish(events.Event{
		ID:            uuid.NewString(),
		Type:          events.TypeStatusChanged,
		AppointmentID: id,
		Actor:         req.Actor,
		Detail:        string(from) + " -> " + string(status),
	})

	s.log.Info().
		Str("id", id).
		Str("from", string(from)).
		Str("to", string(status)).
		Str("actor", req.Actor).
		Msg("appointment status changed")

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"id":      id,
		"status":  string(status),
	})
}

func (s *Server) handleReschedule(w http.ResponseWriter, r *http.Request, id string) {
	metrics.IncCalendarRequest("reschedule")

	var req RescheduleRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	start, err := time.ParseInLocation(timeLayout, req.Start, time.Local)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start format; expected YYYY-MM-DDTHH:MM:SS")
		return
	}
	end, err := time.ParseInLocation(timeLayout, req.End, time.Local)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end format; expected YYYY-MM-DDTHH:MM:SS")
		return
	}

	appt, err := s.db.GetAppointment(r.Context(), id)
	if err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("failed to load appointment")
		writeError(w, http.StatusInternalServerError, "failed to load appointment")
		return
	}
	if appt == nil {
		writeError(w, http.StatusNotFound, "appointment not found")
		return
	}

	settings := s.currentSettings()
	if !settings.AllowDoubleBooking {
		candidate := *appt
		candidate.StartTime = start
		candidate.EndTime = end
		if candidate.EndTime.After(candidate.StartTime) {
			conflicts, err := s.findConflicts(r.Context(), candidate)
			if err != nil {
				s.log.Error().Err(err).Msg("failed to load appointments for conflict check")
				writeError(w, http.StatusInternalServerError, "failed to load appointments")
				return
			}
			if len(conflicts) > 0 {
				metrics.AddConflictsDetected(len(conflicts))
				writeJSON(w, http.StatusConflict, ConflictCheckResponse{
					HasConflicts:       true,
					AllowDoubleBooking: false,
					Conflicts:          s.toResponses(conflicts, nil),
				})
				return
			}
		}
	}

	prevStart := appt.StartTime
	if err := appt.Reschedule(start, end); err != nil {
		if errors.Is(err, model.ErrInvalidTransition) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.db.UpdateAppointmentWindow(r.Context(), id, start, end); err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("failed to persist reschedule")
		writeError(w, http.StatusInternalServerError, "failed to update appointment")
		return
	}

	if s.pusher != nil {
		if err := s.pusher.PushReschedule(r.Context(), id, start, end); err != nil {
			s.log.Error().Err(err).Str("id", id).Msg("failed to push reschedule upstream")
		}
	}

	s.publish(events.Event{
		ID:            uuid.NewString(),
		Type:          events.TypeRescheduled,
		AppointmentID: id,
		Actor:         req.Actor,
		Detail:        prevStart.Format(timeLayout) + " -> " + start.Format(timeLayout),
	})

	s.log.Info().
		Str("id", id).
		Str("start", req.Start).
		Str("end", req.End).
		Str("actor", req.Actor).
		Msg("appointment rescheduled")

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"id":      id,
		"start":   req.Start,
		"end":     req.End,
	})
}

// candidateFromRequest builds and validates a candidate appointment
// from the wire form. Unknown enum tags are rejected here so the
// calendar core never sees them.
func (s *Server) candidateFromRequest(req *ConflictCheckRequest) (*model.Appointment, error) {
	apptType, err := model.ParseType(req.Type)
	if err != nil {
		return nil, err
	}

	start, err := time.ParseInLocation(timeLayout, req.Start, time.Local)
	if err != nil {
		return nil, errors.New("invalid start format; expected YYYY-MM-DDTHH:MM:SS")
	}
	end, err := time.ParseInLocation(timeLayout, req.End, time.Local)
	if err != nil {
		return nil, errors.New("invalid end format; expected YYYY-MM-DDTHH:MM:SS")
	}

	candidate := &model.Appointment{
		ID:          req.ID,
		PatientID:   req.PatientID,
		PatientName: req.PatientName,
		Type:        apptType,
		Status:      model.StatusScheduled,
		StartTime:   start,
		EndTime:     end,
	}
	if err := candidate.Validate(); err != nil {
		return nil, err
	}
	return candidate, nil
}

// findConflicts loads the stored appointments overlapping the
// candidate's window and runs detection against them. Appointments in
// a terminal status no longer hold their slot.
func (s *Server) findConflicts(ctx context.Context, candidate model.Appointment) ([]model.Appointment, error) {
	// Load from the previous day too: an appointment starting before
	// midnight can run into the candidate's window.
	from := calendar.StartOfDay(candidate.StartTime).AddDate(0, 0, -1)
	to := calendar.StartOfDay(candidate.EndTime).AddDate(0, 0, 1)
	existing, err := s.db.GetAppointmentsInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	active := existing[:0]
	for _, e := range existing {
		if !e.Status.Terminal() {
			active = append(active, e)
		}
	}
	return calendar.DetectConflicts(candidate, active), nil
}

func (s *Server) publish(event events.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(event)
}
