package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"caredesk/internal/database"
)

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 200
)

// AuditEventResponse is one audit trail entry in wire form.
type AuditEventResponse struct {
	ID            string `json:"id"`
	EventType     string `json:"event_type"`
	AppointmentID string `json:"appointment_id"`
	Actor         string `json:"actor,omitempty"`
	Detail        string `json:"detail,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// AuditEventsResponse is the payload for GET /api/v1/audit/events.
type AuditEventsResponse struct {
	Events []AuditEventResponse `json:"events"`
	Total  int                  `json:"total"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}

// handleAuditEvents lists recorded mutations for the back-office view.
// GET /api/v1/audit/events?from=YYYY-MM-DD&to=YYYY-MM-DD&limit=&offset=
func (s *Server) handleAuditEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()

	to := s.now().AddDate(0, 0, 1)
	from := to.AddDate(0, 0, -31)
	var err error
	if v := q.Get("from"); v != "" {
		if from, err = time.ParseInLocation(dateLayout, v, time.Local); err != nil {
			writeError(w, http.StatusBadRequest, "invalid from format; expected YYYY-MM-DD")
			return
		}
	}
	if v := q.Get("to"); v != "" {
		day, err := time.ParseInLocation(dateLayout, v, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to format; expected YYYY-MM-DD")
			return
		}
		to = day.AddDate(0, 0, 1) // inclusive end date
	}

	limit, offset, err := parsePaging(q.Get("limit"), q.Get("offset"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	events, err := s.db.ListAuditEvents(r.Context(), from, to)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list audit events")
		writeError(w, http.StatusInternalServerError, "failed to list audit events")
		return
	}

	total := len(events)
	page := paginate(events, limit, offset)

	out := make([]AuditEventResponse, 0, len(page))
	for _, ev := range page {
		out = append(out, AuditEventResponse{
			ID:            ev.ID,
			EventType:     ev.EventType,
			AppointmentID: ev.AppointmentID,
			Actor:         ev.Actor,
			Detail:        ev.Detail,
			CreatedAt:     ev.CreatedAt.Format(timeLayout),
		})
	}

	writeJSON(w, http.StatusOK, AuditEventsResponse{
		Events: out,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

func parsePaging(limitStr, offsetStr string) (limit, offset int, err error) {
	limit = defaultAuditPageSize
	if limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			return 0, 0, fmt.Errorf("limit must be a positive integer")
		}
		if limit > maxAuditPageSize {
			limit = maxAuditPageSize
		}
	}
	if offsetStr != "" {
		offset, err = strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("offset must be a non-negative integer")
		}
	}
	return limit, offset, nil
}

func paginate(events []database.AuditEvent, limit, offset int) []database.AuditEvent {
	if offset >= len(events) {
		return nil
	}
	end := offset + limit
	if end > len(events) {
		end = len(events)
	}
	return events[offset:end]
}
