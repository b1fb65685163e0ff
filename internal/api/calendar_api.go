package api

import (
	"net/http"
	"time"

	"caredesk/internal/calendar"
	"caredesk/internal/metrics"
	"caredesk/internal/model"
)

// AppointmentResponse represents an appointment in API responses.
type AppointmentResponse struct {
	ID          string             `json:"id"`
	PatientID   string             `json:"patient_id"`
	PatientName string             `json:"patient_name"`
	Type        string             `json:"type"`
	Status      string             `json:"status"`
	Start       string             `json:"start"`
	End         string             `json:"end"`
	StartLabel  string             `json:"start_label"`
	EndLabel    string             `json:"end_label"`
	Title       string             `json:"title,omitempty"`
	Location    string             `json:"location,omitempty"`
	Position    *calendar.Position `json:"position,omitempty"`
}

// Navigation carries the cursor dates for the view's prev/next/today
// controls.
type Navigation struct {
	Previous string `json:"previous"`
	Next     string `json:"next"`
	Today    string `json:"today"`
}

// MonthCell is one cell of the month grid. Date is empty for padding
// cells outside the month.
type MonthCell struct {
	Date         string                `json:"date,omitempty"`
	Padding      bool                  `json:"padding"`
	Today        bool                  `json:"today,omitempty"`
	WorkingDay   bool                  `json:"working_day,omitempty"`
	Appointments []AppointmentResponse `json:"appointments,omitempty"`
}

// MonthViewResponse is the payload for GET /api/v1/calendar/month.
type MonthViewResponse struct {
	View       string      `json:"view"`
	Date       string      `json:"date"`
	Label      string      `json:"label"`
	Weeks      int         `json:"weeks"`
	Cells      []MonthCell `json:"cells"`
	Navigation Navigation  `json:"navigation"`
}

// DayColumn is one day of the week view.
type DayColumn struct {
	Date         string                `json:"date"`
	Header       string                `json:"header"`
	Relative     string                `json:"relative"`
	Today        bool                  `json:"today,omitempty"`
	WorkingDay   bool                  `json:"working_day"`
	Appointments []AppointmentResponse `json:"appointments"`
}

// WeekViewResponse is the payload for GET /api/v1/calendar/week.
type WeekViewResponse struct {
	View       string      `json:"view"`
	Date       string      `json:"date"`
	Label      string      `json:"label"`
	Slots      []string    `json:"slots"`
	Days       []DayColumn `json:"days"`
	Navigation Navigation  `json:"navigation"`
}

// DayViewResponse is the payload for GET /api/v1/calendar/day.
type DayViewResponse struct {
	View         string                `json:"view"`
	Date         string                `json:"date"`
	Header       string                `json:"header"`
	Relative     string                `json:"relative"`
	WorkingDay   bool                  `json:"working_day"`
	Slots        []string              `json:"slots"`
	Appointments []AppointmentResponse `json:"appointments"`
	Navigation   Navigation            `json:"navigation"`
}

// handleMonthView renders the month grid with per-day appointment buckets.
// GET /api/v1/calendar/month?date=YYYY-MM-DD
func (s *Server) handleMonthView(w http.ResponseWriter, r *http.Request) {
	metrics.IncCalendarRequest("month")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	date, err := s.parseDateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	settings := s.currentSettings()
	cells, err := calendar.MonthGrid(date, settings.WeekStartsOn)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build month grid")
		return
	}

	// One range query covers the whole grid, then bucket per day.
	first := *firstNonNil(cells)
	last := *lastNonNil(cells)
	appts, err := s.db.GetAppointmentsInRange(r.Context(), first, last.AddDate(0, 0, 1))
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load appointments for month view")
		writeError(w, http.StatusInternalServerError, "failed to load appointments")
		return
	}

	today := s.now()
	out := make([]MonthCell, len(cells))
	for i, cell := range cells {
		if cell == nil {
			out[i] = MonthCell{Padding: true}
			continue
		}
		dayAppts := calendar.AppointmentsOnDate(appts, *cell)
		out[i] = MonthCell{
			Date:         cell.Format(dateLayout),
			Today:        calendar.SameDay(*cell, today),
			WorkingDay:   settings.IsWorkingDay(*cell),
			Appointments: s.toResponses(dayAppts, nil),
		}
	}

	writeJSON(w, http.StatusOK, MonthViewResponse{
		View:       "month",
		Date:       date.Format(dateLayout),
		Label:      calendar.FormatMonthYear(date),
		Weeks:      len(cells) / 7,
		Cells:      out,
		Navigation: s.navigation(date, calendar.ViewMonth),
	})
}

// handleWeekView renders 7 day columns with positioned appointments.
// GET /api/v1/calendar/week?date=YYYY-MM-DD
func (s *Server) handleWeekView(w http.ResponseWriter, r *http.Request) {
	metrics.IncCalendarRequest("week")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	date, err := s.parseDateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	settings := s.currentSettings()
	days, err := calendar.WeekDays(date, settings.WeekStartsOn)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build week")
		return
	}

	appts, err := s.db.GetAppointmentsInRange(r.Context(), days[0], days[6].AddDate(0, 0, 1))
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load appointments for week view")
		writeError(w, http.StatusInternalServerError, "failed to load appointments")
		return
	}

	today := s.now()
	columns := make([]DayColumn, 0, len(days))
	for _, day := range days {
		if !settings.ShowWeekends && !settings.IsWorkingDay(day) {
			continue
		}
		dayAppts := calendar.AppointmentsOnDate(appts, day)
		columns = append(columns, DayColumn{
			Date:         day.Format(dateLayout),
			Header:       calendar.FormatDayHeader(day),
			Relative:     calendar.FormatRelativeDate(day, today),
			Today:        calendar.SameDay(day, today),
			WorkingDay:   settings.IsWorkingDay(day),
			Appointments: s.toResponses(dayAppts, &settings),
		})
	}

	writeJSON(w, http.StatusOK, WeekViewResponse{
		View:       "week",
		Date:       date.Format(dateLayout),
		Label:      calendar.FormatWeekRange(days[0], days[6]),
		Slots:      s.slotLabels(date, settings),
		Days:       columns,
		Navigation: s.navigation(date, calendar.ViewWeek),
	})
}

// handleDayView renders slot partitions and placements for one day.
// GET /api/v1/calendar/day?date=YYYY-MM-DD
func (s *Server) handleDayView(w http.ResponseWriter, r *http.Request) {
	metrics.IncCalendarRequest("day")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	date, err := s.parseDateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	settings := s.currentSettings()
	appts, err := s.db.GetAppointmentsOnDate(r.Context(), date)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load appointments for day view")
		writeError(w, http.StatusInternalServerError, "failed to load appointments")
		return
	}

	writeJSON(w, http.StatusOK, DayViewResponse{
		View:         "day",
		Date:         date.Format(dateLayout),
		Header:       calendar.FormatDayHeader(date),
		Relative:     calendar.FormatRelativeDate(date, s.now()),
		WorkingDay:   settings.IsWorkingDay(date),
		Slots:        s.slotLabels(date, settings),
		Appointments: s.toResponses(appts, &settings),
		Navigation:   s.navigation(date, calendar.ViewDay),
	})
}

// toResponses converts appointments to wire form. When settings are
// given, each appointment also carries its grid position for the
// configured day window.
func (s *Server) toResponses(appts []model.Appointment, settings *calendar.Settings) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(appts))
	for _, a := range appts {
		resp := AppointmentResponse{
			ID:          a.ID,
			PatientID:   a.PatientID,
			PatientName: a.PatientName,
			Type:        string(a.Type),
			Status:      string(a.Status),
			Start:       a.StartTime.Format(timeLayout),
			End:         a.EndTime.Format(timeLayout),
			StartLabel:  calendar.FormatTime(a.StartTime),
			EndLabel:    calendar.FormatTime(a.EndTime),
			Title:       a.Title,
			Location:    a.Location,
		}
		if settings != nil {
			pos, err := calendar.GridPosition(a, settings.StartHour, settings.EndHour)
			if err == nil {
				resp.Position = &pos
			}
		}
		out = append(out, resp)
	}
	return out
}

func (s *Server) slotLabels(date time.Time, settings calendar.Settings) []string {
	slots, err := calendar.SlotsForSettings(date, settings)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to partition day into slots")
		return []string{}
	}
	labels := make([]string, len(slots))
	for i, slot := range slots {
		labels[i] = calendar.FormatTime(slot)
	}
	return labels
}

func (s *Server) navigation(date time.Time, mode calendar.ViewMode) Navigation {
	cursor := calendar.Cursor{Date: date, Mode: mode}
	return Navigation{
		Previous: cursor.Previous().Date.Format(dateLayout),
		Next:     cursor.Next().Date.Format(dateLayout),
		Today:    calendar.Today(mode, s.now).Date.Format(dateLayout),
	}
}

func firstNonNil(cells []*time.Time) *time.Time {
	for _, c := range cells {
		if c != nil {
			return c
		}
	}
	return nil
}

func lastNonNil(cells []*time.Time) *time.Time {
	for i := len(cells) - 1; i >= 0; i-- {
		if cells[i] != nil {
			return cells[i]
		}
	}
	return nil
}
