package calendar

import "caredesk/internal/model"

// Overlaps reports half-open interval overlap between two appointments:
// a.Start < b.End && b.Start < a.End. Back-to-back appointments sharing
// a boundary instant do not overlap.
func Overlaps(a, b model.Appointment) bool {
	return a.StartTime.Before(b.EndTime) && b.StartTime.Before(a.EndTime)
}

// DetectConflicts returns the subset of existing that overlaps the
// candidate, excluding any entry with the candidate's own ID so that
// editing an existing appointment does not conflict with itself.
//
// This is a pure query. Whether a conflict blocks creation is decided
// by the caller from Settings.AllowDoubleBooking.
func DetectConflicts(candidate model.Appointment, existing []model.Appointment) []model.Appointment {
	var conflicts []model.Appointment
	for _, e := range existing {
		if candidate.ID != "" && e.ID == candidate.ID {
			continue
		}
		if Overlaps(candidate, e) {
			conflicts = append(conflicts, e)
		}
	}
	sortAppointments(conflicts)
	return conflicts
}
