package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caredesk/internal/model"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func datetime(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

func testAppointment(id string, start, end time.Time) model.Appointment {
	return model.Appointment{
		ID:          id,
		PatientID:   "p1",
		PatientName: "Ada Lovelace",
		Type:        model.TypeCheckup,
		Status:      model.StatusScheduled,
		StartTime:   start,
		EndTime:     end,
	}
}

func TestUpsertAndGetAppointments(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	appts := []model.Appointment{
		testAppointment("a2", datetime(2025, 11, 10, 14, 0), datetime(2025, 11, 10, 15, 0)),
		testAppointment("a1", datetime(2025, 11, 10, 9, 0), datetime(2025, 11, 10, 9, 30)),
		testAppointment("a3", datetime(2025, 11, 12, 9, 0), datetime(2025, 11, 12, 10, 0)),
	}
	require.NoError(t, db.UpsertAppointments(ctx, appts))

	got, err := db.GetAppointmentsInRange(ctx, datetime(2025, 11, 10, 0, 0), datetime(2025, 11, 11, 0, 0))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a1", got[0].ID)
	assert.Equal(t, "a2", got[1].ID)
	assert.Equal(t, model.TypeCheckup, got[0].Type)
	assert.Equal(t, model.StatusScheduled, got[0].Status)

	onDate, err := db.GetAppointmentsOnDate(ctx, datetime(2025, 11, 12, 13, 45))
	require.NoError(t, err)
	require.Len(t, onDate, 1)
	assert.Equal(t, "a3", onDate[0].ID)
}

func TestUpsertAppointments_UpdatesExisting(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a := testAppointment("a1", datetime(2025, 11, 10, 9, 0), datetime(2025, 11, 10, 9, 30))
	require.NoError(t, db.UpsertAppointments(ctx, []model.Appointment{a}))

	a.PatientName = "Grace Hopper"
	a.Status = model.StatusCompleted
	require.NoError(t, db.UpsertAppointments(ctx, []model.Appointment{a}))

	got, err := db.GetAppointment(ctx, "a1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Grace Hopper", got.PatientName)
	assert.Equal(t, model.StatusCompleted, got.Status)
}

func TestUpsertAppointments_RejectsInvalid(t *testing.T) {
	db := newTestDB(t)

	bad := testAppointment("a1", datetime(2025, 11, 10, 9, 30), datetime(2025, 11, 10, 9, 0))
	err := db.UpsertAppointments(context.Background(), []model.Appointment{bad})
	assert.ErrorIs(t, err, model.ErrInvalidAppointment)
}

func TestGetAppointment_Missing(t *testing.T) {
	db := newTestDB(t)

	got, err := db.GetAppointment(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpdateAppointmentStatusAndWindow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a := testAppointment("a1", datetime(2025, 11, 10, 9, 0), datetime(2025, 11, 10, 9, 30))
	require.NoError(t, db.UpsertAppointments(ctx, []model.Appointment{a}))

	require.NoError(t, db.UpdateAppointmentStatus(ctx, "a1", model.StatusNoShow))
	require.NoError(t, db.UpdateAppointmentWindow(ctx, "a1",
		datetime(2025, 11, 11, 10, 0), datetime(2025, 11, 11, 10, 45)))

	got, err := db.GetAppointment(ctx, "a1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.StatusNoShow, got.Status)
	assert.Equal(t, datetime(2025, 11, 11, 10, 0), got.StartTime.UTC())

	assert.Error(t, db.UpdateAppointmentStatus(ctx, "missing", model.StatusCancelled))
}

func TestAuditEvents(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.InsertAuditEvent(ctx, AuditEvent{
		ID:            "ev1",
		EventType:     "appointment.status_changed",
		AppointmentID: "a1",
		Actor:         "admin@clinic.test",
		Detail:        "scheduled -> completed",
		CreatedAt:     datetime(2025, 11, 10, 9, 0),
	}))
	require.NoError(t, db.InsertAuditEvent(ctx, AuditEvent{
		ID:            "ev2",
		EventType:     "appointment.rescheduled",
		AppointmentID: "a2",
		CreatedAt:     datetime(2025, 11, 11, 9, 0),
	}))

	events, err := db.ListAuditEvents(ctx, datetime(2025, 11, 10, 0, 0), datetime(2025, 11, 11, 0, 0))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "ev1", events[0].ID)
	assert.Equal(t, "admin@clinic.test", events[0].Actor)

	deleted, err := db.DeleteOldAuditEvents(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
}

func TestInsertAuditEvent_SurvivesCancelledServerContext(t *testing.T) {
	db := newTestDB(t)

	// The recorder must not inherit the server's lifecycle context:
	// mutations served during a graceful drain still get audited.
	serverCtx, cancel := context.WithCancel(context.Background())
	cancel()

	err := db.InsertAuditEvent(serverCtx, AuditEvent{ID: "ev-lost", EventType: "appointment.status_changed"})
	require.ErrorIs(t, err, context.Canceled)

	require.NoError(t, db.InsertAuditEvent(context.Background(), AuditEvent{
		ID:            "ev-drain",
		EventType:     "appointment.status_changed",
		AppointmentID: "a1",
		CreatedAt:     datetime(2025, 11, 10, 9, 0),
	}))

	events, err := db.ListAuditEvents(context.Background(),
		datetime(2025, 11, 10, 0, 0), datetime(2025, 11, 11, 0, 0))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "ev-drain", events[0].ID)
}

func TestGetTableData(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a := testAppointment("a1", datetime(2025, 11, 10, 9, 0), datetime(2025, 11, 10, 9, 30))
	require.NoError(t, db.UpsertAppointments(ctx, []model.Appointment{a}))

	rows, columns, err := db.GetTableData(ctx, "appointments")
	require.NoError(t, err)
	assert.Contains(t, columns, "patient_name")
	require.Len(t, rows, 1)
	assert.Equal(t, "a1", rows[0]["id"])

	_, _, err = db.GetTableData(ctx, "users; DROP TABLE appointments")
	assert.Error(t, err)
}
