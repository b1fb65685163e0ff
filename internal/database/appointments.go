package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"caredesk/internal/model"
)

// UpsertAppointments replaces the local snapshot rows for the given
// appointments in one transaction.
func (db *DB) UpsertAppointments(ctx context.Context, appts []model.Appointment) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO appointments (
			id, patient_id, patient_name, type, status, start_time, end_time,
			title, description, location, notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			patient_id = excluded.patient_id,
			patient_name = excluded.patient_name,
			type = excluded.type,
			status = excluded.status,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			title = excluded.title,
			description = excluded.description,
			location = excluded.location,
			notes = excluded.notes,
			updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, a := range appts {
		if err := a.Validate(); err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			a.ID, a.PatientID, a.PatientName, string(a.Type), string(a.Status),
			a.StartTime, a.EndTime, a.Title, a.Description, a.Location, a.Notes,
			now, now,
		); err != nil {
			return fmt.Errorf("upsert appointment %s: %w", a.ID, err)
		}
	}

	return tx.Commit()
}

// GetAppointment returns a single appointment by ID, or nil when absent.
func (db *DB) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, patient_id, patient_name, type, status, start_time, end_time,
		       title, description, location, notes, created_at, updated_at
		FROM appointments
		WHERE id = ?`,
		id,
	)
	a, err := scanAppointment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetAppointmentsInRange returns appointments starting in [from, to),
// ordered by start time then ID for determinism.
func (db *DB) GetAppointmentsInRange(ctx context.Context, from, to time.Time) ([]model.Appointment, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, patient_id, patient_name, type, status, start_time, end_time,
		       title, description, location, notes, created_at, updated_at
		FROM appointments
		WHERE start_time >= ? AND start_time < ?
		ORDER BY start_time, id`,
		from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, *a)
	}
	return appts, rows.Err()
}

// GetAppointmentsOnDate returns appointments starting on the local
// calendar day of date.
func (db *DB) GetAppointmentsOnDate(ctx context.Context, date time.Time) ([]model.Appointment, error) {
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return db.GetAppointmentsInRange(ctx, startOfDay, startOfDay.AddDate(0, 0, 1))
}

// UpdateAppointmentStatus persists a status transition.
func (db *DB) UpdateAppointmentStatus(ctx context.Context, id string, status model.Status) error {
	res, err := db.ExecContext(ctx,
		"UPDATE appointments SET status = ?, updated_at = ? WHERE id = ?",
		string(status), time.Now(), id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("appointment %s not found", id)
	}
	return nil
}

// UpdateAppointmentWindow persists a reschedule.
func (db *DB) UpdateAppointmentWindow(ctx context.Context, id string, start, end time.Time) error {
	res, err := db.ExecContext(ctx,
		"UPDATE appointments SET start_time = ?, end_time = ?, updated_at = ? WHERE id = ?",
		start, end, time.Now(), id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("appointment %s not found", id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanAppointment(row scannable) (*model.Appointment, error) {
	var a model.Appointment
	var typ, status string
	var title, description, location, notes sql.NullString
	err := row.Scan(
		&a.ID, &a.PatientID, &a.PatientName, &typ, &status,
		&a.StartTime, &a.EndTime, &title, &description, &location, &notes,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	// Rows come back through the boundary parsers so an unknown tag in
	// storage surfaces immediately instead of leaking into the core.
	if a.Type, err = model.ParseType(typ); err != nil {
		return nil, fmt.Errorf("appointment %s: %w", a.ID, err)
	}
	if a.Status, err = model.ParseStatus(status); err != nil {
		return nil, fmt.Errorf("appointment %s: %w", a.ID, err)
	}

	if title.Valid {
		a.Title = title.String
	}
	if description.Valid {
		a.Description = description.String
	}
	if location.Valid {
		a.Location = location.String
	}
	if notes.Valid {
		a.Notes = notes.String
	}
	return &a, nil
}
