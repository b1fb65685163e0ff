package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AuditEvent is one recorded back-office mutation.
type AuditEvent struct {
	ID            string
	EventType     string
	AppointmentID string
	Actor         string
	Detail        string
	CreatedAt     time.Time
}

// InsertAuditEvent records a mutation in the audit trail.
func (db *DB) InsertAuditEvent(ctx context.Context, ev AuditEvent) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO audit_events (id, event_type, appointment_id, actor, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.EventType, ev.AppointmentID, ev.Actor, ev.Detail, ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListAuditEvents returns events in [from, to) ordered by creation time.
func (db *DB) ListAuditEvents(ctx context.Context, from, to time.Time) ([]AuditEvent, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, event_type, appointment_id, actor, detail, created_at
		FROM audit_events
		WHERE created_at >= ? AND created_at < ?
		ORDER BY created_at, id`,
		from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []AuditEvent
	for rows.Next() {
		var ev AuditEvent
		var actor, detail sql.NullString
		if err := rows.Scan(&ev.ID, &ev.EventType, &ev.AppointmentID, &actor, &detail, &ev.CreatedAt); err != nil {
			return nil, err
		}
		if actor.Valid {
			ev.Actor = actor.String
		}
		if detail.Valid {
			ev.Detail = detail.String
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// DeleteOldAuditEvents deletes audit events older than the duration and
// returns the number of rows removed.
func (db *DB) DeleteOldAuditEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	res, err := db.ExecContext(ctx,
		"DELETE FROM audit_events WHERE created_at < ?",
		time.Now().Add(-olderThan),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetTableNames returns the tables included in audit exports.
func (db *DB) GetTableNames(ctx context.Context) ([]string, error) {
	return []string{"appointments", "audit_events"}, nil
}

// GetTableData returns all rows of a table as maps, for the Excel export.
func (db *DB) GetTableData(ctx context.Context, tableName string) ([]map[string]interface{}, []string, error) {
	switch tableName {
	case "appointments", "audit_events":
	default:
		return nil, nil, fmt.Errorf("table %s not exportable", tableName)
	}

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+tableName)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var data []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		data = append(data, row)
	}
	return data, columns, rows.Err()
}

// GetDB returns the underlying sql.DB for custom queries.
func (db *DB) GetDB() *sql.DB {
	return db.DB
}
