// ABOUTME: Appointment database operations
// ABOUTME: Handles CRUD, sync-window queries, and event linkage writes
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/demianbrunt/TrimSalon-sub000/models"
)

const apptColumns = `id, user_id, client_name, dog_name, services, notes, aggressive,
	start_time, end_time, gcal_event_id, last_synced_at, deleted, created_at, updated_at`

func CreateAppointment(ctx context.Context, db *sql.DB, appt *models.Appointment) error {
	appt.ID = uuid.New()
	now := time.Now()
	appt.CreatedAt = now
	appt.UpdatedAt = now

	services, err := json.Marshal(appt.Services)
	if err != nil {
		return fmt.Errorf("failed to encode services: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO appointments (id, user_id, client_name, dog_name, services, notes, aggressive,
			start_time, end_time, gcal_event_id, last_synced_at, deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, appt.ID.String(), appt.UserID, appt.ClientName, appt.DogName, string(services), appt.Notes, appt.Aggressive,
		appt.StartTime, appt.EndTime, nullString(appt.GCalEventID), appt.LastSyncedAt, appt.Deleted,
		appt.CreatedAt, appt.UpdatedAt)

	return err
}

func GetAppointment(ctx context.Context, db *sql.DB, id uuid.UUID) (*models.Appointment, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+apptColumns+`
		FROM appointments WHERE id = ?
	`, id.String())

	appt, err := scanAppointment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return appt, nil
}

// UpdateAppointment rewrites the booking-owned fields of an appointment.
// Sync linkage fields are never touched here; see SetEventLink.
func UpdateAppointment(ctx context.Context, db *sql.DB, appt *models.Appointment) error {
	appt.UpdatedAt = time.Now()

	services, err := json.Marshal(appt.Services)
	if err != nil {
		return fmt.Errorf("failed to encode services: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		UPDATE appointments
		SET client_name = ?, dog_name = ?, services = ?, notes = ?, aggressive = ?,
			start_time = ?, end_time = ?, updated_at = ?
		WHERE id = ?
	`, appt.ClientName, appt.DogName, string(services), appt.Notes, appt.Aggressive,
		appt.StartTime, appt.EndTime, appt.UpdatedAt, appt.ID.String())

	return err
}

// DeleteAppointment soft-deletes; rows are never physically removed.
func DeleteAppointment(ctx context.Context, db *sql.DB, id uuid.UUID) error {
	_, err := db.ExecContext(ctx, `
		UPDATE appointments SET deleted = 1, updated_at = ? WHERE id = ?
	`, time.Now(), id.String())
	return err
}

// ListAppointmentsInWindow returns the user's non-deleted appointments whose
// start time falls in [timeMin, timeMax], ordered by start time ascending,
// capped at limit. The query filters on indexed columns only; the soft-delete
// flag is filtered in application code so no compound index is needed.
func ListAppointmentsInWindow(ctx context.Context, db *sql.DB, userID string, timeMin, timeMax time.Time, limit int) ([]*models.Appointment, error) {
	if limit <= 0 {
		limit = 250
	}

	rows, err := db.QueryContext(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE user_id = ? AND start_time >= ? AND start_time <= ?
		ORDER BY start_time ASC
		LIMIT ?
	`, userID, timeMin, timeMax, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	var appts []*models.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		if appt.Deleted {
			continue
		}
		appts = append(appts, appt)
	}

	return appts, rows.Err()
}

// ListAppointments returns the user's non-deleted appointments, newest first.
func ListAppointments(ctx context.Context, db *sql.DB, userID string, limit int) ([]*models.Appointment, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := db.QueryContext(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE user_id = ? AND deleted = 0
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	var appts []*models.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}

	return appts, rows.Err()
}

// SetEventLink records the external event id on an appointment and stamps
// last_synced_at. This is the only appointment write the sync engine performs.
func SetEventLink(ctx context.Context, db *sql.DB, id uuid.UUID, eventID string) error {
	_, err := db.ExecContext(ctx, `
		UPDATE appointments SET gcal_event_id = ?, last_synced_at = ? WHERE id = ?
	`, nullString(eventID), time.Now(), id.String())
	if err != nil {
		return fmt.Errorf("failed to set event link: %w", err)
	}
	return nil
}

// ClearEventLink drops a stale linkage (the external event is gone).
func ClearEventLink(ctx context.Context, db *sql.DB, id uuid.UUID) error {
	_, err := db.ExecContext(ctx, `
		UPDATE appointments SET gcal_event_id = NULL, last_synced_at = ? WHERE id = ?
	`, time.Now(), id.String())
	if err != nil {
		return fmt.Errorf("failed to clear event link: %w", err)
	}
	return nil
}

// LinkedEventIDs returns every gcal_event_id currently referenced by one of
// the user's non-deleted appointments. Used by orphan cleanup to double-check
// before deleting an external event.
func LinkedEventIDs(ctx context.Context, db *sql.DB, userID string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT gcal_event_id FROM appointments
		WHERE user_id = ? AND gcal_event_id IS NOT NULL AND deleted = 0
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query linked events: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}

	return ids, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanAppointment(row scannable) (*models.Appointment, error) {
	appt := &models.Appointment{}
	var idStr string
	var services sql.NullString
	var startTime, endTime, lastSyncedAt sql.NullTime
	var eventID sql.NullString

	err := row.Scan(
		&idStr,
		&appt.UserID,
		&appt.ClientName,
		&appt.DogName,
		&services,
		&appt.Notes,
		&appt.Aggressive,
		&startTime,
		&endTime,
		&eventID,
		&lastSyncedAt,
		&appt.Deleted,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid appointment id %q: %w", idStr, err)
	}
	appt.ID = id

	if services.Valid && services.String != "" {
		if err := json.Unmarshal([]byte(services.String), &appt.Services); err != nil {
			return nil, fmt.Errorf("invalid services for appointment %s: %w", idStr, err)
		}
	}
	if startTime.Valid {
		appt.StartTime = &startTime.Time
	}
	if endTime.Valid {
		appt.EndTime = &endTime.Time
	}
	if eventID.Valid {
		appt.GCalEventID = eventID.String
	}
	if lastSyncedAt.Valid {
		appt.LastSyncedAt = &lastSyncedAt.Time
	}

	return appt, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
