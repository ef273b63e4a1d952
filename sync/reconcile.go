// ABOUTME: Reconciliation engine between the appointment store and the calendar
// ABOUTME: Computes and applies create/update/delete actions, then orphan cleanup
package sync

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/demianbrunt/TrimSalon-sub000/db"
	"github.com/demianbrunt/TrimSalon-sub000/models"
)

// Reconciler drives one sync pass for a single user's calendar. Only the
// user's own appointments enter the pass: linkage ids written by one user's
// reconciler are never visible to another user's, so two authorized accounts
// can never fight over the same appointment.
type Reconciler struct {
	database        *sql.DB
	api             CalendarAPI
	userID          string
	maxAppointments int
}

// NewReconciler builds an engine over the local store and a calendar handle.
func NewReconciler(database *sql.DB, api CalendarAPI, userID string, maxAppointments int) *Reconciler {
	if maxAppointments <= 0 {
		maxAppointments = 250
	}
	return &Reconciler{database: database, api: api, userID: userID, maxAppointments: maxAppointments}
}

// Result summarizes the external writes of one reconciliation pass.
type Result struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Deleted   int `json:"deleted"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Reconcile runs one pass over [timeMin, timeMax].
//
// Appointments are processed strictly before orphan cleanup, and every event
// id touched in the appointment phase is marked processed so a just-recreated
// event can never be deleted as an orphan in the same pass.
//
// AUTH_EXPIRED and RATE_LIMITED abort the pass; an UNKNOWN failure on one
// appointment is logged and the rest of the batch continues.
func (r *Reconciler) Reconcile(ctx context.Context, calendarID string, timeMin, timeMax time.Time) (*Result, error) {
	res := &Result{}

	appts, err := db.ListAppointmentsInWindow(ctx, r.database, r.userID, timeMin, timeMax, r.maxAppointments)
	if err != nil {
		return res, fmt.Errorf("failed to load appointments: %w", err)
	}

	events, err := r.api.ListEvents(ctx, calendarID, timeMin, timeMax)
	if err != nil {
		return res, err
	}

	// Only tagged events enter the working set; the user's personal entries
	// are never loaded, let alone mutated.
	tagged := make(map[string]*calendar.Event)
	for _, event := range events {
		if IsTagged(event) {
			tagged[event.Id] = event
		}
	}

	processed := make(map[string]bool)

	for _, appt := range appts {
		if !appt.Syncable() {
			log.Printf("sync: skipping appointment %s: missing start or end time", appt.ID)
			res.Skipped++
			continue
		}

		if err := r.syncAppointment(ctx, calendarID, appt, tagged, processed, res); err != nil {
			switch Classify(err) {
			case models.ErrAuthExpired, models.ErrRateLimited:
				return res, err
			default:
				log.Printf("sync: appointment %s failed: %v", appt.ID, err)
				res.Failed++
			}
		}
	}

	if err := r.cleanupOrphans(ctx, calendarID, tagged, processed, res); err != nil {
		return res, err
	}

	return res, nil
}

func (r *Reconciler) syncAppointment(ctx context.Context, calendarID string, appt *models.Appointment,
	tagged map[string]*calendar.Event, processed map[string]bool, res *Result) error {

	if appt.GCalEventID != "" {
		draft := BuildEvent(appt, true)

		// Already consistent: no external write, just keep it off the
		// orphan list. This is what makes back-to-back runs write-free.
		if existing, ok := tagged[appt.GCalEventID]; ok && !NeedsUpdate(existing, draft) {
			processed[appt.GCalEventID] = true
			res.Unchanged++
			return nil
		}

		_, err := r.api.UpdateEvent(ctx, calendarID, appt.GCalEventID, draft)
		if err == nil {
			if err := db.SetEventLink(ctx, r.database, appt.ID, appt.GCalEventID); err != nil {
				return fmt.Errorf("event %s updated but linkage not persisted: %w", appt.GCalEventID, err)
			}
			processed[appt.GCalEventID] = true
			res.Updated++
			return nil
		}

		if Classify(err) != models.ErrNotFound {
			return err
		}
		// The linked event vanished externally; fall through and recreate.
	}

	created, err := r.api.InsertEvent(ctx, calendarID, BuildEvent(appt, false))
	if err != nil {
		return err
	}

	if err := db.SetEventLink(ctx, r.database, appt.ID, created.Id); err != nil {
		// The event exists but the linkage write failed; next pass will
		// recreate it and clean this one up as an orphan.
		return fmt.Errorf("event %s created but linkage not persisted: %w", created.Id, err)
	}

	processed[created.Id] = true
	res.Created++
	return nil
}

// cleanupOrphans deletes tagged events that neither were touched this pass
// nor are referenced by any appointment's linkage.
func (r *Reconciler) cleanupOrphans(ctx context.Context, calendarID string,
	tagged map[string]*calendar.Event, processed map[string]bool, res *Result) error {

	linked, err := db.LinkedEventIDs(ctx, r.database, r.userID)
	if err != nil {
		return fmt.Errorf("failed to load linked event ids: %w", err)
	}

	for id := range tagged {
		if processed[id] || linked[id] {
			continue
		}

		if err := r.api.DeleteEvent(ctx, calendarID, id); err != nil {
			switch Classify(err) {
			case models.ErrNotFound:
				// Already gone; that is what we wanted.
			case models.ErrAuthExpired, models.ErrRateLimited:
				return err
			default:
				log.Printf("sync: failed to delete orphan event %s: %v", id, err)
				res.Failed++
			}
			continue
		}
		res.Deleted++
	}

	return nil
}
