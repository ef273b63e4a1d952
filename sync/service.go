// ABOUTME: Manual sync driver and shared sync plumbing
// ABOUTME: Credential checks, calendar resolution, single-flight, clear-calendar
package sync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/demianbrunt/TrimSalon-sub000/db"
	"github.com/demianbrunt/TrimSalon-sub000/models"
)

var (
	// ErrNoCredentials means the user never authorized calendar access.
	ErrNoCredentials = errors.New("no stored credentials")
	// ErrSyncRunning means another pass holds the user's single-flight lock.
	ErrSyncRunning = errors.New("sync already running for user")
)

// ClientProvider resolves an authenticated calendar handle for a user.
// Implemented by ClientFactory; tests substitute a fake.
type ClientProvider interface {
	ClientFor(ctx context.Context, userID string) (CalendarAPI, error)
}

// Service is the manual sync driver: one user, one synchronous pass.
type Service struct {
	database        *sql.DB
	clients         ClientProvider
	status          *StatusRegistry
	calendarName    string
	lookBack        time.Duration
	lookAhead       time.Duration
	maxAppointments int

	now func() time.Time
}

func NewService(database *sql.DB, clients ClientProvider, status *StatusRegistry,
	calendarName string, lookBack, lookAhead time.Duration, maxAppointments int) *Service {
	return &Service{
		database:        database,
		clients:         clients,
		status:          status,
		calendarName:    calendarName,
		lookBack:        lookBack,
		lookAhead:       lookAhead,
		maxAppointments: maxAppointments,
		now:             time.Now,
	}
}

// Status returns the user's current sync status snapshot.
func (s *Service) Status(userID string) models.SyncStatus {
	return s.status.Get(userID)
}

// SetEnabled toggles scheduled syncing for a user in this process.
func (s *Service) SetEnabled(userID string, enabled bool) {
	s.status.SetEnabled(userID, enabled)
}

// SyncNow runs one reconciliation pass for the user. It verifies stored
// credentials, resolves (or creates) the target calendar, and holds the
// per-user single-flight lock for the whole pass.
func (s *Service) SyncNow(ctx context.Context, userID string) (*Result, error) {
	if !s.status.TryStart(userID) {
		return nil, ErrSyncRunning
	}

	res, err := s.runPass(ctx, userID)
	s.status.Finish(userID, err)

	if err != nil && Classify(err) == models.ErrAuthExpired {
		s.HandleAuthExpired(ctx, userID)
	}

	return res, err
}

// SyncAsync submits a sync pass on its own goroutine with an independent
// error channel: failures are logged, never surfaced to the caller. Used by
// appointment mutations so the originating request succeeds regardless of
// sync outcome.
func (s *Service) SyncAsync(userID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if _, err := s.SyncNow(ctx, userID); err != nil && !errors.Is(err, ErrSyncRunning) {
			log.Printf("sync: background sync for %s failed: %v", userID, err)
		}
	}()
}

func (s *Service) runPass(ctx context.Context, userID string) (*Result, error) {
	api, err := s.clients.ClientFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if api == nil {
		return nil, ErrNoCredentials
	}

	calendarID, err := s.ResolveCalendar(ctx, api)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rec := NewReconciler(s.database, api, userID, s.maxAppointments)
	return rec.Reconcile(ctx, calendarID, now.Add(-s.lookBack), now.Add(s.lookAhead))
}

// ResolveCalendar finds the target calendar by name, creating it on first use.
func (s *Service) ResolveCalendar(ctx context.Context, api CalendarAPI) (string, error) {
	entries, err := api.ListCalendars(ctx)
	if err != nil {
		return "", err
	}

	for _, entry := range entries {
		if entry.Summary == s.calendarName {
			return entry.Id, nil
		}
	}

	created, err := api.CreateCalendar(ctx, s.calendarName)
	if err != nil {
		return "", err
	}
	log.Printf("sync: created calendar %q (%s)", s.calendarName, created.Id)
	return created.Id, nil
}

// ClearCalendar deletes every tagged event in the target calendar. A reset
// hammer for corrupted sync state, not part of normal operation.
func (s *Service) ClearCalendar(ctx context.Context, userID string) (int, error) {
	api, err := s.clients.ClientFor(ctx, userID)
	if err != nil {
		return 0, err
	}
	if api == nil {
		return 0, ErrNoCredentials
	}

	calendarID, err := s.ResolveCalendar(ctx, api)
	if err != nil {
		return 0, err
	}

	// A deliberately wide window so the reset catches long-gone events.
	now := s.now()
	events, err := api.ListEvents(ctx, calendarID, now.AddDate(-1, 0, 0), now.AddDate(1, 0, 0))
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, event := range events {
		if !IsTagged(event) {
			continue
		}
		if err := api.DeleteEvent(ctx, calendarID, event.Id); err != nil {
			if Classify(err) == models.ErrNotFound {
				continue
			}
			return deleted, fmt.Errorf("failed to delete event %s: %w", event.Id, err)
		}
		deleted++
	}

	return deleted, nil
}

// ClientFor exposes the factory for the calendar passthrough endpoints.
func (s *Service) ClientFor(ctx context.Context, userID string) (CalendarAPI, error) {
	return s.clients.ClientFor(ctx, userID)
}

// HandleAuthExpired applies the AUTH_EXPIRED recovery policy: drop the stored
// credential and flag the user as needing re-authorization.
func (s *Service) HandleAuthExpired(ctx context.Context, userID string) {
	if err := db.RemoveToken(ctx, s.database, userID); err != nil {
		log.Printf("sync: failed to remove expired credential for %s: %v", userID, err)
	}
	s.status.MarkNeedsReauth(userID)
}
