// ABOUTME: Reconciliation engine tests over a fake calendar API
// ABOUTME: Idempotence, tag isolation, orphan cleanup, and failure handling
package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"github.com/demianbrunt/TrimSalon-sub000/db"
	"github.com/demianbrunt/TrimSalon-sub000/models"
)

var (
	windowMin = time.Date(2025, 2, 25, 0, 0, 0, 0, time.UTC)
	windowMax = time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC)
)

func windowAppointment(client, dog string, start time.Time) *models.Appointment {
	end := start.Add(time.Hour)
	return &models.Appointment{
		UserID:     testUser,
		ClientName: client,
		DogName:    dog,
		StartTime:  timePtr(start),
		EndTime:    timePtr(end),
	}
}

func TestReconcileCreatesEvent(t *testing.T) {
	database := setupTestDB(t)
	api := newFakeAPI()
	ctx := context.Background()

	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	appt := mustCreateAppointment(t, database, windowAppointment("Jansen", "Rex", start))

	rec := NewReconciler(database, api, testUser, 0)
	res, err := rec.Reconcile(ctx, "cal-1", windowMin, windowMax)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, api.inserts)

	// Linkage persisted with last-synced stamp
	stored, err := db.GetAppointment(ctx, database, appt.ID)
	require.NoError(t, err)
	require.NotEmpty(t, stored.GCalEventID)
	require.NotNil(t, stored.LastSyncedAt)

	// External event matches the appointment and carries the tag
	event := api.events[stored.GCalEventID]
	require.NotNil(t, event)
	assert.Equal(t, "Jansen - Rex", event.Summary)
	assert.Equal(t, "2025-03-01T10:00:00Z", event.Start.DateTime)
	assert.True(t, IsTagged(event))
}

func TestReconcileIdempotent(t *testing.T) {
	database := setupTestDB(t)
	api := newFakeAPI()
	ctx := context.Background()

	mustCreateAppointment(t, database, windowAppointment("Jansen", "Rex", time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)))
	mustCreateAppointment(t, database, windowAppointment("Visser", "Bello", time.Date(2025, 3, 2, 14, 0, 0, 0, time.UTC)))

	rec := NewReconciler(database, api, testUser, 0)

	_, err := rec.Reconcile(ctx, "cal-1", windowMin, windowMax)
	require.NoError(t, err)
	require.Equal(t, 2, api.writes())

	// Second run with no intervening changes: zero external writes.
	res, err := rec.Reconcile(ctx, "cal-1", windowMin, windowMax)
	require.NoError(t, err)
	assert.Equal(t, 2, api.writes(), "second run must not write externally")
	assert.Equal(t, 2, res.Unchanged)
	assert.Zero(t, res.Created)
	assert.Zero(t, res.Updated)
	assert.Zero(t, res.Deleted)
}

func TestReconcileUpdatesDriftedEvent(t *testing.T) {
	database := setupTestDB(t)
	api := newFakeAPI()
	ctx := context.Background()

	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	appt := mustCreateAppointment(t, database, windowAppointment("Jansen", "Rex", start))

	rec := NewReconciler(database, api, testUser, 0)
	_, err := rec.Reconcile(ctx, "cal-1", windowMin, windowMax)
	require.NoError(t, err)

	// Appointment moved by an hour; event is now stale.
	appt.StartTime = timePtr(start.Add(time.Hour))
	appt.EndTime = timePtr(start.Add(2 * time.Hour))
	require.NoError(t, db.UpdateAppointment(ctx, database, appt))

	res, err := rec.Reconcile(ctx, "cal-1", windowMin, windowMax)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)

	stored, err := db.GetAppointment(ctx, database, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01T11:00:00Z", api.events[stored.GCalEventID].Start.DateTime)
}

func TestReconcileTagIsolation(t *testing.T) {
	database := setupTestDB(t)
	api := newFakeAPI()
	ctx := context.Background()

	// The user's personal entry overlaps the window but is untouchable.
	personal := api.addUntaggedEvent("personal-1",
		time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC),
		"Dentist")

	rec := NewReconciler(database, api, testUser, 0)
	_, err := rec.Reconcile(ctx, "cal-1", windowMin, windowMax)
	require.NoError(t, err)

	got, ok := api.events["personal-1"]
	require.True(t, ok, "untagged event must never be deleted")
	assert.Equal(t, personal, got, "untagged event must never be modified")
}

func TestReconcileOrphanCleanup(t *testing.T) {
	database := setupTestDB(t)
	api := newFakeAPI()
	ctx := context.Background()

	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	appt := mustCreateAppointment(t, database, windowAppointment("Jansen", "Rex", start))

	rec := NewReconciler(database, api, testUser, 0)
	_, err := rec.Reconcile(ctx, "cal-1", windowMin, windowMax)
	require.NoError(t, err)

	stored, err := db.GetAppointment(ctx, database, appt.ID)
	require.NoError(t, err)
	kept := stored.GCalEventID

	// A tagged leftover no appointment references.
	api.addTaggedEvent("orphan-1",
		time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC),
		"Old - Appointment", "")

	res, err := rec.Reconcile(ctx, "cal-1", windowMin, windowMax)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)

	_, orphanRemains := api.events["orphan-1"]
	assert.False(t, orphanRemains, "orphan must be deleted")
	_, keptRemains := api.events[kept]
	assert.True(t, keptRemains, "linked event must survive cleanup")
}

func TestReconcileOrphanAfterSoftDelete(t *testing.T) {
	database := setupTestDB(t)
	api := newFakeAPI()
	ctx := context.Background()

	appt := mustCreateAppointment(t, database, windowAppointment("Jansen", "Rex",
		time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)))

	rec := NewReconciler(database, api, testUser, 0)
	_, err := rec.Reconcile(ctx, "cal-1", windowMin, windowMax)
	require.NoError(t, err)
	require.Len(t, api.taggedEventIDs(), 1)

	require.NoError(t, db.DeleteAppointment(ctx, database, appt.ID))

	res, err := rec.Reconcile(ctx, "cal-1", windowMin, windowMax)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)
	assert.Empty(t, api.taggedEventIDs(), "soft-deleted appointment's event must be cleaned up")
}

func TestReconcileRecreateOnMissing(t *testing.T) {
	database := setupTestDB(t)
	api := newFakeAPI()
	ctx := context.Background()

	appt := mustCreateAppointment(t, database, windowAppointment("Jansen", "Rex",
		time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)))
	// Linked to an event that no longer resolves externally.
	require.NoError(t, db.SetEventLink(ctx, database, appt.ID, "gone-1"))

	rec := NewReconciler(database, api, testUser, 0)
	res, err := rec.Reconcile(ctx, "cal-1", windowMin, windowMax)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)

	stored, err := db.GetAppointment(ctx, database, appt.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "gone-1", stored.GCalEventID, "linkage must move to the replacement event")
	require.Contains(t, api.events, stored.GCalEventID)

	// The recreated event must not be swept as an orphan in the same pass.
	assert.Zero(t, res.Deleted)
}

func TestReconcileAuthFailureAbortsRun(t *testing.T) {
	database := setupTestDB(t)
	api := newFakeAPI()
	ctx := context.Background()

	// Three appointments; the first is linked and its update fails with 401.
	first := mustCreateAppointment(t, database, windowAppointment("A", "One",
		time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)))
	api.addTaggedEvent("ev-first",
		time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		"stale", "")
	require.NoError(t, db.SetEventLink(ctx, database, first.ID, "ev-first"))

	mustCreateAppointment(t, database, windowAppointment("B", "Two",
		time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)))
	mustCreateAppointment(t, database, windowAppointment("C", "Three",
		time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)))

	api.updateErr = func(eventID string) error { return authExpiredErr() }
	api.insertErr = func(event *calendar.Event) error { return authExpiredErr() }

	rec := NewReconciler(database, api, testUser, 0)
	_, err := rec.Reconcile(ctx, "cal-1", windowMin, windowMax)
	require.Error(t, err)
	assert.Equal(t, models.ErrAuthExpired, Classify(err))

	// Appointments 2 and 3 were never attempted.
	assert.Zero(t, api.inserts)
	assert.Zero(t, api.updates)
}

func TestReconcileRateLimitAbortsRun(t *testing.T) {
	database := setupTestDB(t)
	api := newFakeAPI()
	ctx := context.Background()

	mustCreateAppointment(t, database, windowAppointment("Jansen", "Rex",
		time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)))
	api.listErr = rateLimitErr()

	rec := NewReconciler(database, api, testUser, 0)
	_, err := rec.Reconcile(ctx, "cal-1", windowMin, windowMax)
	require.Error(t, err)
	assert.Equal(t, models.ErrRateLimited, Classify(err))
	assert.Zero(t, api.writes())
}

func TestReconcileUnknownErrorSkipsAndContinues(t *testing.T) {
	database := setupTestDB(t)
	api := newFakeAPI()
	ctx := context.Background()

	bad := mustCreateAppointment(t, database, windowAppointment("Bad", "Dog",
		time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)))
	mustCreateAppointment(t, database, windowAppointment("Good", "Dog",
		time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)))

	api.insertErr = func(event *calendar.Event) error {
		if event.Summary == "Bad - Dog" {
			return &googleapi.Error{Code: 500, Message: "Backend Error"}
		}
		return nil
	}

	rec := NewReconciler(database, api, testUser, 0)
	res, err := rec.Reconcile(ctx, "cal-1", windowMin, windowMax)
	require.NoError(t, err, "a single bad appointment must not abort the run")

	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Failed)

	stored, err := db.GetAppointment(ctx, database, bad.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.GCalEventID, "failed appointment must keep no linkage")
}

func TestReconcileUpdateNotCountedWhenLinkageWriteFails(t *testing.T) {
	database := setupTestDB(t)
	api := newFakeAPI()

	appt := mustCreateAppointment(t, database, windowAppointment("Jansen", "Rex",
		time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)))
	api.addTaggedEvent("ev-1",
		time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		"stale", "")
	require.NoError(t, db.SetEventLink(context.Background(), database, appt.ID, "ev-1"))

	// The external update lands, then every later store write fails.
	ctx, cancel := context.WithCancel(context.Background())
	api.updateErr = func(eventID string) error {
		cancel()
		return nil
	}

	rec := NewReconciler(database, api, testUser, 0)
	res, _ := rec.Reconcile(ctx, "cal-1", windowMin, windowMax)

	assert.Equal(t, 1, api.updates, "the external update itself went through")
	assert.Zero(t, res.Updated, "an update without persisted linkage is not a success")
	assert.Equal(t, 1, res.Failed)
}

func TestReconcileSkipsAppointmentsWithoutTimes(t *testing.T) {
	database := setupTestDB(t)
	api := newFakeAPI()
	ctx := context.Background()

	appt := windowAppointment("Jansen", "Rex", time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	appt.EndTime = nil
	mustCreateAppointment(t, database, appt)

	rec := NewReconciler(database, api, testUser, 0)
	res, err := rec.Reconcile(ctx, "cal-1", windowMin, windowMax)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Skipped)
	assert.Zero(t, api.writes())
}

func TestReconcileWindowBoundedness(t *testing.T) {
	database := setupTestDB(t)
	api := newFakeAPI()
	ctx := context.Background()

	outside := mustCreateAppointment(t, database, windowAppointment("Early", "Dog",
		windowMin.Add(-48*time.Hour)))
	mustCreateAppointment(t, database, windowAppointment("Late", "Dog",
		windowMax.Add(48*time.Hour)))

	rec := NewReconciler(database, api, testUser, 0)
	res, err := rec.Reconcile(ctx, "cal-1", windowMin, windowMax)
	require.NoError(t, err)

	assert.Zero(t, res.Created)
	assert.Zero(t, api.writes())

	stored, err := db.GetAppointment(ctx, database, outside.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.GCalEventID, "out-of-window appointment must not be modified")
}
