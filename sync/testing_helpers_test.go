// ABOUTME: Shared test fixtures for the sync package
// ABOUTME: In-memory fake of the calendar API plus a temp SQLite database
package sync

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"github.com/demianbrunt/TrimSalon-sub000/db"
	"github.com/demianbrunt/TrimSalon-sub000/models"
)

const testUser = "user@example.com"

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	return database
}

func mustCreateAppointment(t *testing.T, database *sql.DB, appt *models.Appointment) *models.Appointment {
	t.Helper()
	if err := db.CreateAppointment(context.Background(), database, appt); err != nil {
		t.Fatalf("failed to create appointment: %v", err)
	}
	return appt
}

func timePtr(t time.Time) *time.Time {
	return &t
}

// fakeCalendarAPI is an in-memory CalendarAPI. Per-method error hooks inject
// failures; write counters verify the engine's external write behavior.
type fakeCalendarAPI struct {
	calendars map[string]string            // id -> summary
	events    map[string]*calendar.Event   // event id -> event
	nextID    int

	listErr   error
	insertErr func(event *calendar.Event) error
	updateErr func(eventID string) error
	deleteErr func(eventID string) error

	inserts int
	updates int
	deletes int
	lists   int
}

func newFakeAPI() *fakeCalendarAPI {
	return &fakeCalendarAPI{
		calendars: map[string]string{"cal-1": "TrimSalon Afspraken"},
		events:    make(map[string]*calendar.Event),
	}
}

func notFoundErr() error {
	return &googleapi.Error{Code: 404, Message: "Not Found"}
}

func authExpiredErr() error {
	return &googleapi.Error{Code: 401, Message: "Invalid Credentials"}
}

func rateLimitErr() error {
	return &googleapi.Error{Code: 429, Message: "Rate Limit Exceeded"}
}

func (f *fakeCalendarAPI) writes() int {
	return f.inserts + f.updates + f.deletes
}

// addTaggedEvent seeds an event carrying the ownership tag.
func (f *fakeCalendarAPI) addTaggedEvent(id string, start, end time.Time, summary, description string) *calendar.Event {
	event := &calendar.Event{
		Id:          id,
		Summary:     summary,
		Description: description,
		Start:       &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: end.Format(time.RFC3339)},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{tagKey: tagValue},
		},
	}
	f.events[id] = event
	return event
}

// addUntaggedEvent seeds one of the user's personal entries.
func (f *fakeCalendarAPI) addUntaggedEvent(id string, start, end time.Time, summary string) *calendar.Event {
	event := &calendar.Event{
		Id:      id,
		Summary: summary,
		Start:   &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:     &calendar.EventDateTime{DateTime: end.Format(time.RFC3339)},
	}
	f.events[id] = event
	return event
}

func (f *fakeCalendarAPI) ListCalendars(ctx context.Context) ([]*calendar.CalendarListEntry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var entries []*calendar.CalendarListEntry
	for id, summary := range f.calendars {
		entries = append(entries, &calendar.CalendarListEntry{Id: id, Summary: summary})
	}
	return entries, nil
}

func (f *fakeCalendarAPI) CreateCalendar(ctx context.Context, name string) (*calendar.Calendar, error) {
	id := fmt.Sprintf("cal-%d", len(f.calendars)+1)
	f.calendars[id] = name
	return &calendar.Calendar{Id: id, Summary: name}, nil
}

func (f *fakeCalendarAPI) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]*calendar.Event, error) {
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}

	var items []*calendar.Event
	for _, event := range f.events {
		start := EventTime(event.Start)
		if start.Before(timeMin) || start.After(timeMax) {
			continue
		}
		items = append(items, event)
	}
	return items, nil
}

func (f *fakeCalendarAPI) InsertEvent(ctx context.Context, calendarID string, event *calendar.Event) (*calendar.Event, error) {
	if f.insertErr != nil {
		if err := f.insertErr(event); err != nil {
			return nil, err
		}
	}
	f.inserts++

	f.nextID++
	stored := *event
	stored.Id = fmt.Sprintf("ev-%d", f.nextID)
	f.events[stored.Id] = &stored
	return &stored, nil
}

func (f *fakeCalendarAPI) UpdateEvent(ctx context.Context, calendarID, eventID string, event *calendar.Event) (*calendar.Event, error) {
	if f.updateErr != nil {
		if err := f.updateErr(eventID); err != nil {
			return nil, err
		}
	}
	if _, ok := f.events[eventID]; !ok {
		return nil, notFoundErr()
	}
	f.updates++

	stored := *event
	stored.Id = eventID
	f.events[eventID] = &stored
	return &stored, nil
}

func (f *fakeCalendarAPI) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if f.deleteErr != nil {
		if err := f.deleteErr(eventID); err != nil {
			return err
		}
	}
	if _, ok := f.events[eventID]; !ok {
		return notFoundErr()
	}
	f.deletes++
	delete(f.events, eventID)
	return nil
}

// taggedEventIDs lists ids of tagged events still present in the fake.
func (f *fakeCalendarAPI) taggedEventIDs() []string {
	var ids []string
	for id, event := range f.events {
		if IsTagged(event) {
			ids = append(ids, id)
		}
	}
	return ids
}

// fakeProvider satisfies ClientProvider with a canned API handle.
type fakeProvider struct {
	api CalendarAPI
	err error
}

func (p *fakeProvider) ClientFor(ctx context.Context, userID string) (CalendarAPI, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.api, nil
}

// userAPIProvider hands each user its own calendar fake, the way two
// authorized accounts get two distinct calendars. Unknown users get no
// credentials.
type userAPIProvider struct {
	apis map[string]CalendarAPI
}

func (p *userAPIProvider) ClientFor(ctx context.Context, userID string) (CalendarAPI, error) {
	return p.apis[userID], nil
}
