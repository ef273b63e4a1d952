// ABOUTME: Calendar API surface consumed by the sync engine
// ABOUTME: Interface plus the Google Calendar implementation, fakeable in tests
package sync

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"
)

const maxResults = 250 // Google Calendar API max per page

// CalendarAPI is the slice of the provider's API the engine consumes. The
// production implementation wraps *calendar.Service; tests substitute a fake.
type CalendarAPI interface {
	ListCalendars(ctx context.Context) ([]*calendar.CalendarListEntry, error)
	CreateCalendar(ctx context.Context, name string) (*calendar.Calendar, error)
	ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]*calendar.Event, error)
	InsertEvent(ctx context.Context, calendarID string, event *calendar.Event) (*calendar.Event, error)
	UpdateEvent(ctx context.Context, calendarID, eventID string, event *calendar.Event) (*calendar.Event, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}

type googleAPI struct {
	svc *calendar.Service
}

// NewGoogleAPI wraps a calendar service in the engine-facing interface.
func NewGoogleAPI(svc *calendar.Service) CalendarAPI {
	return &googleAPI{svc: svc}
}

func (g *googleAPI) ListCalendars(ctx context.Context) ([]*calendar.CalendarListEntry, error) {
	var entries []*calendar.CalendarListEntry
	pageToken := ""

	for {
		call := g.svc.CalendarList.List().Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		list, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list calendars: %w", err)
		}

		entries = append(entries, list.Items...)

		pageToken = list.NextPageToken
		if pageToken == "" {
			return entries, nil
		}
	}
}

func (g *googleAPI) CreateCalendar(ctx context.Context, name string) (*calendar.Calendar, error) {
	cal, err := g.svc.Calendars.Insert(&calendar.Calendar{Summary: name}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar: %w", err)
	}
	return cal, nil
}

// ListEvents fetches all single-occurrence events in the window, ordered by
// start time ascending, following pagination to the end.
func (g *googleAPI) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]*calendar.Event, error) {
	var items []*calendar.Event
	pageToken := ""

	for {
		call := g.svc.Events.List(calendarID).
			Context(ctx).
			MaxResults(maxResults).
			SingleEvents(true).
			OrderBy("startTime").
			TimeMin(timeMin.Format(time.RFC3339)).
			TimeMax(timeMax.Format(time.RFC3339))
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		events, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to fetch events: %w", err)
		}

		items = append(items, events.Items...)

		pageToken = events.NextPageToken
		if pageToken == "" {
			return items, nil
		}
	}
}

func (g *googleAPI) InsertEvent(ctx context.Context, calendarID string, event *calendar.Event) (*calendar.Event, error) {
	created, err := g.svc.Events.Insert(calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}
	return created, nil
}

func (g *googleAPI) UpdateEvent(ctx context.Context, calendarID, eventID string, event *calendar.Event) (*calendar.Event, error) {
	updated, err := g.svc.Events.Update(calendarID, eventID, event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return updated, nil
}

func (g *googleAPI) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if err := g.svc.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}
