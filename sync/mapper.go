// ABOUTME: Pure mapping between local appointments and calendar events
// ABOUTME: Handles the ownership tag, titles, descriptions, and time formats
package sync

import (
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/demianbrunt/TrimSalon-sub000/models"
)

const (
	// tagKey marks an event as created by this application. Only tagged
	// events are ever updated or deleted by the engine.
	tagKey   = "trimsalon_appointment"
	tagValue = "1"
)

// IsTagged reports whether the event carries the ownership tag.
func IsTagged(event *calendar.Event) bool {
	if event == nil || event.ExtendedProperties == nil || event.ExtendedProperties.Private == nil {
		return false
	}
	return event.ExtendedProperties.Private[tagKey] == tagValue
}

// BuildEvent translates an appointment into a calendar event draft. isUpdate
// only controls whether the existing event id is carried on the draft; the
// ownership tag is always set. The caller must have checked Syncable.
func BuildEvent(appt *models.Appointment, isUpdate bool) *calendar.Event {
	event := &calendar.Event{
		Summary:     eventSummary(appt),
		Description: eventDescription(appt),
		Start:       &calendar.EventDateTime{DateTime: appt.StartTime.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: appt.EndTime.Format(time.RFC3339)},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{tagKey: tagValue},
		},
	}
	if isUpdate {
		event.Id = appt.GCalEventID
	}
	return event
}

func eventSummary(appt *models.Appointment) string {
	if appt.DogName == "" {
		return appt.ClientName
	}
	return appt.ClientName + " - " + appt.DogName
}

func eventDescription(appt *models.Appointment) string {
	var lines []string
	if len(appt.Services) > 0 {
		lines = append(lines, "Services: "+strings.Join(appt.Services, ", "))
	}
	if appt.Notes != "" {
		lines = append(lines, "Notes: "+appt.Notes)
	}
	if appt.Aggressive {
		lines = append(lines, "Warning: dog may be aggressive")
	}
	return strings.Join(lines, "\n")
}

// NeedsUpdate reports whether an existing event drifted from the draft. Used
// to keep repeated reconciliation runs write-free when nothing changed.
func NeedsUpdate(existing, draft *calendar.Event) bool {
	if existing.Summary != draft.Summary || existing.Description != draft.Description {
		return true
	}
	if !EventTime(existing.Start).Equal(EventTime(draft.Start)) {
		return true
	}
	if !EventTime(existing.End).Equal(EventTime(draft.End)) {
		return true
	}
	return false
}

// EventTime resolves the provider's start/end representation, which may be
// date-only or date-time. Zero time when absent or unparseable.
func EventTime(dt *calendar.EventDateTime) time.Time {
	if dt == nil {
		return time.Time{}
	}
	if dt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		if err != nil {
			return time.Time{}
		}
		return t
	}
	if dt.Date != "" {
		t, err := time.Parse("2006-01-02", dt.Date)
		if err != nil {
			return time.Time{}
		}
		return t
	}
	return time.Time{}
}
