// ABOUTME: Data models for salon appointments and calendar sync
// ABOUTME: Defines Appointment, Credential, SyncStatus, and error classification
package models

import (
	"time"

	"github.com/google/uuid"
)

// Appointment is a grooming appointment in the local store.
//
// Every appointment belongs to exactly one staff account (UserID); the sync
// engine only ever reconciles an appointment into its owner's calendar, so
// the single GCalEventID linkage is unambiguous.
//
// The sync engine may only ever mutate GCalEventID and LastSyncedAt; every
// other field belongs to the booking UI. Deletion is always soft (Deleted set)
// so invoices and reports keep resolving old appointments.
type Appointment struct {
	ID           uuid.UUID  `json:"id"`
	UserID       string     `json:"user_id"`
	ClientName   string     `json:"client_name"`
	DogName      string     `json:"dog_name"`
	Services     []string   `json:"services,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	Aggressive   bool       `json:"aggressive,omitempty"`
	StartTime    *time.Time `json:"start_time,omitempty"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	GCalEventID  string     `json:"gcal_event_id,omitempty"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	Deleted      bool       `json:"deleted,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Syncable reports whether the appointment can be represented as a calendar
// event. Appointments missing either time are skipped by the engine, not erred.
func (a *Appointment) Syncable() bool {
	return a.StartTime != nil && a.EndTime != nil
}

// Credential holds a user's OAuth tokens for the calendar provider.
type Credential struct {
	UserID       string     `json:"user_id"`
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	TokenType    string     `json:"token_type,omitempty"`
	Expiry       *time.Time `json:"expiry,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ErrClass is the error taxonomy every calendar call site reasons about.
// Raw provider errors are never inspected outside sync.Classify.
type ErrClass int

const (
	ErrUnknown ErrClass = iota
	ErrAuthExpired
	ErrRateLimited
	ErrNotFound
)

func (c ErrClass) String() string {
	switch c {
	case ErrAuthExpired:
		return "auth_expired"
	case ErrRateLimited:
		return "rate_limited"
	case ErrNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// SyncStatus mirrors a user's sync state for UI display. Kept in memory only;
// a process restart resets it.
type SyncStatus struct {
	Enabled     bool       `json:"enabled"`
	Running     bool       `json:"running"`
	NeedsReauth bool       `json:"needs_reauth"`
	LastSuccess *time.Time `json:"last_success,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}
