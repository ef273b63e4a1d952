// ABOUTME: In-memory per-user sync status registry
// ABOUTME: Enforces single-flight per user and mirrors state for the UI
package sync

import (
	gosync "sync"
	"time"

	"github.com/demianbrunt/TrimSalon-sub000/models"
)

// StatusRegistry tracks sync state per user. State is not persisted; a restart
// resets it. At most one sync pass may run per user within this process,
// enforced by TryStart.
type StatusRegistry struct {
	mu    gosync.Mutex
	users map[string]*models.SyncStatus
}

func NewStatusRegistry() *StatusRegistry {
	return &StatusRegistry{users: make(map[string]*models.SyncStatus)}
}

func (r *StatusRegistry) get(userID string) *models.SyncStatus {
	st, ok := r.users[userID]
	if !ok {
		st = &models.SyncStatus{Enabled: true}
		r.users[userID] = st
	}
	return st
}

// TryStart flips the running flag if no pass is in flight for the user.
// Returns false when a concurrent pass holds the flag.
func (r *StatusRegistry) TryStart(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.get(userID)
	if st.Running {
		return false
	}
	st.Running = true
	return true
}

// Finish releases the running flag and records the outcome.
func (r *StatusRegistry) Finish(userID string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.get(userID)
	st.Running = false
	if err != nil {
		st.LastError = err.Error()
		return
	}
	now := time.Now()
	st.LastSuccess = &now
	st.LastError = ""
}

// MarkNeedsReauth flags the user as requiring a fresh authorization.
func (r *StatusRegistry) MarkNeedsReauth(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.get(userID).NeedsReauth = true
}

// ClearNeedsReauth resets the flag after a successful authorization.
func (r *StatusRegistry) ClearNeedsReauth(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.get(userID).NeedsReauth = false
}

func (r *StatusRegistry) SetEnabled(userID string, enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.get(userID).Enabled = enabled
}

// Get returns a copy of the user's status.
func (r *StatusRegistry) Get(userID string) models.SyncStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.get(userID)
}
