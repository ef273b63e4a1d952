// ABOUTME: HTTP handlers for sync trigger, status, and clear-calendar
// ABOUTME: Surfaces classified error categories instead of raw provider text
package web

import (
	"net/http"

	"github.com/demianbrunt/TrimSalon-sub000/models"
	"github.com/demianbrunt/TrimSalon-sub000/sync"
)

// handleSyncNow runs a synchronous manual sync pass for the caller.
func (s *Server) handleSyncNow(w http.ResponseWriter, r *http.Request) {
	res, err := s.service.SyncNow(r.Context(), userID(r))
	if err != nil {
		WriteClassifiedError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, s.service.Status(userID(r)))
}

func (s *Server) handleSyncEnable(w http.ResponseWriter, r *http.Request) {
	s.service.SetEnabled(userID(r), true)
	WriteJSON(w, http.StatusOK, s.service.Status(userID(r)))
}

func (s *Server) handleSyncDisable(w http.ResponseWriter, r *http.Request) {
	s.service.SetEnabled(userID(r), false)
	WriteJSON(w, http.StatusOK, s.service.Status(userID(r)))
}

// handleClearCalendar deletes every tagged event in the target calendar.
// A reset for corrupted sync state, not for normal operation.
func (s *Server) handleClearCalendar(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	deleted, err := s.service.ClearCalendar(r.Context(), user)
	if err != nil {
		if sync.Classify(err) == models.ErrAuthExpired {
			s.service.HandleAuthExpired(r.Context(), user)
		}
		WriteClassifiedError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}
