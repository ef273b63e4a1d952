// ABOUTME: Calendar CRUD passthrough handlers
// ABOUTME: Thin proxies over the provider API with uniform error classification
package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"google.golang.org/api/calendar/v3"

	"github.com/demianbrunt/TrimSalon-sub000/models"
	"github.com/demianbrunt/TrimSalon-sub000/sync"
)

// apiFor resolves an authenticated client for the caller, writing the
// appropriate error when there is none.
func (s *Server) apiFor(w http.ResponseWriter, r *http.Request) (sync.CalendarAPI, bool) {
	api, err := s.service.ClientFor(r.Context(), userID(r))
	if err != nil {
		WriteClassifiedError(w, err)
		return nil, false
	}
	if api == nil {
		WriteError(w, http.StatusPreconditionFailed, CodeFailedPrecondition, "calendar not authorized")
		return nil, false
	}
	return api, true
}

// writePassthroughError applies the classification policy; on expired auth it
// additionally clears the stored credential and flags the user before the
// error reaches the caller.
func (s *Server) writePassthroughError(w http.ResponseWriter, r *http.Request, err error) {
	if sync.Classify(err) == models.ErrAuthExpired {
		s.service.HandleAuthExpired(r.Context(), userID(r))
	}
	WriteClassifiedError(w, err)
}

func (s *Server) handleListCalendars(w http.ResponseWriter, r *http.Request) {
	api, ok := s.apiFor(w, r)
	if !ok {
		return
	}

	entries, err := api.ListCalendars(r.Context())
	if err != nil {
		s.writePassthroughError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, entries)
}

type createCalendarRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateCalendar(w http.ResponseWriter, r *http.Request) {
	var req createCalendarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		WriteError(w, http.StatusBadRequest, CodeBadRequest, "name is required")
		return
	}

	api, ok := s.apiFor(w, r)
	if !ok {
		return
	}

	cal, err := api.CreateCalendar(r.Context(), req.Name)
	if err != nil {
		s.writePassthroughError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, cal)
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	api, ok := s.apiFor(w, r)
	if !ok {
		return
	}

	timeMin, timeMax, err := eventWindow(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	events, err := api.ListEvents(r.Context(), mux.Vars(r)["id"], timeMin, timeMax)
	if err != nil {
		s.writePassthroughError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, events)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var event calendar.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		WriteError(w, http.StatusBadRequest, CodeBadRequest, "invalid event body")
		return
	}

	api, ok := s.apiFor(w, r)
	if !ok {
		return
	}

	created, err := api.InsertEvent(r.Context(), mux.Vars(r)["id"], &event)
	if err != nil {
		s.writePassthroughError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	var event calendar.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		WriteError(w, http.StatusBadRequest, CodeBadRequest, "invalid event body")
		return
	}

	api, ok := s.apiFor(w, r)
	if !ok {
		return
	}

	vars := mux.Vars(r)
	updated, err := api.UpdateEvent(r.Context(), vars["id"], vars["eventID"], &event)
	if err != nil {
		s.writePassthroughError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	api, ok := s.apiFor(w, r)
	if !ok {
		return
	}

	vars := mux.Vars(r)
	if err := api.DeleteEvent(r.Context(), vars["id"], vars["eventID"]); err != nil {
		s.writePassthroughError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// eventWindow parses optional time_min/time_max query params, defaulting to
// one month back and two months ahead.
func eventWindow(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now()
	timeMin := now.AddDate(0, -1, 0)
	timeMax := now.AddDate(0, 2, 0)

	if v := r.URL.Query().Get("time_min"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		timeMin = t
	}
	if v := r.URL.Query().Get("time_max"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		timeMax = t
	}

	return timeMin, timeMax, nil
}
