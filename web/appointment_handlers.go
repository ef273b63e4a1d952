// ABOUTME: Appointment CRUD handlers for the booking subsystem
// ABOUTME: Mutations kick off a background sync that never fails the request
package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/demianbrunt/TrimSalon-sub000/db"
	"github.com/demianbrunt/TrimSalon-sub000/models"
)

type appointmentRequest struct {
	ClientName string     `json:"client_name"`
	DogName    string     `json:"dog_name"`
	Services   []string   `json:"services,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	Aggressive bool       `json:"aggressive,omitempty"`
	StartTime  *time.Time `json:"start_time,omitempty"`
	EndTime    *time.Time `json:"end_time,omitempty"`
}

func (s *Server) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	appts, err := db.ListAppointments(r.Context(), s.db, userID(r), 0)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, CodeInternal, "failed to list appointments")
		return
	}
	if appts == nil {
		appts = []*models.Appointment{}
	}
	WriteJSON(w, http.StatusOK, appts)
}

func (s *Server) handleGetAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		WriteError(w, http.StatusBadRequest, CodeBadRequest, "invalid appointment id")
		return
	}

	appt, err := db.GetAppointment(r.Context(), s.db, id)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, CodeInternal, "failed to load appointment")
		return
	}
	if appt == nil || appt.Deleted || appt.UserID != userID(r) {
		WriteError(w, http.StatusNotFound, CodeNotFound, "appointment not found")
		return
	}
	WriteJSON(w, http.StatusOK, appt)
}

func (s *Server) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body")
		return
	}
	if req.ClientName == "" {
		WriteError(w, http.StatusBadRequest, CodeBadRequest, "client_name is required")
		return
	}

	appt := &models.Appointment{
		UserID:     userID(r),
		ClientName: req.ClientName,
		DogName:    req.DogName,
		Services:   req.Services,
		Notes:      req.Notes,
		Aggressive: req.Aggressive,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
	}

	if err := db.CreateAppointment(r.Context(), s.db, appt); err != nil {
		WriteError(w, http.StatusInternalServerError, CodeInternal, "failed to create appointment")
		return
	}

	// The booking succeeds regardless of sync outcome.
	s.service.SyncAsync(userID(r))

	WriteJSON(w, http.StatusCreated, appt)
}

func (s *Server) handleUpdateAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		WriteError(w, http.StatusBadRequest, CodeBadRequest, "invalid appointment id")
		return
	}

	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body")
		return
	}

	appt, err := db.GetAppointment(r.Context(), s.db, id)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, CodeInternal, "failed to load appointment")
		return
	}
	if appt == nil || appt.Deleted || appt.UserID != userID(r) {
		WriteError(w, http.StatusNotFound, CodeNotFound, "appointment not found")
		return
	}

	appt.ClientName = req.ClientName
	appt.DogName = req.DogName
	appt.Services = req.Services
	appt.Notes = req.Notes
	appt.Aggressive = req.Aggressive
	appt.StartTime = req.StartTime
	appt.EndTime = req.EndTime

	if err := db.UpdateAppointment(r.Context(), s.db, appt); err != nil {
		WriteError(w, http.StatusInternalServerError, CodeInternal, "failed to update appointment")
		return
	}

	s.service.SyncAsync(userID(r))

	WriteJSON(w, http.StatusOK, appt)
}

func (s *Server) handleDeleteAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		WriteError(w, http.StatusBadRequest, CodeBadRequest, "invalid appointment id")
		return
	}

	appt, err := db.GetAppointment(r.Context(), s.db, id)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, CodeInternal, "failed to load appointment")
		return
	}
	if appt == nil || appt.Deleted || appt.UserID != userID(r) {
		WriteError(w, http.StatusNotFound, CodeNotFound, "appointment not found")
		return
	}

	if err := db.DeleteAppointment(r.Context(), s.db, id); err != nil {
		WriteError(w, http.StatusInternalServerError, CodeInternal, "failed to delete appointment")
		return
	}

	// Soft-deleted appointments leave the sync window; the next pass cleans
	// up the external event as an orphan.
	s.service.SyncAsync(userID(r))

	w.WriteHeader(http.StatusNoContent)
}
