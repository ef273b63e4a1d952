// ABOUTME: HTTP API server for the salon backend
// ABOUTME: Routes sync operations, calendar passthrough, and appointment CRUD
package web

import (
	"database/sql"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/demianbrunt/TrimSalon-sub000/sync"
)

// Server exposes the sync engine and the appointment store over HTTP.
type Server struct {
	db      *sql.DB
	service *sync.Service
}

func NewServer(db *sql.DB, service *sync.Service) *Server {
	return &Server{db: db, service: service}
}

// Router builds the full route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(Logging)
	r.Use(ErrorRecovery)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(RequireUser)

	// Sync operations
	api.HandleFunc("/sync", s.handleSyncNow).Methods("POST")
	api.HandleFunc("/sync/status", s.handleSyncStatus).Methods("GET")
	api.HandleFunc("/sync/enable", s.handleSyncEnable).Methods("POST")
	api.HandleFunc("/sync/disable", s.handleSyncDisable).Methods("POST")
	api.HandleFunc("/sync/clear", s.handleClearCalendar).Methods("POST")

	// Calendar passthrough
	api.HandleFunc("/calendars", s.handleListCalendars).Methods("GET")
	api.HandleFunc("/calendars", s.handleCreateCalendar).Methods("POST")
	api.HandleFunc("/calendars/{id}/events", s.handleListEvents).Methods("GET")
	api.HandleFunc("/calendars/{id}/events", s.handleCreateEvent).Methods("POST")
	api.HandleFunc("/calendars/{id}/events/{eventID}", s.handleUpdateEvent).Methods("PUT")
	api.HandleFunc("/calendars/{id}/events/{eventID}", s.handleDeleteEvent).Methods("DELETE")

	// Appointment CRUD
	api.HandleFunc("/appointments", s.handleListAppointments).Methods("GET")
	api.HandleFunc("/appointments", s.handleCreateAppointment).Methods("POST")
	api.HandleFunc("/appointments/{id}", s.handleGetAppointment).Methods("GET")
	api.HandleFunc("/appointments/{id}", s.handleUpdateAppointment).Methods("PUT")
	api.HandleFunc("/appointments/{id}", s.handleDeleteAppointment).Methods("DELETE")

	return r
}

// Start blocks serving HTTP on addr.
func (s *Server) Start(addr string) error {
	log.Printf("Starting API server at %s", addr)
	return http.ListenAndServe(addr, s.Router())
}
