// ABOUTME: HTTP middleware and error response helpers
// ABOUTME: Request logging, panic recovery, and the stable error vocabulary
package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/demianbrunt/TrimSalon-sub000/models"
	"github.com/demianbrunt/TrimSalon-sub000/sync"
)

// ErrorResponse is the standardized API error body. Error holds one of the
// stable categories so UI layers can react programmatically instead of
// matching provider error text.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Stable caller-facing error categories.
const (
	CodeUnauthenticated    = "unauthenticated"
	CodeResourceExhausted  = "resource_exhausted"
	CodeFailedPrecondition = "failed_precondition"
	CodeNotFound           = "not_found"
	CodeBadRequest         = "bad_request"
	CodeInternal           = "internal"
)

// WriteError writes a JSON error response with the given status code.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: code, Message: message})
}

// WriteJSON writes a JSON success response.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteClassifiedError maps a sync-layer error to the stable categories.
func WriteClassifiedError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sync.ErrNoCredentials):
		WriteError(w, http.StatusPreconditionFailed, CodeFailedPrecondition, "calendar not authorized")
		return
	case errors.Is(err, sync.ErrSyncRunning):
		WriteError(w, http.StatusPreconditionFailed, CodeFailedPrecondition, "sync already running")
		return
	}

	switch sync.Classify(err) {
	case models.ErrAuthExpired:
		WriteError(w, http.StatusUnauthorized, CodeUnauthenticated, "calendar authorization expired")
	case models.ErrRateLimited:
		WriteError(w, http.StatusTooManyRequests, CodeResourceExhausted, "calendar rate limit reached")
	case models.ErrNotFound:
		WriteError(w, http.StatusNotFound, CodeNotFound, "calendar resource not found")
	default:
		WriteError(w, http.StatusInternalServerError, CodeInternal, "internal error")
	}
}

// ErrorRecovery recovers from handler panics and returns a 500.
func ErrorRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("Panic recovered: %v\n%s", err, debug.Stack())
				WriteError(w, http.StatusInternalServerError, CodeInternal, "An unexpected error occurred")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}

// Logging logs method, path, status, size, and duration per request.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		log.Printf("%s %s %d %d %s", r.Method, r.URL.Path, wrapped.status, wrapped.size, time.Since(start))
	})
}

// userID extracts the caller identity. Auth screen chrome lives outside this
// service; the reverse proxy in front of it sets the header.
func userID(r *http.Request) string {
	return r.Header.Get("X-User-Email")
}

// RequireUser rejects requests without a caller identity.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID(r) == "" {
			WriteError(w, http.StatusUnauthorized, CodeUnauthenticated, "missing user identity")
			return
		}
		next.ServeHTTP(w, r)
	})
}
