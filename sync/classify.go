// ABOUTME: Error classification for calendar API failures
// ABOUTME: Maps transport and provider errors to the engine's small taxonomy
package sync

import (
	"errors"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"github.com/demianbrunt/TrimSalon-sub000/models"
)

// Classify maps a raw provider error to the taxonomy every call site uses to
// decide recovery. No caller re-derives error meaning from raw errors.
func Classify(err error) models.ErrClass {
	if err == nil {
		return models.ErrUnknown
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		// Refresh token rejected; re-authorization is the only way out.
		return models.ErrAuthExpired
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized:
			return models.ErrAuthExpired
		case http.StatusTooManyRequests:
			return models.ErrRateLimited
		case http.StatusNotFound, http.StatusGone:
			return models.ErrNotFound
		case http.StatusForbidden:
			// Google reports quota exhaustion as 403 with a reason string.
			if containsAny(apiErr.Message, "rate limit", "quota") {
				return models.ErrRateLimited
			}
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "invalid_grant", "token expired", "token has been expired or revoked"):
		return models.ErrAuthExpired
	case containsAny(msg, "rate limit", "rateLimitExceeded", "quota"):
		return models.ErrRateLimited
	case containsAny(msg, "not found", "notfound"):
		return models.ErrNotFound
	}

	return models.ErrUnknown
}

func containsAny(s string, subs ...string) bool {
	s = strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(s, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}
