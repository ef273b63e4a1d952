// ABOUTME: Tests for error classification
// ABOUTME: Covers status codes, provider reasons, and message substrings
package sync

import (
	"errors"
	"fmt"
	"testing"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"github.com/demianbrunt/TrimSalon-sub000/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want models.ErrClass
	}{
		{"nil", nil, models.ErrUnknown},
		{"401", &googleapi.Error{Code: 401}, models.ErrAuthExpired},
		{"429", &googleapi.Error{Code: 429}, models.ErrRateLimited},
		{"404", &googleapi.Error{Code: 404}, models.ErrNotFound},
		{"410", &googleapi.Error{Code: 410}, models.ErrNotFound},
		{"403 quota", &googleapi.Error{Code: 403, Message: "Quota exceeded for quota metric"}, models.ErrRateLimited},
		{"403 rate limit", &googleapi.Error{Code: 403, Message: "Rate Limit Exceeded"}, models.ErrRateLimited},
		{"403 other", &googleapi.Error{Code: 403, Message: "Forbidden"}, models.ErrUnknown},
		{"oauth retrieve error", &oauth2.RetrieveError{}, models.ErrAuthExpired},
		{"invalid_grant text", errors.New(`oauth2: "invalid_grant" "Token has been expired or revoked."`), models.ErrAuthExpired},
		{"rate limit text", errors.New("userRateLimitExceeded: rate limit hit"), models.ErrRateLimited},
		{"not found text", errors.New("event not found"), models.ErrNotFound},
		{"plain error", errors.New("connection reset by peer"), models.ErrUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassifyWrappedError(t *testing.T) {
	// Call sites wrap API errors with context before classification.
	wrapped := fmt.Errorf("failed to update event: %w", &googleapi.Error{Code: 401})
	if got := Classify(wrapped); got != models.ErrAuthExpired {
		t.Errorf("Classify(wrapped 401) = %s, want auth_expired", got)
	}
}
