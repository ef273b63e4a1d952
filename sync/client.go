// ABOUTME: Calendar client factory with token-refresh persistence
// ABOUTME: Produces authenticated CalendarAPI handles per user
package sync

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/demianbrunt/TrimSalon-sub000/db"
)

// TokenRefreshHook is invoked synchronously whenever the provider mints a new
// access token during any call made through a client. It must persist the
// token before the call continues.
type TokenRefreshHook func(ctx context.Context, userID string, tok *oauth2.Token) error

// ClientFactory builds authenticated CalendarAPI handles. Constructed once per
// process and injected; there is no package-level cached client.
type ClientFactory struct {
	database    *sql.DB
	oauthConfig *oauth2.Config
	onRefresh   TokenRefreshHook
}

// NewClientFactory wires a factory to the credential store. onRefresh may be
// nil, in which case refreshed tokens are saved straight to the store.
func NewClientFactory(database *sql.DB, oauthConfig *oauth2.Config, onRefresh TokenRefreshHook) *ClientFactory {
	f := &ClientFactory{database: database, oauthConfig: oauthConfig, onRefresh: onRefresh}
	if f.onRefresh == nil {
		f.onRefresh = func(ctx context.Context, userID string, tok *oauth2.Token) error {
			return db.SaveToken(ctx, database, userID, CredentialFromToken(userID, tok))
		}
	}
	return f
}

// ClientFor returns an authenticated handle for the user, or (nil, nil) when
// no credential is stored. Absence is not an error.
func (f *ClientFactory) ClientFor(ctx context.Context, userID string) (CalendarAPI, error) {
	cred, err := db.LoadToken(ctx, f.database, userID)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, nil
	}

	src := &persistingTokenSource{
		userID:    userID,
		src:       f.oauthConfig.TokenSource(ctx, tokenFromCredential(cred)),
		last:      cred.AccessToken,
		onRefresh: f.onRefresh,
		ctx:       ctx,
	}

	httpClient := oauth2.NewClient(ctx, src)
	svc, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return NewGoogleAPI(svc), nil
}

// HasCredentials reports whether the user has a stored credential.
func (f *ClientFactory) HasCredentials(ctx context.Context, userID string) (bool, error) {
	cred, err := db.LoadToken(ctx, f.database, userID)
	if err != nil {
		return false, err
	}
	return cred != nil, nil
}

// SaveAuthorizedToken stores a token obtained from the OAuth exchange flow.
func (f *ClientFactory) SaveAuthorizedToken(ctx context.Context, userID string, tok *oauth2.Token) error {
	return db.SaveToken(ctx, f.database, userID, CredentialFromToken(userID, tok))
}

// persistingTokenSource wraps an oauth2.TokenSource and calls the refresh hook
// inline whenever the underlying source returns a new access token.
type persistingTokenSource struct {
	userID    string
	src       oauth2.TokenSource
	onRefresh TokenRefreshHook
	ctx       context.Context

	mu   sync.Mutex
	last string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if tok.AccessToken != s.last {
		if err := s.onRefresh(s.ctx, s.userID, tok); err != nil {
			return nil, fmt.Errorf("failed to persist refreshed token: %w", err)
		}
		s.last = tok.AccessToken
	}

	return tok, nil
}
