// ABOUTME: OAuth configuration for the Google Calendar API
// ABOUTME: Builds oauth2.Config and converts stored credentials to tokens
package sync

import (
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/demianbrunt/TrimSalon-sub000/config"
	"github.com/demianbrunt/TrimSalon-sub000/models"
)

// NewOAuthConfig creates the oauth2 config for Google Calendar access.
// Users must create their own OAuth app in Google Cloud Console.
func NewOAuthConfig(cfg config.GoogleConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/calendar",
		},
		Endpoint: google.Endpoint,
	}
}

// tokenFromCredential rebuilds an oauth2 token from a stored credential.
func tokenFromCredential(cred *models.Credential) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		TokenType:    cred.TokenType,
	}
	if cred.Expiry != nil {
		tok.Expiry = *cred.Expiry
	}
	return tok
}

// CredentialFromToken converts a provider token into the stored form.
func CredentialFromToken(userID string, tok *oauth2.Token) *models.Credential {
	cred := &models.Credential{
		UserID:       userID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
	}
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry.UTC().Truncate(time.Second)
		cred.Expiry = &expiry
	}
	return cred
}
