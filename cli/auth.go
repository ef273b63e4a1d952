// ABOUTME: Google OAuth CLI command
// ABOUTME: Runs the browser authorization flow and stores the user's tokens
package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"

	"golang.org/x/oauth2"

	"github.com/demianbrunt/TrimSalon-sub000/config"
	"github.com/demianbrunt/TrimSalon-sub000/sync"
)

// AuthCommand handles OAuth setup for a user.
func AuthCommand(database *sql.DB, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("auth", flag.ExitOnError)
	user := fs.String("user", "", "Email of the account to authorize")
	_ = fs.Parse(args)

	if *user == "" {
		return fmt.Errorf("--user is required")
	}

	oauthConfig := sync.NewOAuthConfig(cfg.Google)
	if oauthConfig.ClientID == "" || oauthConfig.ClientSecret == "" {
		return fmt.Errorf("google OAuth credentials not configured. Set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET environment variables")
	}

	addr, callbackPath, err := callbackEndpoint(oauthConfig.RedirectURL)
	if err != nil {
		return err
	}

	ctx := context.Background()

	// Start local server for OAuth callback
	callbackChan := make(chan *oauth2.Token)
	errChan := make(chan error)

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			errChan <- fmt.Errorf("no authorization code received")
			return
		}

		token, err := oauthConfig.Exchange(ctx, code)
		if err != nil {
			errChan <- fmt.Errorf("failed to exchange code: %w", err)
			return
		}

		callbackChan <- token
		_, _ = fmt.Fprintf(w, "Authorization successful! You can close this window.")
	})

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	authURL := oauthConfig.AuthCodeURL("state", oauth2.AccessTypeOffline)

	fmt.Println("Opening browser for Google OAuth...")
	fmt.Printf("\nIf browser doesn't open, visit this URL:\n%s\n\n", authURL)

	_ = openBrowser(authURL)

	// Wait for callback or error
	select {
	case token := <-callbackChan:
		_ = server.Shutdown(ctx)

		factory := sync.NewClientFactory(database, oauthConfig, nil)
		if err := factory.SaveAuthorizedToken(ctx, *user, token); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}

		fmt.Printf("\n✓ Authenticated %s successfully\n", *user)
		fmt.Println("Ready to sync! Run 'trimsalon sync --user " + *user + "'.")
		return nil

	case err := <-errChan:
		_ = server.Shutdown(ctx)
		return fmt.Errorf("OAuth flow failed: %w", err)
	}
}

// callbackEndpoint derives the local listen address and handler path from the
// configured OAuth redirect URL, so a non-default port still completes the flow.
func callbackEndpoint(redirectURL string) (addr, path string, err error) {
	u, err := url.Parse(redirectURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid redirect URL %q: %w", redirectURL, err)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("redirect URL %q has no host", redirectURL)
	}

	addr = u.Host
	if u.Port() == "" {
		addr += ":80"
	}

	path = u.Path
	if path == "" {
		path = "/"
	}
	return addr, path, nil
}

// openBrowser attempts to open URL in default browser
func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}

	command := exec.Command(cmd, args...)
	return command.Start()
}
