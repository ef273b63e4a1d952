// ABOUTME: Calendar sync CLI commands
// ABOUTME: One-shot manual sync, status display, and allow-list management
package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"

	"github.com/demianbrunt/TrimSalon-sub000/config"
	"github.com/demianbrunt/TrimSalon-sub000/db"
	"github.com/demianbrunt/TrimSalon-sub000/sync"
)

func newService(database *sql.DB, cfg *config.Config) *sync.Service {
	factory := sync.NewClientFactory(database, sync.NewOAuthConfig(cfg.Google), nil)
	return sync.NewService(database, factory, sync.NewStatusRegistry(),
		cfg.CalendarName, cfg.LookBack(), cfg.LookAhead(), cfg.MaxAppointments)
}

// SyncCommand runs one manual reconciliation pass for a user.
func SyncCommand(database *sql.DB, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	user := fs.String("user", "", "Email of the account to sync")
	_ = fs.Parse(args)

	if *user == "" {
		return fmt.Errorf("--user is required")
	}

	fmt.Printf("Syncing calendar for %s...\n", *user)

	service := newService(database, cfg)
	res, err := service.SyncNow(context.Background(), *user)
	if err != nil {
		return fmt.Errorf("sync failed (%s): %w", sync.Classify(err), err)
	}

	fmt.Printf("✓ %d created, %d updated, %d deleted, %d unchanged, %d skipped, %d failed\n",
		res.Created, res.Updated, res.Deleted, res.Unchanged, res.Skipped, res.Failed)
	return nil
}

// ClearCommand wipes every tagged event from the user's target calendar.
func ClearCommand(database *sql.DB, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	user := fs.String("user", "", "Email of the account to clear")
	_ = fs.Parse(args)

	if *user == "" {
		return fmt.Errorf("--user is required")
	}

	service := newService(database, cfg)
	deleted, err := service.ClearCalendar(context.Background(), *user)
	if err != nil {
		return fmt.Errorf("clear failed (%s): %w", sync.Classify(err), err)
	}

	fmt.Printf("✓ Deleted %d events\n", deleted)
	return nil
}

// StatusCommand reports a user's durable sync state: stored credentials and
// allow-list membership. Run state lives in the serve process, not here.
func StatusCommand(database *sql.DB, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	user := fs.String("user", "", "Email of the account to inspect")
	_ = fs.Parse(args)

	if *user == "" {
		return fmt.Errorf("--user is required")
	}

	ctx := context.Background()
	factory := sync.NewClientFactory(database, sync.NewOAuthConfig(cfg.Google), nil)

	authorized, err := factory.HasCredentials(ctx, *user)
	if err != nil {
		return err
	}

	allowed := false
	users, err := db.ListAllowedUsers(ctx, database)
	if err != nil {
		return err
	}
	for _, email := range users {
		if email == *user {
			allowed = true
			break
		}
	}

	fmt.Printf("User:        %s\n", *user)
	fmt.Printf("Authorized:  %v\n", authorized)
	fmt.Printf("Allow-list:  %v\n", allowed)
	fmt.Printf("Calendar:    %s\n", cfg.CalendarName)
	fmt.Printf("Window:      -%dd / +%dd\n", cfg.LookBackDays, cfg.LookAheadDays)
	return nil
}

// AllowCommand adds a user to the scheduled-sync allow-list.
func AllowCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("allow", flag.ExitOnError)
	user := fs.String("user", "", "Email to allow")
	_ = fs.Parse(args)

	if *user == "" {
		return fmt.Errorf("--user is required")
	}

	if err := db.AddAllowedUser(context.Background(), database, *user); err != nil {
		return err
	}

	fmt.Printf("✓ %s added to the sync allow-list\n", *user)
	return nil
}
