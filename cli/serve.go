// ABOUTME: Serve command wiring the API server and the scheduled sync driver
// ABOUTME: Composition root: factory, status registry, service, scheduler
package cli

import (
	"database/sql"
	"flag"
	"fmt"

	"github.com/demianbrunt/TrimSalon-sub000/config"
	"github.com/demianbrunt/TrimSalon-sub000/sync"
	"github.com/demianbrunt/TrimSalon-sub000/web"
)

// ServeCommand starts the HTTP API with the cron scheduler running alongside.
func ServeCommand(database *sql.DB, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", cfg.ListenAddr, "Listen address")
	_ = fs.Parse(args)

	service := newService(database, cfg)

	scheduler := sync.NewScheduler(service, database, cfg.SyncInterval(), cfg.BatchTimeout())
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer scheduler.Stop()

	server := web.NewServer(database, service)
	return server.Start(*addr)
}
