// ABOUTME: Entry point for the salon backend and CLI
// ABOUTME: Routes to serve, sync, auth, and allow-list commands
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/demianbrunt/TrimSalon-sub000/cli"
	"github.com/demianbrunt/TrimSalon-sub000/config"
	"github.com/demianbrunt/TrimSalon-sub000/db"
)

const version = "0.2.0"

func main() {
	showVersion := flag.Bool("version", false, "Show version and exit")
	configPath := flag.String("config", "", "Config path (default: ~/.config/trimsalon/config.yaml)")
	dbPath := flag.String("db-path", "", "Database path (default: ~/.local/share/trimsalon/trimsalon.db)")

	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("trimsalon version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	finalDBPath := cfg.DBPath
	if *dbPath != "" {
		finalDBPath = *dbPath
	}
	if finalDBPath == "" {
		finalDBPath = db.DefaultPath()
	}

	database, err := db.OpenDatabase(finalDBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	command := args[0]
	commandArgs := args[1:]

	switch command {
	case "serve":
		if err := cli.ServeCommand(database, cfg, commandArgs); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case "auth":
		if err := cli.AuthCommand(database, cfg, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "sync":
		if err := cli.SyncCommand(database, cfg, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "clear":
		if err := cli.ClearCommand(database, cfg, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "status":
		if err := cli.StatusCommand(database, cfg, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "allow":
		if err := cli.AllowCommand(database, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`trimsalon - salon management backend with Google Calendar sync

Usage:
  trimsalon [flags] <command>

Commands:
  serve              Start the HTTP API and the scheduled sync driver
  auth --user EMAIL  Authorize a Google account for calendar sync
  sync --user EMAIL  Run one manual sync pass
  clear --user EMAIL Delete every synced event from the target calendar
  status --user EMAIL Show authorization and allow-list state for an account
  allow --user EMAIL Add an account to the scheduled-sync allow-list

Flags:
  -version           Show version and exit
  -config PATH       Config file path
  -db-path PATH      Database path`)
}
