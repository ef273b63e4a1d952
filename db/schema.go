// ABOUTME: Database schema definitions and migrations
// ABOUTME: Handles SQLite table creation and initialization
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS appointments (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	client_name TEXT NOT NULL,
	dog_name TEXT NOT NULL,
	services TEXT,
	notes TEXT,
	aggressive INTEGER NOT NULL DEFAULT 0,
	start_time DATETIME,
	end_time DATETIME,
	gcal_event_id TEXT,
	last_synced_at DATETIME,
	deleted INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_appointments_user_id ON appointments(user_id);
CREATE INDEX IF NOT EXISTS idx_appointments_start_time ON appointments(start_time);
CREATE INDEX IF NOT EXISTS idx_appointments_gcal_event_id ON appointments(gcal_event_id);

CREATE TABLE IF NOT EXISTS tokens (
	user_id TEXT PRIMARY KEY,
	access_token TEXT NOT NULL,
	refresh_token TEXT,
	token_type TEXT,
	expiry DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS allowed_users (
	email TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL
);
`

// InitSchema creates all tables if they don't exist.
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
