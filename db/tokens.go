// ABOUTME: Credential store for per-user OAuth tokens
// ABOUTME: Handles merge-upsert saves, lookups, and removal on expired auth
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/demianbrunt/TrimSalon-sub000/models"
)

// LoadToken returns the stored credential for a user, or nil if the user has
// never authorized. Absence is not an error.
func LoadToken(ctx context.Context, db *sql.DB, userID string) (*models.Credential, error) {
	cred := &models.Credential{}
	var refreshToken, tokenType sql.NullString
	var expiry sql.NullTime

	err := db.QueryRowContext(ctx, `
		SELECT user_id, access_token, refresh_token, token_type, expiry, created_at, updated_at
		FROM tokens WHERE user_id = ?
	`, userID).Scan(
		&cred.UserID,
		&cred.AccessToken,
		&refreshToken,
		&tokenType,
		&expiry,
		&cred.CreatedAt,
		&cred.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load token: %w", err)
	}

	if refreshToken.Valid {
		cred.RefreshToken = refreshToken.String
	}
	if tokenType.Valid {
		cred.TokenType = tokenType.String
	}
	if expiry.Valid {
		cred.Expiry = &expiry.Time
	}

	return cred, nil
}

// SaveToken upserts a credential, merging into any existing row. The provider
// only returns a refresh token on first authorization, so a refresh carrying
// just a new access token must not erase the stored refresh token.
func SaveToken(ctx context.Context, db *sql.DB, userID string, cred *models.Credential) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO tokens (user_id, access_token, refresh_token, token_type, expiry, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = COALESCE(NULLIF(excluded.refresh_token, ''), tokens.refresh_token),
			token_type = COALESCE(NULLIF(excluded.token_type, ''), tokens.token_type),
			expiry = COALESCE(excluded.expiry, tokens.expiry),
			updated_at = CURRENT_TIMESTAMP
	`, userID, cred.AccessToken, cred.RefreshToken, cred.TokenType, cred.Expiry)

	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// RemoveToken deletes a user's credential. Called only after the classifier
// reports an irrecoverable authorization failure.
func RemoveToken(ctx context.Context, db *sql.DB, userID string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM tokens WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return nil
}

// AddAllowedUser puts an email on the scheduled-sync allow-list.
func AddAllowedUser(ctx context.Context, db *sql.DB, email string) error {
	_, err := db.ExecContext(ctx, `
		INSERT OR IGNORE INTO allowed_users (email, created_at) VALUES (?, ?)
	`, email, time.Now())
	if err != nil {
		return fmt.Errorf("failed to add allowed user: %w", err)
	}
	return nil
}

// ListAllowedUsers returns every email the scheduled driver should sync.
func ListAllowedUsers(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT email FROM allowed_users ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("failed to list allowed users: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}

	return emails, rows.Err()
}
