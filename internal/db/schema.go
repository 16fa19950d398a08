package db

import (
	"context"
	"fmt"
)

// EnsureSchema creates the tables the server needs if they do not exist.
// Messages are keyed by username pairs, not channel IDs: every conversation
// in this system is "some user ↔ the admin desk".
func (db *DB) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			username      text NOT NULL UNIQUE,
			password_hash text NOT NULL,
			role          text NOT NULL,
			created_at    timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id         uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			sender     text NOT NULL,
			receiver   text NOT NULL,
			body       text NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages (sender)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_receiver ON messages (receiver)`,
	}

	for _, stmt := range statements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
