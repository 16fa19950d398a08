package repository

import (
	"context"

	"github.com/lalith-99/supportchat/internal/models"
)

// Every method takes context.Context first: these all do I/O, and the
// handler's request context carries the deadline. If the caller goes away,
// the query is cancelled with it.

// UserRepository handles account rows.
type UserRepository interface {
	// Create inserts a new user and returns it with ID and CreatedAt
	// populated. The password is already hashed by the caller.
	Create(ctx context.Context, username, passwordHash string, role models.Role) (*models.User, error)

	// GetByUsername returns a single user. Returns nil, nil if not found;
	// login treats "no such user" the same as "wrong password".
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// ListUsernamesByRole returns usernames holding the given role, in
	// creation order. Backs the admin roster (role "user").
	ListUsernamesByRole(ctx context.Context, role models.Role) ([]string, error)
}

// MessageRepository handles chat message persistence.
type MessageRepository interface {
	// Create persists a message and returns it with ID and Timestamp
	// populated. The returned row is what gets echoed over the live
	// channel, so sender and receiver see identical timestamps.
	Create(ctx context.Context, sender, receiver, body string) (*models.Message, error)

	// ListInvolving returns every message sent by or addressed to the
	// given username, oldest first (timestamp, then insertion order).
	// Serves both a user's own history and an admin's filtered history.
	ListInvolving(ctx context.Context, username string) ([]models.Message, error)

	// ListAll returns the full message log, oldest first. Serves the
	// admin's unfiltered history fetch.
	ListAll(ctx context.Context) ([]models.Message, error)
}
