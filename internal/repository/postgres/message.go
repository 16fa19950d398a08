package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lalith-99/supportchat/internal/models"
)

type MessageStore struct {
	pool *pgxpool.Pool
}

func NewMessageStore(pool *pgxpool.Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

func (s *MessageStore) Create(ctx context.Context, sender, receiver, body string) (*models.Message, error) {
	query := `
		INSERT INTO messages (sender, receiver, body, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING id, sender, receiver, body, created_at`

	var msg models.Message
	err := s.pool.QueryRow(ctx, query, sender, receiver, body).Scan(
		&msg.ID,
		&msg.Sender,
		&msg.Receiver,
		&msg.Body,
		&msg.Timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return &msg, nil
}

// ListInvolving returns the conversation as seen from one side of the desk:
// everything the username sent plus everything addressed to it. User-role
// sends carry receiver='admin', so a user's own messages are matched on the
// sender column, and an admin filtering on a user catches that user's sends
// the same way.
//
// Ordered by created_at with id as tie-break so rows inserted in the same
// instant keep a stable order.
func (s *MessageStore) ListInvolving(ctx context.Context, username string) ([]models.Message, error) {
	query := `
		SELECT id, sender, receiver, body, created_at
		FROM messages
		WHERE sender = $1 OR receiver = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := s.pool.Query(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (s *MessageStore) ListAll(ctx context.Context) ([]models.Message, error) {
	query := `
		SELECT id, sender, receiver, body, created_at
		FROM messages
		ORDER BY created_at ASC, id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

func scanMessages(rows pgx.Rows) ([]models.Message, error) {
	messages := make([]models.Message, 0)
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.Sender,
			&msg.Receiver,
			&msg.Body,
			&msg.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}
