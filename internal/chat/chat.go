// Package chat is the client-side synchronization core: it reconciles the
// persisted history fetched from the server with the live event stream,
// routes outbound messages by role, and keeps one ordered conversation view
// per counterpart.
//
// The package owns no transport. Its four collaborators are injected as
// interfaces; internal/client provides the HTTP and websocket
// implementations, and the tests provide scripted fakes.
package chat

import (
	"context"

	"github.com/lalith-99/supportchat/internal/models"
)

// SessionResolver answers "who am I". Called exactly once per controller
// lifetime. A failure is not fatal: the controller stays a guest.
type SessionResolver interface {
	ResolveSession(ctx context.Context) (models.Session, error)
}

// RosterProvider lists the usernames an admin can open a conversation
// with. Only consulted when the resolved role is admin.
type RosterProvider interface {
	ListParticipants(ctx context.Context) ([]string, error)
}

// HistoryLoader fetches the persisted message history for a scope. An
// empty counterpart means "unfiltered": for a user role that is their whole
// conversation, for an admin it is the full log. The unfiltered fetch is a
// meaningful request, not a request to skip.
type HistoryLoader interface {
	FetchHistory(ctx context.Context, counterpart string) ([]models.Message, error)
}

// LiveChannel is the persistent bidirectional connection.
//
// Contract:
//   - Inbound yields delivered messages in arrival order and is closed by
//     Close (or by the transport dying). Errors likewise.
//   - Send is fire-and-forget: no acknowledgement, and the caller must not
//     locally append what it sent. The server echoes every stored message
//     back to the sender.
//   - Close must be safe to call once; the controller guarantees it is
//     called exactly once.
type LiveChannel interface {
	Inbound() <-chan models.Message
	Errors() <-chan error
	Send(ctx context.Context, body, receiver string) error
	Close() error
}
