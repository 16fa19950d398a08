package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Role partitions participants into the two sides of the desk.
//
// Why a named string type and not iota constants?
//   - The role travels through JSON (session responses, JWT claims) as a
//     plain string. A string type marshals with zero glue code.
//   - RoleGuest is the explicit "not resolved yet" state the client starts
//     in; the zero value "" is never valid.
type Role string

const (
	RoleGuest Role = "guest"
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// AdminDesk is the reserved identity every user-role message is addressed
// to. All admin connections join its delivery room, so whichever admin is
// on shift receives user traffic.
const AdminDesk = "admin"

// Session is who the current caller is. The zero value (guest, empty
// identity) is the degraded state the client keeps when resolution fails.
type Session struct {
	Role     Role   `json:"role"`
	Identity string `json:"username"`
}

// User is a server-side account row.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Message is a single chat message.
//
// Sender and Receiver are usernames, except that user-role messages carry
// Receiver = AdminDesk rather than a specific admin. Conversation order is
// timestamp with insertion order as tie-break; the client never re-sorts
// what the server or the live channel hands it.
type Message struct {
	ID        uuid.UUID `json:"id"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Body      string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Live-channel event names. The envelope mirrors the event-based protocol
// of the original socket transport: one JSON object per frame, payload
// nested under "data".
const (
	EventSendMessage    = "send_message"
	EventReceiveMessage = "receive_message"
	EventError          = "error"
)

// Event is the live-channel frame envelope.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// SendMessagePayload is the client→server body of a send_message event.
// Receiver may be empty for user-role senders; the server derives it.
type SendMessagePayload struct {
	Body     string `json:"message"`
	Receiver string `json:"receiver"`
}

// ErrorPayload is the server→client body of an error event.
type ErrorPayload struct {
	Message string `json:"message"`
}

// NewEvent wraps a payload in an envelope.
func NewEvent(name string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Event: name, Data: data}, nil
}
