package chat

import (
	"github.com/lalith-99/supportchat/internal/models"
)

// ConversationLog is the ordered message view for the active scope.
//
// Its invariant: after a completed fetch, the log holds exactly that
// fetch's result followed by every live delivery received since the fetch
// began, in arrival order. Live deliveries are appended, never re-sorted
// by timestamp. Switching scope resets the log entirely; it never mixes
// messages from two scopes.
//
// ConversationLog is not self-locking. The Controller serializes every
// mutation behind its own mutex, which keeps append/replace a single
// logical sequence.
type ConversationLog struct {
	entries []models.Message

	// pending collects live deliveries that arrive while a history fetch
	// is in flight, so CompleteFetch can keep them on top of the fetched
	// snapshot instead of losing them to the replacement.
	pending  []models.Message
	fetching bool
}

// Reset discards everything. Called on scope change before the new scope's
// fetch is dispatched.
func (l *ConversationLog) Reset() {
	l.entries = nil
	l.pending = nil
	l.fetching = false
}

// BeginFetch marks a history fetch as in flight for the current scope.
func (l *ConversationLog) BeginFetch() {
	l.fetching = true
	l.pending = nil
}

// Append adds a live delivery at the end, in arrival order.
func (l *ConversationLog) Append(msg models.Message) {
	l.entries = append(l.entries, msg)
	if l.fetching {
		l.pending = append(l.pending, msg)
	}
}

// CompleteFetch replaces the log with the fetch result, then re-appends
// the live deliveries that arrived while the fetch was in flight. A live
// message the fetch also returned (it was stored before the server ran the
// query) is kept once, from the fetched snapshot.
func (l *ConversationLog) CompleteFetch(history []models.Message) {
	seen := make(map[messageKey]struct{}, len(history))
	for _, msg := range history {
		seen[keyOf(msg)] = struct{}{}
	}

	entries := make([]models.Message, 0, len(history)+len(l.pending))
	entries = append(entries, history...)
	for _, msg := range l.pending {
		if _, dup := seen[keyOf(msg)]; dup {
			continue
		}
		entries = append(entries, msg)
	}

	l.entries = entries
	l.pending = nil
	l.fetching = false
}

// FailFetch abandons the in-flight fetch and keeps the log as it was.
func (l *ConversationLog) FailFetch() {
	l.pending = nil
	l.fetching = false
}

// Messages returns a copy of the current view.
func (l *ConversationLog) Messages() []models.Message {
	out := make([]models.Message, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *ConversationLog) Len() int {
	return len(l.entries)
}

// messageKey identifies a message for fetch/live dedup. Server-assigned
// IDs would be enough on their own, but history rows and live deliveries
// may come from different transports, so the full content triple is used.
type messageKey struct {
	sender string
	body   string
	ts     int64
}

func keyOf(msg models.Message) messageKey {
	return messageKey{
		sender: msg.Sender,
		body:   msg.Body,
		ts:     msg.Timestamp.UnixNano(),
	}
}
