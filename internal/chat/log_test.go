package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lalith-99/supportchat/internal/models"
)

var logTestBase = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func testMsg(sender, body string, offset time.Duration) models.Message {
	return models.Message{
		Sender:    sender,
		Receiver:  models.AdminDesk,
		Body:      body,
		Timestamp: logTestBase.Add(offset),
	}
}

func bodies(messages []models.Message) []string {
	out := make([]string, len(messages))
	for i, msg := range messages {
		out[i] = msg.Body
	}
	return out
}

func TestLogAppendKeepsArrivalOrder(t *testing.T) {
	var log ConversationLog

	// Deliveries with out-of-order timestamps still append in arrival
	// order: the log never re-sorts.
	log.Append(testMsg("alice", "third", 3*time.Minute))
	log.Append(testMsg("alice", "first", 1*time.Minute))
	log.Append(testMsg("alice", "second", 2*time.Minute))

	assert.Equal(t, []string{"third", "first", "second"}, bodies(log.Messages()))
}

func TestLogCompleteFetchReplacesEntries(t *testing.T) {
	var log ConversationLog

	log.Append(testMsg("alice", "stale", 0))
	log.BeginFetch()
	log.CompleteFetch([]models.Message{
		testMsg("admin", "hi", 1*time.Minute),
		testMsg("alice", "hello", 2*time.Minute),
	})

	assert.Equal(t, []string{"hi", "hello"}, bodies(log.Messages()))
}

func TestLogKeepsLiveArrivalsDuringFetch(t *testing.T) {
	var log ConversationLog

	log.BeginFetch()
	log.Append(testMsg("admin", "live", 5*time.Minute))
	log.CompleteFetch([]models.Message{
		testMsg("admin", "old", 1*time.Minute),
	})

	assert.Equal(t, []string{"old", "live"}, bodies(log.Messages()))
}

func TestLogDedupsFetchOverlap(t *testing.T) {
	var log ConversationLog

	// A message delivered live while the fetch was in flight can also be
	// in the fetch result. It must appear once, in fetch position.
	overlap := testMsg("admin", "both", 2*time.Minute)

	log.BeginFetch()
	log.Append(overlap)
	log.Append(testMsg("admin", "live-only", 3*time.Minute))
	log.CompleteFetch([]models.Message{
		testMsg("admin", "old", 1*time.Minute),
		overlap,
	})

	assert.Equal(t, []string{"old", "both", "live-only"}, bodies(log.Messages()))
}

func TestLogFailFetchKeepsPriorEntries(t *testing.T) {
	var log ConversationLog

	log.Append(testMsg("admin", "kept", 0))
	log.BeginFetch()
	log.FailFetch()

	assert.Equal(t, []string{"kept"}, bodies(log.Messages()))
}

func TestLogResetDiscardsEverything(t *testing.T) {
	var log ConversationLog

	log.Append(testMsg("admin", "gone", 0))
	log.BeginFetch()
	log.Append(testMsg("admin", "also gone", time.Minute))
	log.Reset()

	assert.Zero(t, log.Len())
	assert.Empty(t, log.Messages())
}

func TestLogMessagesReturnsCopy(t *testing.T) {
	var log ConversationLog

	log.Append(testMsg("admin", "original", 0))
	view := log.Messages()
	view[0].Body = "mutated"

	assert.Equal(t, []string{"original"}, bodies(log.Messages()))
}
