package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lalith-99/supportchat/internal/models"
	"github.com/lalith-99/supportchat/internal/observ"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type controllerFixture struct {
	resolver *fakeResolver
	roster   *fakeRoster
	history  *fakeHistory
	channel  *fakeChannel
	ctrl     *Controller
}

func newFixture(t *testing.T, session models.Session) *controllerFixture {
	t.Helper()
	f := &controllerFixture{
		resolver: &fakeResolver{session: session},
		roster:   &fakeRoster{},
		history:  newFakeHistory(),
		channel:  newFakeChannel(),
	}
	f.ctrl = NewController(f.resolver, f.roster, f.history, f.channel, observ.NewTestLogger())
	t.Cleanup(f.ctrl.Close)
	return f
}

func (f *controllerFixture) start(t *testing.T) {
	t.Helper()
	f.ctrl.Start(context.Background())
}

func (f *controllerFixture) waitForBodies(t *testing.T, expected ...string) {
	t.Helper()
	assert.Eventually(t, func() bool {
		got := bodies(f.ctrl.Messages())
		if len(got) != len(expected) {
			return false
		}
		for i := range got {
			if got[i] != expected[i] {
				return false
			}
		}
		return true
	}, waitFor, tick, "want message bodies %v, have %v", expected, bodies(f.ctrl.Messages()))
}

// End-to-end: the user scenario. History lands first, a live delivery
// appends after it, and a send goes to the admin desk without touching
// the local log.
func TestControllerUserEndToEnd(t *testing.T) {
	f := newFixture(t, models.Session{Role: models.RoleUser, Identity: "alice"})
	f.history.responses[""] = []models.Message{testMsg("admin", "hi", 0)}

	f.start(t)

	require.Equal(t, models.RoleUser, f.ctrl.Session().Role)
	f.waitForBodies(t, "hi")

	f.channel.deliver(testMsg("admin", "yo", time.Minute))
	f.waitForBodies(t, "hi", "yo")

	require.True(t, f.ctrl.SendEnabled("thanks"))
	require.True(t, f.ctrl.Send(context.Background(), "thanks"))

	sent := f.channel.sentPayloads()
	require.Len(t, sent, 1)
	assert.Equal(t, "thanks", sent[0].Body)
	assert.Equal(t, models.AdminDesk, sent[0].Receiver)

	// No local echo: the log holds only what the channel delivered.
	assert.Equal(t, []string{"hi", "yo"}, bodies(f.ctrl.Messages()))

	// A user has no roster.
	assert.Zero(t, f.roster.callCount())
}

// End-to-end: the admin scenario. Unselected scope still fetches (with no
// filter) and gates sends; selecting a counterpart refetches and enables
// sending to exactly that counterpart.
func TestControllerAdminEndToEnd(t *testing.T) {
	f := newFixture(t, models.Session{Role: models.RoleAdmin, Identity: "admin1"})
	f.roster.partners = []string{"bob", "carol"}
	f.history.responses[""] = []models.Message{
		testMsg("bob", "anyone there?", 0),
		testMsg("carol", "hello?", time.Minute),
	}
	f.history.responses["bob"] = []models.Message{testMsg("bob", "anyone there?", 0)}

	f.start(t)

	assert.Eventually(t, func() bool {
		return len(f.ctrl.Roster()) == 2
	}, waitFor, tick)
	assert.Equal(t, []string{"bob", "carol"}, f.ctrl.Roster())

	// Unfiltered fetch ran despite no selection.
	f.waitForBodies(t, "anyone there?", "hello?")
	require.Contains(t, f.history.callLog(), "")

	// No counterpart selected: send refused, nothing on the wire.
	assert.False(t, f.ctrl.SendEnabled("hi"))
	assert.False(t, f.ctrl.Send(context.Background(), "hi"))
	assert.Empty(t, f.channel.sentPayloads())

	f.ctrl.SelectScope("bob")
	f.waitForBodies(t, "anyone there?")
	assert.Equal(t, "bob", f.ctrl.Scope())

	require.True(t, f.ctrl.Send(context.Background(), "how can I help?"))
	sent := f.channel.sentPayloads()
	require.Len(t, sent, 1)
	assert.Equal(t, "bob", sent[0].Receiver)
}

func TestControllerGuestDegraded(t *testing.T) {
	f := newFixture(t, models.Session{})
	f.resolver.err = errors.New("auth service down")

	f.start(t)

	sess := f.ctrl.Session()
	assert.Equal(t, models.RoleGuest, sess.Role)
	assert.Empty(t, sess.Identity)

	// Degraded but functional-shaped: no roster fetch, sends refused.
	assert.Zero(t, f.roster.callCount())
	assert.False(t, f.ctrl.SendEnabled("hello"))
	assert.False(t, f.ctrl.Send(context.Background(), "hello"))
}

func TestControllerSendGating(t *testing.T) {
	f := newFixture(t, models.Session{Role: models.RoleUser, Identity: "alice"})
	f.start(t)

	assert.False(t, f.ctrl.Send(context.Background(), ""))
	assert.False(t, f.ctrl.Send(context.Background(), "   \t  "))
	assert.False(t, f.ctrl.SendEnabled("  "))
	assert.Empty(t, f.channel.sentPayloads())

	assert.True(t, f.ctrl.Send(context.Background(), "hi"))
	assert.Len(t, f.channel.sentPayloads(), 1)
}

// A channel-level send failure is logged and swallowed; the send still
// counts as dispatched.
func TestControllerSendErrorRecovered(t *testing.T) {
	f := newFixture(t, models.Session{Role: models.RoleUser, Identity: "alice"})
	f.channel.sendErr = errors.New("broken pipe")
	f.start(t)

	assert.True(t, f.ctrl.Send(context.Background(), "hi"))
}

func TestControllerScopeChangeReplacesLog(t *testing.T) {
	f := newFixture(t, models.Session{Role: models.RoleAdmin, Identity: "admin1"})
	f.history.responses[""] = []models.Message{testMsg("bob", "b1", 0), testMsg("carol", "c1", time.Minute)}
	f.history.responses["bob"] = []models.Message{testMsg("bob", "b1", 0)}

	f.start(t)
	f.waitForBodies(t, "b1", "c1")

	f.ctrl.SelectScope("bob")
	f.waitForBodies(t, "b1")

	// Deliveries after the switch append to the new scope's log.
	f.channel.deliver(testMsg("bob", "b2", 2*time.Minute))
	f.waitForBodies(t, "b1", "b2")
}

// Selecting carol while bob's fetch is still in flight: bob's late result
// must not clobber carol's log.
func TestControllerStaleFetchDiscarded(t *testing.T) {
	f := newFixture(t, models.Session{Role: models.RoleAdmin, Identity: "admin1"})
	bobGate := make(chan struct{})
	f.history.gates["bob"] = bobGate
	f.history.responses["bob"] = []models.Message{testMsg("bob", "stale", 0)}
	f.history.responses["carol"] = []models.Message{testMsg("carol", "fresh", 0)}

	f.start(t)

	f.ctrl.SelectScope("bob")
	assert.Eventually(t, func() bool {
		for _, call := range f.history.callLog() {
			if call == "bob" {
				return true
			}
		}
		return false
	}, waitFor, tick)

	f.ctrl.SelectScope("carol")
	f.waitForBodies(t, "fresh")

	// Release bob's fetch and give its (discarded) completion time to
	// land. The log must still be carol's.
	close(bobGate)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []string{"fresh"}, bodies(f.ctrl.Messages()))
}

// A live delivery racing an in-flight fetch survives the replacement.
func TestControllerDeliveryDuringFetchSurvives(t *testing.T) {
	f := newFixture(t, models.Session{Role: models.RoleUser, Identity: "alice"})
	gate := make(chan struct{})
	f.history.gates[""] = gate
	f.history.responses[""] = []models.Message{testMsg("admin", "old", 0)}

	f.start(t)

	f.channel.deliver(testMsg("admin", "during", time.Minute))
	f.waitForBodies(t, "during")

	close(gate)
	f.waitForBodies(t, "old", "during")
}

func TestControllerHistoryFailureKeepsEmptyLog(t *testing.T) {
	f := newFixture(t, models.Session{Role: models.RoleUser, Identity: "alice"})
	f.history.errs[""] = errors.New("server unavailable")

	f.start(t)

	// First fetch failed: the log stays empty, live traffic still lands.
	f.channel.deliver(testMsg("admin", "still works", 0))
	f.waitForBodies(t, "still works")
}

func TestControllerRosterFailureLeavesEmptyRoster(t *testing.T) {
	f := newFixture(t, models.Session{Role: models.RoleAdmin, Identity: "admin1"})
	f.roster.err = errors.New("server unavailable")

	f.start(t)

	assert.Eventually(t, func() bool {
		return f.roster.callCount() == 1
	}, waitFor, tick)
	assert.Empty(t, f.ctrl.Roster())

	// Roster failure blocks neither history nor the live channel.
	f.channel.deliver(testMsg("bob", "hi", 0))
	f.waitForBodies(t, "hi")
}

func TestControllerSelectScopeIgnoredForUser(t *testing.T) {
	f := newFixture(t, models.Session{Role: models.RoleUser, Identity: "alice"})
	f.start(t)

	assert.Eventually(t, func() bool {
		return len(f.history.callLog()) == 1
	}, waitFor, tick)

	f.ctrl.SelectScope("bob")

	assert.Empty(t, f.ctrl.Scope())
	assert.Equal(t, []string{""}, f.history.callLog())
}

func TestControllerReselectingSameScopeIsNoop(t *testing.T) {
	f := newFixture(t, models.Session{Role: models.RoleAdmin, Identity: "admin1"})
	f.start(t)

	f.ctrl.SelectScope("bob")
	assert.Eventually(t, func() bool {
		return len(f.history.callLog()) == 2
	}, waitFor, tick)

	f.ctrl.SelectScope("bob")
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, []string{"", "bob"}, f.history.callLog())
}

// Teardown closes the channel exactly once, however many times Close runs.
func TestControllerCloseIdempotent(t *testing.T) {
	f := newFixture(t, models.Session{Role: models.RoleUser, Identity: "alice"})
	f.start(t)

	f.ctrl.Close()
	f.ctrl.Close()
	f.ctrl.Close()

	assert.Equal(t, 1, f.channel.closeCount())
}

// A fetch resolving after teardown must not mutate anything.
func TestControllerResultAfterCloseDiscarded(t *testing.T) {
	f := newFixture(t, models.Session{Role: models.RoleUser, Identity: "alice"})
	gate := make(chan struct{})
	f.history.gates[""] = gate
	f.history.responses[""] = []models.Message{testMsg("admin", "late", 0)}

	f.start(t)
	go func() {
		time.Sleep(20 * time.Millisecond)
		close(gate)
	}()
	f.ctrl.Close()

	assert.Empty(t, f.ctrl.Messages())
	assert.False(t, f.ctrl.Send(context.Background(), "hi"))
	assert.False(t, f.ctrl.SendEnabled("hi"))
}
