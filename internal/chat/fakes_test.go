package chat

import (
	"context"
	"sync"

	"github.com/lalith-99/supportchat/internal/models"
)

// Scripted fakes for the controller's collaborators. They are hand-rolled
// rather than generated: the interesting behavior (gated fetches, channel
// close semantics) is easier to express directly.

type fakeResolver struct {
	session models.Session
	err     error
}

func (f *fakeResolver) ResolveSession(ctx context.Context) (models.Session, error) {
	return f.session, f.err
}

type fakeRoster struct {
	mu       sync.Mutex
	partners []string
	err      error
	calls    int
}

func (f *fakeRoster) ListParticipants(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.partners, f.err
}

func (f *fakeRoster) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeHistory scripts FetchHistory per counterpart. A gate, when present,
// blocks the fetch until the test releases it (or the context dies);
// that is how stale-fetch races are staged deterministically.
type fakeHistory struct {
	mu        sync.Mutex
	responses map[string][]models.Message
	errs      map[string]error
	gates     map[string]chan struct{}
	calls     []string
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{
		responses: make(map[string][]models.Message),
		errs:      make(map[string]error),
		gates:     make(map[string]chan struct{}),
	}
}

func (f *fakeHistory) FetchHistory(ctx context.Context, counterpart string) ([]models.Message, error) {
	f.mu.Lock()
	f.calls = append(f.calls, counterpart)
	gate := f.gates[counterpart]
	response := f.responses[counterpart]
	err := f.errs[counterpart]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return response, err
}

func (f *fakeHistory) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

type fakeChannel struct {
	inbound chan models.Message
	errs    chan error

	mu      sync.Mutex
	sent    []models.SendMessagePayload
	sendErr error
	closes  int
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		inbound: make(chan models.Message, 16),
		errs:    make(chan error, 16),
	}
}

func (f *fakeChannel) Inbound() <-chan models.Message { return f.inbound }
func (f *fakeChannel) Errors() <-chan error           { return f.errs }

func (f *fakeChannel) Send(ctx context.Context, body, receiver string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, models.SendMessagePayload{Body: body, Receiver: receiver})
	return f.sendErr
}

func (f *fakeChannel) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	if f.closes == 1 {
		close(f.inbound)
		close(f.errs)
	}
	return nil
}

func (f *fakeChannel) deliver(msg models.Message) {
	f.inbound <- msg
}

func (f *fakeChannel) sentPayloads() []models.SendMessagePayload {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.SendMessagePayload, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeChannel) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}
