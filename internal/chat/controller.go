package chat

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/lalith-99/supportchat/internal/models"
)

// Controller orchestrates the session, roster, history, and live channel
// into one consistent conversation view.
//
// Lifecycle: NewController → Start (once) → SelectScope/Send/snapshots →
// Close (idempotent). The live channel is injected already connected; the
// controller owns its teardown and closes it exactly once.
//
// Every collaborator failure is recovered locally: logged, state left at
// its last known good value. Nothing here panics or returns a fatal error;
// the worst outcome is an empty roster or an empty log.
type Controller struct {
	resolver SessionResolver
	roster   RosterProvider
	history  HistoryLoader
	channel  LiveChannel
	logger   *zap.Logger

	mu       sync.Mutex
	session  models.Session
	partners []string
	scope    string
	log      ConversationLog
	fetchGen uint64
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewController(
	resolver SessionResolver,
	roster RosterProvider,
	history HistoryLoader,
	channel LiveChannel,
	logger *zap.Logger,
) *Controller {
	return &Controller{
		resolver: resolver,
		roster:   roster,
		history:  history,
		channel:  channel,
		logger:   logger,
		session:  models.Session{Role: models.RoleGuest},
	}
}

// Start resolves the session and dispatches the initial fetches.
//
// The session resolves inline: everything downstream is parameterized by
// the role, so there is nothing useful to do before it lands. Resolution
// failure leaves the controller a guest; there is no retry.
//
// The initial history fetch always runs, even for an admin with no
// counterpart selected: the unfiltered fetch is part of the contract, not
// an optimization to skip.
func (c *Controller) Start(ctx context.Context) {
	sess, err := c.resolver.ResolveSession(ctx)
	if err != nil {
		c.logger.Warn("session resolution failed, continuing as guest", zap.Error(err))
		sess = models.Session{Role: models.RoleGuest}
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.session = sess
	c.fetchGen++
	gen := c.fetchGen
	c.log.BeginFetch()
	runCtx := c.ctx
	c.mu.Unlock()

	c.logger.Info("session resolved",
		zap.String("role", string(sess.Role)),
		zap.String("identity", sess.Identity),
	)

	if sess.Role == models.RoleAdmin {
		c.wg.Add(1)
		go c.fetchRoster(runCtx)
	}

	c.wg.Add(3)
	go c.fetch(runCtx, gen, "")
	go c.inboundPump()
	go c.errorPump()
}

// SelectScope switches the active conversation to the given counterpart.
// Admin-only: a user's counterpart is fixed, so the call is ignored for
// any other role. An empty id clears the selection back to the unfiltered
// scope. Selecting the current scope again is a no-op.
//
// The previous scope's log is discarded immediately and a fresh fetch is
// dispatched. A fetch still in flight for the old scope is superseded: its
// result will be dropped on arrival.
func (c *Controller) SelectScope(id string) {
	c.mu.Lock()
	if c.closed || c.session.Role != models.RoleAdmin || id == c.scope {
		c.mu.Unlock()
		return
	}
	c.scope = id
	c.log.Reset()
	c.log.BeginFetch()
	c.fetchGen++
	gen := c.fetchGen
	runCtx := c.ctx
	c.mu.Unlock()

	c.logger.Debug("scope changed", zap.String("scope", id))

	c.wg.Add(1)
	go c.fetch(runCtx, gen, id)
}

// fetch loads history for one scope generation. A result that arrives
// after the scope moved on (or after teardown) is discarded: last request
// wins, enforced by the generation counter.
func (c *Controller) fetch(ctx context.Context, gen uint64, counterpart string) {
	defer c.wg.Done()

	messages, err := c.history.FetchHistory(ctx, counterpart)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.fetchGen {
		return
	}
	if err != nil {
		c.logger.Warn("history fetch failed",
			zap.String("counterpart", counterpart),
			zap.Error(err),
		)
		c.log.FailFetch()
		return
	}
	c.log.CompleteFetch(messages)
}

func (c *Controller) fetchRoster(ctx context.Context) {
	defer c.wg.Done()

	partners, err := c.roster.ListParticipants(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if err != nil {
		c.logger.Warn("roster fetch failed", zap.Error(err))
		return
	}
	c.partners = partners
}

// inboundPump appends every live delivery in arrival order. Deliveries are
// appended regardless of the current scope: the server only routes a
// connection the messages addressed to it, so scope filtering happened at
// delivery. A scope switch refetches and drops anything stale.
func (c *Controller) inboundPump() {
	defer c.wg.Done()

	for msg := range c.channel.Inbound() {
		c.mu.Lock()
		if !c.closed {
			c.log.Append(msg)
		}
		c.mu.Unlock()
	}
}

// errorPump logs transport errors. The connection is not torn down here;
// whether to reconnect is the channel's concern, not the core's.
func (c *Controller) errorPump() {
	defer c.wg.Done()

	for err := range c.channel.Errors() {
		c.logger.Warn("live channel error", zap.Error(err))
	}
}

// SendEnabled reports whether a send of the given text would be accepted:
// the trimmed text is non-empty and the routing policy yields a recipient.
// This is the UI's disabled-button flag.
func (c *Controller) SendEnabled(text string) bool {
	c.mu.Lock()
	sess, scope, closed := c.session, c.scope, c.closed
	c.mu.Unlock()

	if closed || strings.TrimSpace(text) == "" {
		return false
	}
	_, ok := RecipientFor(sess, scope)
	return ok
}

// Send routes text to the recipient the role and scope dictate, and
// reports whether the send was dispatched. A failed precondition (empty
// text, no recipient) is a silent refusal, not an error.
//
// The sent message is NOT appended locally: the server echoes every stored
// message back to the sender's room, and the echo arrives through the
// inbound path like any other delivery.
func (c *Controller) Send(ctx context.Context, text string) bool {
	c.mu.Lock()
	sess, scope, closed := c.session, c.scope, c.closed
	c.mu.Unlock()

	if closed || strings.TrimSpace(text) == "" {
		return false
	}
	recipient, ok := RecipientFor(sess, scope)
	if !ok {
		return false
	}

	// Fire and forget: a transport error is logged, never surfaced.
	if err := c.channel.Send(ctx, text, recipient); err != nil {
		c.logger.Warn("send failed",
			zap.String("recipient", recipient),
			zap.Error(err),
		)
	}
	return true
}

// Session returns the resolved session (guest until/unless resolution
// succeeded).
func (c *Controller) Session() models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Roster returns a copy of the admin's counterpart list.
func (c *Controller) Roster() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.partners))
	copy(out, c.partners)
	return out
}

// Scope returns the selected counterpart, "" when unselected.
func (c *Controller) Scope() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scope
}

// Messages returns a copy of the current conversation view.
func (c *Controller) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.log.Messages()
}

// Close tears the controller down: the live channel is closed exactly
// once, and any fetch that resolves afterwards is discarded. Safe to call
// multiple times and safe to call concurrently with everything else.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		cancel := c.cancel
		c.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if err := c.channel.Close(); err != nil {
			c.logger.Warn("live channel close failed", zap.Error(err))
		}
		c.wg.Wait()
		c.logger.Info("chat controller closed")
	})
}
