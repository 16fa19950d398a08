package ws

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/lalith-99/supportchat/internal/models"
)

// Hub tracks which connections belong to which rooms and pushes broker
// deliveries to the local members. Room membership is fixed at connect
// time: a connection joins its own username's room, and admins also join
// the shared admin room.
type Hub struct {
	broker Broker
	logger *zap.Logger

	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

func NewHub(broker Broker, logger *zap.Logger) *Hub {
	return &Hub{
		broker: broker,
		logger: logger,
		rooms:  make(map[string]map[*Client]struct{}),
	}
}

// Run consumes broker deliveries until the broker closes or ctx is done.
// Call it in its own goroutine.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case d, ok := <-h.broker.Deliveries():
			if !ok {
				return
			}
			h.deliver(d)
		case <-ctx.Done():
			return
		}
	}
}

// Publish hands a stored message to the broker, which routes it back to
// every hub (this one included) for local delivery.
func (h *Hub) Publish(ctx context.Context, rooms []string, msg models.Message) error {
	return h.broker.Publish(ctx, Delivery{Rooms: rooms, Message: msg})
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range c.rooms() {
		members, ok := h.rooms[room]
		if !ok {
			members = make(map[*Client]struct{})
			h.rooms[room] = members
		}
		members[c] = struct{}{}
	}
	h.logger.Debug("connection joined",
		zap.String("username", c.username),
		zap.Strings("rooms", c.rooms()),
	)
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range c.rooms() {
		if members, ok := h.rooms[room]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
}

// deliver pushes one message to every local member of the target rooms.
// A connection in several target rooms (an admin messaging themselves)
// still gets the event once.
func (h *Hub) deliver(d Delivery) {
	event, err := models.NewEvent(models.EventReceiveMessage, d.Message)
	if err != nil {
		h.logger.Error("failed to encode delivery", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[*Client]struct{})
	for _, room := range d.Rooms {
		for c := range h.rooms[room] {
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			c.enqueue(event)
		}
	}
}
