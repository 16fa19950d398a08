package ws

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lalith-99/supportchat/internal/models"
	"github.com/lalith-99/supportchat/internal/repository"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// maxFrameSize caps inbound frames. Chat messages are small; anything
	// bigger is a misbehaving client.
	maxFrameSize = 16 * 1024

	// sendBuffer is per-connection. A connection that can't drain this
	// many pending events is dead weight and gets closed.
	sendBuffer = 32
)

// Client is one authenticated websocket connection.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan models.Event
	username string
	role     models.Role
	messages repository.MessageRepository
	logger   *zap.Logger
}

func newClient(hub *Hub, conn *websocket.Conn, username string, role models.Role, messages repository.MessageRepository, logger *zap.Logger) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan models.Event, sendBuffer),
		username: username,
		role:     role,
		messages: messages,
		logger:   logger.With(zap.String("username", username)),
	}
}

// rooms a connection belongs to for its whole lifetime.
func (c *Client) rooms() []string {
	rooms := []string{c.username}
	if c.role == models.RoleAdmin && c.username != models.AdminDesk {
		rooms = append(rooms, models.AdminDesk)
	}
	return rooms
}

// enqueue hands an event to the write pump without blocking the hub.
func (c *Client) enqueue(event models.Event) {
	select {
	case c.send <- event:
	default:
		c.logger.Warn("send buffer full, dropping event")
	}
}

// readPump consumes frames until the connection dies. It runs on the
// handler's goroutine; returning triggers unregister and close.
func (c *Client) readPump() {
	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var event models.Event
		if err := c.conn.ReadJSON(&event); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("connection closed unexpectedly", zap.Error(err))
			}
			return
		}

		switch event.Event {
		case models.EventSendMessage:
			var payload models.SendMessagePayload
			if err := json.Unmarshal(event.Data, &payload); err != nil {
				c.sendError("malformed send_message payload")
				continue
			}
			c.handleSend(payload)
		default:
			c.logger.Debug("ignoring unknown event", zap.String("event", event.Event))
		}
	}
}

// handleSend validates, persists, and fans out one outbound message.
//
// Receiver derivation matches the role contract: a user always messages
// the admin desk no matter what the payload claims; an admin must name a
// receiver. The stored row is published to the receiver's room AND the
// sender's own room; the sender-side echo is what lets clients skip local
// appends of their own sends.
func (c *Client) handleSend(payload models.SendMessagePayload) {
	body := strings.TrimSpace(payload.Body)
	if body == "" {
		c.sendError("message cannot be empty")
		return
	}

	var receiver string
	switch c.role {
	case models.RoleUser:
		receiver = models.AdminDesk
	case models.RoleAdmin:
		receiver = payload.Receiver
		if receiver == "" {
			c.sendError("receiver must be specified for admin")
			return
		}
	default:
		c.sendError("authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msg, err := c.messages.Create(ctx, c.username, receiver, body)
	if err != nil {
		c.logger.Error("failed to store message", zap.Error(err))
		c.sendError("failed to deliver message")
		return
	}

	rooms := []string{receiver}
	if receiver != c.username {
		rooms = append(rooms, c.username)
	}
	if err := c.hub.Publish(ctx, rooms, *msg); err != nil {
		c.logger.Error("failed to publish message", zap.Error(err))
		c.sendError("failed to deliver message")
	}
}

func (c *Client) sendError(message string) {
	event, err := models.NewEvent(models.EventError, models.ErrorPayload{Message: message})
	if err != nil {
		return
	}
	c.enqueue(event)
}

// writePump owns all writes to the connection: queued events plus the
// keepalive pings. Exactly one writer per connection, since
// gorilla/websocket does not allow concurrent writes.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
