package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lalith-99/supportchat/internal/chat"
	"github.com/lalith-99/supportchat/internal/models"
)

var _ chat.LiveChannel = (*Channel)(nil)

const writeWait = 10 * time.Second

// Channel is the websocket implementation of chat.LiveChannel: one
// connection, dialed once, closed once.
//
// The read pump decodes envelopes onto Inbound and Errors. When the
// connection dies or Close runs, both channels are closed, which is how
// the controller's pumps learn to exit.
type Channel struct {
	conn    *websocket.Conn
	inbound chan models.Message
	errs    chan error
	logger  *zap.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
}

// DialChannel connects to the server's websocket endpoint. The token rides
// in the Authorization header; WSURL converts a base HTTP URL to the
// matching ws endpoint.
func DialChannel(ctx context.Context, wsURL, token string, logger *zap.Logger) (*Channel, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial live channel: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial live channel: %w", err)
	}

	ch := &Channel{
		conn:    conn,
		inbound: make(chan models.Message, 32),
		errs:    make(chan error, 8),
		logger:  logger,
		done:    make(chan struct{}),
	}
	go ch.readPump()

	logger.Info("live channel connected", zap.String("url", wsURL))
	return ch, nil
}

// WSURL derives the websocket endpoint from the API base URL:
// http(s)://host → ws(s)://host/api/ws.
func WSURL(baseURL string) string {
	url := baseURL
	switch {
	case strings.HasPrefix(url, "https://"):
		url = "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		url = "ws://" + strings.TrimPrefix(url, "http://")
	}
	return url + "/api/ws"
}

func (ch *Channel) Inbound() <-chan models.Message {
	return ch.inbound
}

func (ch *Channel) Errors() <-chan error {
	return ch.errs
}

// Send emits a send_message event. Fire and forget: the server answers
// with a receive_message echo (or an error event), never an ack.
func (ch *Channel) Send(ctx context.Context, body, receiver string) error {
	event, err := models.NewEvent(models.EventSendMessage, models.SendMessagePayload{
		Body:     body,
		Receiver: receiver,
	})
	if err != nil {
		return fmt.Errorf("encode send_message: %w", err)
	}

	select {
	case <-ch.done:
		return fmt.Errorf("live channel closed")
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	ch.writeMu.Lock()
	defer ch.writeMu.Unlock()
	ch.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := ch.conn.WriteJSON(event); err != nil {
		return fmt.Errorf("write send_message: %w", err)
	}
	return nil
}

// readPump translates frames into inbound messages and surfaced errors.
// It owns closing both channels: they close exactly once, when the pump
// exits.
func (ch *Channel) readPump() {
	defer func() {
		close(ch.inbound)
		close(ch.errs)
	}()

	for {
		var event models.Event
		if err := ch.conn.ReadJSON(&event); err != nil {
			select {
			case <-ch.done:
				// Deliberate close, not a transport failure.
			default:
				ch.pushErr(fmt.Errorf("live channel read: %w", err))
			}
			return
		}

		switch event.Event {
		case models.EventReceiveMessage:
			var msg models.Message
			if err := json.Unmarshal(event.Data, &msg); err != nil {
				ch.pushErr(fmt.Errorf("malformed receive_message: %w", err))
				continue
			}
			select {
			case ch.inbound <- msg:
			case <-ch.done:
				return
			}
		case models.EventError:
			var payload models.ErrorPayload
			if err := json.Unmarshal(event.Data, &payload); err != nil {
				ch.pushErr(fmt.Errorf("malformed error event: %w", err))
				continue
			}
			ch.pushErr(fmt.Errorf("server error: %s", payload.Message))
		default:
			ch.logger.Debug("ignoring unknown event", zap.String("event", event.Event))
		}
	}
}

// pushErr never blocks: if nobody is draining Errors, older errors are
// dropped in favor of keeping the read pump alive.
func (ch *Channel) pushErr(err error) {
	select {
	case ch.errs <- err:
	default:
		ch.logger.Debug("error channel full, dropping", zap.Error(err))
	}
}

// Close sends a close frame (best effort) and closes the socket. Safe to
// call more than once; only the first call does anything.
func (ch *Channel) Close() error {
	var err error
	ch.closeOnce.Do(func() {
		close(ch.done)

		ch.writeMu.Lock()
		ch.conn.SetWriteDeadline(time.Now().Add(writeWait))
		ch.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		ch.writeMu.Unlock()

		err = ch.conn.Close()
	})
	return err
}
