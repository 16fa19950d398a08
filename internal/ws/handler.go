package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lalith-99/supportchat/internal/middleware"
	"github.com/lalith-99/supportchat/internal/models"
	"github.com/lalith-99/supportchat/internal/repository"
)

// Handler upgrades authenticated requests into hub connections.
type Handler struct {
	hub      *Hub
	messages repository.MessageRepository
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewHandler(hub *Hub, messages repository.MessageRepository, logger *zap.Logger) *Handler {
	return &Handler{
		hub:      hub,
		messages: messages,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The token already gates the upgrade; origin checking is a
			// deployment concern handled at the proxy.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Serve handles GET /api/ws. Runs behind AuthMiddleware, so the claims are
// always present; guests cannot reach the live channel.
func (h *Handler) Serve(c *gin.Context) {
	username := middleware.GetUsername(c)
	role := middleware.GetRole(c)
	if username == "" || role == models.RoleGuest {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(h.hub, conn, username, role, h.messages, h.logger)
	h.hub.register(client)

	go client.writePump()
	client.readPump()

	h.hub.unregister(client)
	close(client.send)
}
