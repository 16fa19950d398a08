package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/supportchat/internal/middleware"
	"github.com/lalith-99/supportchat/internal/models"
	"github.com/lalith-99/supportchat/internal/repository"
)

// MessageHandler serves the persisted history that the client reconciles
// with live deliveries.
type MessageHandler struct {
	repo   repository.MessageRepository
	logger *zap.Logger
}

func NewMessageHandler(repo repository.MessageRepository, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{repo: repo, logger: logger}
}

// List handles GET /api/messages[?user=<username>]
//
// Scope rules, by caller role:
//   - user: everything they sent or received. The ?user= filter is ignored;
//     a user's scope is always the admin desk.
//   - admin with ?user=X: the conversation involving X.
//   - admin without a filter: the full log. An admin with no counterpart
//     selected still fetches; the unfiltered request is meaningful, not
//     an error.
func (h *MessageHandler) List(c *gin.Context) {
	username := middleware.GetUsername(c)
	role := middleware.GetRole(c)

	var (
		messages []models.Message
		err      error
	)

	switch role {
	case models.RoleAdmin:
		if counterpart := c.Query("user"); counterpart != "" {
			messages, err = h.repo.ListInvolving(c.Request.Context(), counterpart)
		} else {
			messages, err = h.repo.ListAll(c.Request.Context())
		}
	default:
		messages, err = h.repo.ListInvolving(c.Request.Context(), username)
	}

	if err != nil {
		h.logger.Error("failed to list messages",
			zap.String("username", username),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list messages"})
		return
	}

	c.JSON(http.StatusOK, messages)
}
