package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/supportchat/internal/middleware"
	"github.com/lalith-99/supportchat/internal/models"
	"github.com/lalith-99/supportchat/internal/repository"
)

// UserHandler serves the admin roster.
type UserHandler struct {
	repo   repository.UserRepository
	logger *zap.Logger
}

func NewUserHandler(repo repository.UserRepository, logger *zap.Logger) *UserHandler {
	return &UserHandler{repo: repo, logger: logger}
}

// List handles GET /api/users
//
// Returns the usernames an admin can open a conversation with: accounts
// holding the "user" role, in creation order. Admin-only: a user never
// needs a roster (their counterpart is fixed).
func (h *UserHandler) List(c *gin.Context) {
	if middleware.GetRole(c) != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
		return
	}

	usernames, err := h.repo.ListUsernamesByRole(c.Request.Context(), models.RoleUser)
	if err != nil {
		h.logger.Error("failed to list users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}

	c.JSON(http.StatusOK, usernames)
}
