package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lalith-99/supportchat/internal/middleware"
	"github.com/lalith-99/supportchat/internal/models"
)

// SessionHandler answers the client's "who am I" probe.
type SessionHandler struct{}

func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

// Get handles GET /api/session
//
// Sits behind OptionalAuth: an anonymous or invalid-token caller gets
// {role: "guest"} with 200, never a 401. The client core treats guest as a
// valid degraded state, so the probe must not look like a failure.
func (h *SessionHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, models.Session{
		Role:     middleware.GetRole(c),
		Identity: middleware.GetUsername(c),
	})
}
