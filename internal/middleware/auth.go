package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lalith-99/supportchat/internal/auth"
	"github.com/lalith-99/supportchat/internal/models"
)

// Context keys for storing claims in gin.Context. Constants instead of
// inline strings so a typo'd key is a compile error, not a silent nil.
const (
	ContextKeyUsername = "username"
	ContextKeyRole     = "role"
)

// tokenFromRequest extracts the JWT from a request.
//
// Two places are accepted:
//   - "Authorization: Bearer <token>" for every plain HTTP call.
//   - "?token=<token>" for websocket upgrades. Browser WebSocket APIs cannot
//     set custom headers on the upgrade request, so the token rides in the
//     query string for GET /api/ws.
func tokenFromRequest(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
		return ""
	}
	return c.Query("token")
}

// AuthMiddleware validates the JWT and aborts with 401 when it is missing
// or invalid. Handlers behind it can rely on GetUsername/GetRole.
//
// The secret is a parameter so the middleware never imports config and
// tests can pass any secret.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing authorization token",
			})
			return
		}

		claims, err := auth.ParseToken(tokenString, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		c.Set(ContextKeyUsername, claims.Username)
		c.Set(ContextKeyRole, claims.Role)
		c.Next()
	}
}

// OptionalAuth parses the token when present but never aborts. The session
// probe sits behind this: an anonymous caller is a guest, not an error.
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := tokenFromRequest(c); tokenString != "" {
			if claims, err := auth.ParseToken(tokenString, secret); err == nil {
				c.Set(ContextKeyUsername, claims.Username)
				c.Set(ContextKeyRole, claims.Role)
			}
		}
		c.Next()
	}
}

// GetUsername returns the authenticated username, or "" when the request
// carried no valid token.
func GetUsername(c *gin.Context) string {
	val, exists := c.Get(ContextKeyUsername)
	if !exists {
		return ""
	}
	username, ok := val.(string)
	if !ok {
		return ""
	}
	return username
}

// GetRole returns the authenticated role, or RoleGuest when the request
// carried no valid token.
func GetRole(c *gin.Context) models.Role {
	val, exists := c.Get(ContextKeyRole)
	if !exists {
		return models.RoleGuest
	}
	role, ok := val.(models.Role)
	if !ok {
		return models.RoleGuest
	}
	return role
}
