package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/freshcatch/seafood-api/auth"
	"github.com/freshcatch/seafood-api/models"
)

// Context keys set by ValidateToken.
const (
	UserIDKey = "user_id"
	RoleKey   = "role"
)

// ValidateToken requires a valid access token in the Authorization header,
// with or without the Bearer prefix. Websocket upgrades may pass it as
// ?token= since browsers cannot set headers on them.
func ValidateToken(tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := strings.TrimSpace(c.GetHeader("Authorization"))
		if tokenString == "" && c.IsWebsocket() {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is missing"})
			return
		}
		if len(tokenString) > 7 && strings.EqualFold(tokenString[:7], "bearer ") {
			tokenString = strings.TrimSpace(tokenString[7:])
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(RoleKey, claims.Role)
		c.Next()
	}
}

// RequireRole lets through only tokens carrying role. It must run after
// ValidateToken.
func RequireRole(role models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(RoleKey) != string(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}
		c.Next()
	}
}

// UserID returns the id set by ValidateToken.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
