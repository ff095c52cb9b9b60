package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"travel-account-service/internal/auth/session"
	"travel-account-service/pkg/logger"
)

// userIDContextKey is where RequireSession stores the authenticated user id
// in the gin context.
const userIDContextKey = "auth_user_id"

// RequireSession returns a Gin middleware that verifies the session cookie
// and rejects unauthenticated requests with 401. The user id is stored on
// the context for handlers and threaded into the request logger.
func RequireSession(sessions *session.Manager, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(session.CookieName)
		if err != nil || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthenticated",
				"message": "sign in required",
			})
			return
		}

		userID, err := sessions.Verify(token)
		if err != nil {
			log.Debug("session verification failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthenticated",
				"message": "session is invalid or expired",
			})
			return
		}

		c.Set(userIDContextKey, userID)
		ctx := context.WithValue(c.Request.Context(), logger.UserIDKey, userID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// UserID returns the authenticated user id set by RequireSession.
func UserID(c *gin.Context) string {
	id, _ := c.Get(userIDContextKey)
	s, _ := id.(string)
	return s
}
