package auth

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"mkulima/internal/token"
)

const bearerPrefix = "Bearer "

// RequireAuth validates the bearer token on every request and injects
// the caller's identity into the request context. Missing, tampered and
// expired tokens are told apart so the server log stays useful, but each
// case aborts with 401.
func RequireAuth(codec *token.Codec) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Authentication required",
			})
			return
		}

		claims, err := codec.Verify(strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			slog.Warn("Rejected token",
				"error", err.Error(),
				"request_id", c.GetString("request_id"),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Invalid token",
			})
			return
		}

		// Signature checked; liveness is decided here, per request.
		if time.Now().After(claims.ExpiresAt.Time) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Session expired",
			})
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_name", claims.Name)
		c.Set("user_role", claims.Role)

		c.Next()
	}
}
