package ratelimit

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Middleware limits requests per client IP. A nil limiter disables
// throttling entirely. Store failures fail open; losing the counter
// must not lock everyone out.
func Middleware(limiter *Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		ok, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			slog.Warn("Rate limit check failed", "client_ip", c.ClientIP(), "error", err)
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message": "Too many login attempts, try again later",
			})
			return
		}

		c.Next()
	}
}
