package middleware

import (
	"context"
	"time"

	"pulsegram/internal/core/domain"
	"pulsegram/pkg/logger"

	"github.com/gin-gonic/gin"
)

// LoggingMiddleware logs every HTTP request with latency, status and the
// authenticated user when one is set.
func LoggingMiddleware(contextLogger *logger.ContextLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		ctx := c.Request.Context()
		if userID, exists := c.Get("user_id"); exists {
			if id, ok := userID.(domain.UserID); ok {
				ctx = context.WithValue(ctx, logger.UserIDKey, string(id))
			}
		}

		contextLogger.LogRequest(ctx,
			c.Request.Method,
			c.FullPath(),
			c.Writer.Status(),
			time.Since(start).Milliseconds(),
		)
	}
}
