package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"zentropay/pkg/logger"
)

// Logger emits one structured access-log line per request after the handler
// chain finishes. Server errors are logged at error level so they stand out
// from routine traffic.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"query", query,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
			"errors", c.Errors.ByType(gin.ErrorTypePrivate).String(),
		}

		entry := log.WithContext(c.Request.Context())
		if status >= 500 {
			entry.Errorw("http request", fields...)
		} else {
			entry.Infow("http request", fields...)
		}
	}
}
