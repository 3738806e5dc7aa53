// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"zentropay/internal/core/apperror"
	"zentropay/pkg/logger"
)

// Recovery converts panics into a 500 response. The stack trace goes to the
// log only; the client sees a generic internal error.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			logger.Error(c.Request.Context(), "panic recovered",
				"error", r,
				"path", c.Request.URL.Path,
				"stack", string(debug.Stack()),
			)

			_ = c.Error(
				apperror.NewInternal(fmt.Errorf("panic: %v", r)).
					WithDetail("request_id", c.GetString("request_id")),
			)
			c.Abort()
		}()
		c.Next()
	}
}
