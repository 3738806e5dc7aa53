package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appctx "zentropay/internal/core/context"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"
)

// Trace assigns correlation IDs to every request. Incoming X-Request-ID and
// X-Trace-ID headers are honored so IDs survive proxy hops; missing ones are
// generated. Both are echoed back in the response headers.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := headerOrNew(c, HeaderRequestID)
		traceID := headerOrNew(c, HeaderTraceID)

		ctx := appctx.WithTrace(c.Request.Context(), &appctx.TraceContext{
			TraceID:   traceID,
			RequestID: requestID,
		})
		c.Request = c.Request.WithContext(ctx)

		c.Set("trace_id", traceID)
		c.Set("request_id", requestID)

		c.Header(HeaderRequestID, requestID)
		c.Header(HeaderTraceID, traceID)

		c.Next()
	}
}

func headerOrNew(c *gin.Context, header string) string {
	if v := c.GetHeader(header); v != "" {
		return v
	}
	return uuid.NewString()
}
