package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/traitforge-backend/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"
)

// AttachTraceContext must run after otelgin so the active span is visible.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		td := ctxutil.NewTraceData(c.Request.Context(), c.GetHeader(headerRequestID))
		if td.TraceID == "" {
			td.TraceID = td.RequestID
		}
		c.Request = c.Request.WithContext(ctxutil.WithTraceData(c.Request.Context(), td))
		c.Set("trace_id", td.TraceID)
		c.Set("request_id", td.RequestID)
		c.Writer.Header().Set(headerTraceID, td.TraceID)
		c.Writer.Header().Set(headerRequestID, td.RequestID)
		c.Next()
	}
}
