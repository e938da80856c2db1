package ctxmanage

import (
	"github.com/gin-gonic/gin"
)

const TraceIdKey = "traceId"

// GetTraceIdOfRequest returns the trace id set by the logging middleware,
// or "unknown" when the request never went through it.
func GetTraceIdOfRequest(c *gin.Context) string {
	traceId, ok := c.Value(TraceIdKey).(string)
	if !ok {
		return "unknown"
	}
	return traceId
}
