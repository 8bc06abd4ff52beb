package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// CorrelationIDHeader is the HTTP header carrying the request trace id
	CorrelationIDHeader = "X-Correlation-ID"

	// CorrelationIDKey is the gin context key holding the correlation ID
	CorrelationIDKey = "correlation_id"
)

// CorrelationID assigns every request a trace id, reusing the caller's
// header when present so a payment can be followed across services. The
// id is echoed back on the response and stashed in the gin context for
// handlers and the request logger.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(CorrelationIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(CorrelationIDKey, id)
		c.Header(CorrelationIDHeader, id)
		c.Next()
	}
}

// GetCorrelationID returns the request's correlation id, or "" when the
// middleware did not run.
func GetCorrelationID(c *gin.Context) string {
	v, ok := c.Get(CorrelationIDKey)
	if !ok {
		return ""
	}
	id, _ := v.(string)
	return id
}
