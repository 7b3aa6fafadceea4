package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDKey is the gin context key holding the per-request id
const RequestIDKey = "request_id"

// RequestIDHeader is echoed back so console logs and server logs can be
// correlated when a user reports a failed mutation.
const RequestIDHeader = "X-Request-ID"

// RequestID tags every request with a uuid, reusing the client's id when
// one is supplied.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}
