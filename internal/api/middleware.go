package api

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestID stamps every request with a unique id, available to
// downstream handlers and to error bodies via requestID(c).
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("requestId", uuid.NewString())
		c.Next()
	}
}
