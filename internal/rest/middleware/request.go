package middleware

import (
	"github.com/flexprice/payments/internal/types"
	"github.com/gin-gonic/gin"
)

// RequestIDMiddleware propagates the caller's request id, generating one when
// absent, so log lines of one delivery can be correlated.
func RequestIDMiddleware(c *gin.Context) {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = types.GenerateUUID()
	}

	ctx := types.SetRequestID(c.Request.Context(), requestID)
	c.Request = c.Request.WithContext(ctx)

	c.Header("X-Request-ID", requestID)
	c.Next()
}
