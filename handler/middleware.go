package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const requestIDHeader = "X-Request-ID"

// RequestID tags every request with a correlation id, echoes it on the
// response, and scopes the request logger to it so log lines from one request
// can be tied together. Callers that already carry an id keep theirs.
func RequestID(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		requestLogger := logger.With().Str("request_id", requestID).Logger()
		c.Request = c.Request.WithContext(requestLogger.WithContext(c.Request.Context()))
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}
