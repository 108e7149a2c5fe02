package gateway

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const correlationIDHeader = "X-Correlation-ID"
const correlationIDKey = "correlation_id"

// CorrelationIDMiddleware reads X-Correlation-ID if present, else
// generates a fresh UUID, per spec.md section 6. The same value is
// echoed on the response and stashed in the gin.Context for handlers
// and ProblemDetails bodies.
func CorrelationIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(correlationIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(correlationIDKey, id)
		c.Header(correlationIDHeader, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// CorrelationID reads the id stashed by CorrelationIDMiddleware.
func CorrelationID(c *gin.Context) string {
	return c.GetString(correlationIDKey)
}

// LoggingMiddleware logs request start/end with timing.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		correlationID := CorrelationID(c)

		log.WithFields(log.Fields{
			"correlation_id": correlationID,
			"method":         c.Request.Method,
			"path":           c.Request.URL.Path,
			"event":          "started",
		}).Info("gateway: request started")

		c.Next()

		log.WithFields(log.Fields{
			"correlation_id": correlationID,
			"status":         c.Writer.Status(),
			"latency_ms":     time.Since(start).Milliseconds(),
			"event":          "completed",
		}).Info("gateway: request completed")
	}
}
