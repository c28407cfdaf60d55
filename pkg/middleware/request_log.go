package middleware

import (
	"time"

	"SafeSignal/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RequestLog logs one line per request with latency and caller identity.
func RequestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Infof("%s %s status=%d user=%d ip=%s latency=%s",
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			UserID(c),
			c.ClientIP(),
			time.Since(start).Round(time.Millisecond),
		)
	}
}
