package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HTTPMetricsRecorder receives one observation per finished request.
type HTTPMetricsRecorder interface {
	ObserveHTTPRequest(method, route string, status int, d time.Duration)
	IncActiveRequests()
	DecActiveRequests()
}

func MetricsMiddleware(logger *zap.Logger, recorder HTTPMetricsRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		recorder.IncActiveRequests()
		defer recorder.DecActiveRequests()

		c.Next()

		// Unmatched routes share one label so static file paths do not
		// explode the series count.
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		duration := time.Since(start)
		recorder.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), duration)

		logger.Debug("HTTP metrics recorded",
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", duration))
	}
}
