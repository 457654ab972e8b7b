package api

import (
	"context"
	"strconv"
	"time"

	"flarewise/internal"
	"flarewise/internal/metrics"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs route, status and latency of every request. Query
// values are never logged since they name user symptoms.
func RequestLogger(logger *internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		status := c.Writer.Status()
		metrics.ObserveRequest(route, strconv.Itoa(status))

		latency := time.Since(start)
		switch {
		case status >= 500:
			logger.Error("%s %s status=%d latency=%s", c.Request.Method, route, status, latency)
		case status >= 400:
			logger.Warn("%s %s status=%d latency=%s", c.Request.Method, route, status, latency)
		default:
			logger.Info("%s %s status=%d latency=%s bytes=%d", c.Request.Method, route, status, latency, c.Writer.Size())
		}
	}
}

// Timeout bounds the request context; repository calls observe it
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
