package middleware

import (
	"time"

	"github.com/dinarbooks/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// Metrics records request count, latency and in-flight requests per route
// template. Unmatched paths share one series.
func Metrics(m *telemetry.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		done := m.Started()
		start := time.Now()

		c.Next()

		done()
		m.ObserveRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
