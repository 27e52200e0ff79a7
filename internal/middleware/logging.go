package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/metrics"
)

// RequestLogger logs one line per request and records it in the collector.
func RequestLogger(baseLog *logger.Logger, collector metrics.MetricsCollector) gin.HandlerFunc {
	log := baseLog.With("middleware", "RequestLogger")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		latency := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		collector.RecordHTTPRequest(c.Request.Method, route, status, latency)

		kvs := []interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"latency", latency,
			"client_ip", c.ClientIP(),
		}
		if actor := ActorFrom(c); !actor.Anonymous() {
			kvs = append(kvs, "user_id", actor.UserID)
		}
		switch {
		case status >= 500:
			log.Error("Request failed", kvs...)
		case status >= 400:
			log.Warn("Request rejected", kvs...)
		default:
			log.Info("Request handled", kvs...)
		}
	}
}
