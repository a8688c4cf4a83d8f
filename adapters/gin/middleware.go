package authgin

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/open-rails/insights/metrics"
)

const ctxKeyRequestID = "request_id"

// RequestID attaches an X-Request-Id to every request, honoring one the
// client already sent.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Writer.Header().Set("X-Request-Id", reqID)
		c.Set(ctxKeyRequestID, reqID)
		c.Next()
	}
}

// RequestLogger emits one structured line per request and records the
// latency histogram.
func RequestLogger(log *logrus.Entry) gin.HandlerFunc {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.HTTPRequestDurationSeconds.
			WithLabelValues(route, strconv.Itoa(status)).
			Observe(elapsed.Seconds())

		log.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"route":      route,
			"status":     status,
			"elapsed_ms": elapsed.Milliseconds(),
			"request_id": c.GetString(ctxKeyRequestID),
		}).Info("request")
	}
}
