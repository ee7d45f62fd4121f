package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	requestIDKey = "request_id"

	RequestIDHeader = "X-Request-ID"
)

// RequestID tags every request with the caller's X-Request-ID or a new one,
// and attaches a request-scoped logger to the request context.
func RequestID(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)
		c.Set(requestIDKey, requestID)

		reqLog := log.With().Str("request_id", requestID).Logger()
		c.Request = c.Request.WithContext(reqLog.WithContext(c.Request.Context()))
		c.Next()
	}
}

func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// RequestLogger emits one event per request once the handler returns.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		var event *zerolog.Event
		switch {
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		default:
			event = log.Info()
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Str("request_id", GetRequestID(c)).
			Msg("request completed")
	}
}

// Recovery turns a panic into a 500 response.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().
					Interface("panic", rec).
					Str("request_id", GetRequestID(c)).
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":      "internal error",
					"request_id": GetRequestID(c),
				})
			}
		}()
		c.Next()
	}
}
