package middleware

import (
	"log/slog"
	"time"

	"fintrack/internal/log"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "requestID"
)

// RequestID reuses an incoming X-Request-ID or assigns a new one and echoes it back.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the id set by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// RequestLogger logs one line per request; 5xx at error and 4xx at warn level.
func RequestLogger(logger *log.Logger) gin.HandlerFunc {
	logger = logger.WithComponent(log.ComponentHTTP)
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}

		args := []any{
			log.FieldRequestID, GetRequestID(c),
			log.FieldMethod, c.Request.Method,
			log.FieldPath, path,
			log.FieldStatusCode, status,
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldClientIP, c.ClientIP(),
			log.FieldUserAgent, c.Request.UserAgent(),
		}
		if user, ok := CurrentUser(c); ok {
			args = append(args, log.FieldUserID, user.ID)
		}
		if len(c.Errors) > 0 {
			args = append(args, log.FieldError, c.Errors.String())
		}
		logger.Log(c.Request.Context(), level, "http request", args...)
	}
}
