package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LoggingMiddleware writes one structured line per request. Requests to
// quietPaths (probes, scrapes) are logged at debug level unless they fail.
func LoggingMiddleware(quietPaths ...string) gin.HandlerFunc {
	quiet := make(map[string]bool, len(quietPaths))
	for _, p := range quietPaths {
		quiet[p] = true
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()

		// Request-scoped logger from RequestIDMiddleware, global logger otherwise
		logger := zerolog.Ctx(c.Request.Context())
		scoped := logger.GetLevel() != zerolog.Disabled
		if !scoped {
			logger = &log.Logger
		}

		var event *zerolog.Event
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		case quiet[path]:
			event = logger.Debug()
		default:
			event = logger.Info()
		}

		if !scoped {
			event.Str("request_id", GetRequestID(c))
		}
		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Str("route", c.FullPath()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Int("bytes", c.Writer.Size()).
			Str("client_ip", c.ClientIP())

		if query != "" {
			event.Str("query", query)
		}
		// Set by ConsoleAuthMiddleware on authenticated routes
		if sid := c.GetString(SessionIDKey); sid != "" {
			event.Str("session_id", sid).Str("operator_id", c.GetString(OperatorIDKey))
		}
		if len(c.Errors) > 0 {
			event.Str("error", c.Errors.String())
		}

		switch {
		case status >= 500:
			event.Msg("server error")
		case status >= 400:
			event.Msg("client error")
		default:
			event.Msg("request")
		}
	}
}
