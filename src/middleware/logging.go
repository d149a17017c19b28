package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// quietPaths are probed constantly by orchestrators and only logged on failure
var quietPaths = map[string]bool{
	"/health": true,
	"/ready":  true,
}

// LoggingMiddleware logs every request with structured fields. Event ingress
// requests also carry the fired event name.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		if quietPaths[path] && status < 400 {
			return
		}

		var event *zerolog.Event
		var msg string
		switch {
		case status >= 500:
			event, msg = log.Error(), "server error"
		case status >= 400:
			event, msg = log.Warn(), "client error"
		default:
			event, msg = log.Info(), "request"
		}

		event = event.
			Str("request_id", GetRequestID(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Int("bytes", c.Writer.Size()).
			Str("client_ip", c.ClientIP())

		if strings.HasPrefix(path, "/events/") {
			event = event.Str("event", c.Param("event"))
		}
		if len(c.Errors) > 0 {
			event = event.Str("error", c.Errors.String())
		}

		event.Msg(msg)
	}
}
