package logging

import (
	"github.com/rs/zerolog"
)

// OperationalLogger writes free-form debug lines about outgoing deliveries.
// It is only called when the debug_log setting is on. Lines carry no level so
// LOG_LEVEL never filters them out.
type OperationalLogger struct {
	logger zerolog.Logger
}

// NewOperationalLogger creates an operational logger on the global zerolog logger
func NewOperationalLogger() *OperationalLogger {
	return &OperationalLogger{logger: NewLogger("debug_log")}
}

// NewOperationalLoggerWith wraps an existing logger
func NewOperationalLoggerWith(logger zerolog.Logger) *OperationalLogger {
	return &OperationalLogger{logger: logger}
}

// Log writes a single line. Failures are ignored.
func (l *OperationalLogger) Log(line string) {
	if l == nil {
		return
	}
	l.logger.WithLevel(zerolog.NoLevel).Msg(line)
}
