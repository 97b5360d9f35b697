package logger

import corelogger "github.com/inasolar/microgrid/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods. It is the default
// for library callers that do not care about logging.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}

// New returns a Logger for the given component. Output format and
// level are controlled by the APP_ENV and LOG_LEVEL variables.
func New(component string) Logger {
	return NewZerologLogger(component)
}
