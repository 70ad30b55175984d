package logger

import corelogger "github.com/gridpulse/csipd/core/logger"

// Alias the core interface for convenience.
// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// New returns a Logger for the given component. Output format and level are
// controlled by the CSIPD_ENV and CSIPD_LOG_LEVEL variables.
func New(component string) Logger {
	return NewZerologLogger(component)
}
