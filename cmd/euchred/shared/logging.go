package shared

import (
	"os"

	"github.com/charmbracelet/log"
)

// SetupLogger configures the process logger at the given level.
func SetupLogger(level string, debug bool) *log.Logger {
	logger := log.New(os.Stderr)
	logger.SetReportTimestamp(true)

	if debug {
		logger.SetLevel(log.DebugLevel)
		return logger
	}
	switch level {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
	return logger
}
