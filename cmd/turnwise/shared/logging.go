package shared

import (
	"os"

	"github.com/charmbracelet/log"
)

// SetupLogger configures a console logger at the given level. Unknown
// levels fall back to info.
func SetupLogger(level string) *log.Logger {
	logger := log.New(os.Stderr)

	switch level {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	return logger
}

// SetupDebugLogger configures a console logger from a debug toggle.
func SetupDebugLogger(debug bool) *log.Logger {
	if debug {
		return SetupLogger("debug")
	}
	return SetupLogger("info")
}
