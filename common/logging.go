package common

import (
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	loggerOnce sync.Once
	logger     *log.Logger
)

func getLogger() *log.Logger {
	loggerOnce.Do(func() {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          "oxy",
		})
		logger.SetLevel(log.InfoLevel)
	})
	return logger
}

// SetLogLevel changes the minimum level of the engine logger.
// Accepted values are "debug", "info", "warn", "error" and "fatal". Unknown values fall back to info.
//
// Parameters:
//   - level: the textual log level
func SetLogLevel(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	getLogger().SetLevel(lvl)
}

// Logger exposes the shared engine logger for callers that need structured key/value output.
//
// Returns:
//   - *log.Logger: the process-wide logger
func Logger() *log.Logger {
	return getLogger()
}

// LogDebug logs msg with alternating key/value pairs at debug level.
func LogDebug(msg string, keyvals ...any) {
	getLogger().Helper()
	getLogger().Debug(msg, keyvals...)
}

func LogInfo(msg string, keyvals ...any) {
	getLogger().Helper()
	getLogger().Info(msg, keyvals...)
}

func LogWarn(msg string, keyvals ...any) {
	getLogger().Helper()
	getLogger().Warn(msg, keyvals...)
}

func LogError(msg string, keyvals ...any) {
	getLogger().Helper()
	getLogger().Error(msg, keyvals...)
}

// LogFatal logs at fatal level and exits the process.
func LogFatal(msg string, keyvals ...any) {
	getLogger().Helper()
	getLogger().Fatal(msg, keyvals...)
}
