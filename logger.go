package tableconfig

import (
	"log/slog"
	"os"
)

var logLevel = new(slog.LevelVar)

// ConfigureLogging sets up the global default logger with a TextHandler and
// configures the log level based on the TABLECONFIG_LOG_LEVEL environment
// variable. It defaults to Info level if not specified.
//
// Call this once at application startup if you want to use the package's
// default logging configuration; the store itself never calls it implicitly.
func ConfigureLogging() {
	logLevel.Set(slog.LevelInfo)

	switch os.Getenv("TABLECONFIG_LOG_LEVEL") {
	case "DEBUG":
		logLevel.Set(slog.LevelDebug)
	case "WARN":
		logLevel.Set(slog.LevelWarn)
	case "ERROR":
		logLevel.Set(slog.LevelError)
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// SetLogLevel sets the logging level for the logger configured by ConfigureLogging.
func SetLogLevel(level slog.Level) {
	logLevel.Set(level)
}
