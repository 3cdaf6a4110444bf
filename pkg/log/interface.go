// Package log is the structured logging layer shared by the exporter, the
// trainer and the command line tool.
//
// Callers hold a Logger and pass fields as alternating key-value pairs using
// the keys in attributes.go. The global provider hands out zerolog-backed
// loggers (logger.go); tests swap in a TestLogger (testing.go) to assert on
// what was logged.
//
//	logger := log.GetLoggerWithName("export").With(log.TaskKey, "regression")
//	logger.Info("Dataset shape: X=(100, 10), y=(100,)",
//	    log.SamplesKey, 100,
//	    log.FeaturesKey, 10,
//	)
package log

import "context"

// Logger is a leveled, structured logger.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)

	// Error logs at error level. When the first field is an error it is
	// recorded under "error", together with its code, its structured detail
	// and the stack trace cockroachdb/errors captured for it:
	//
	//	logger.Error("Export failed", err, log.TaskKey, "multiclass_classification")
	Error(msg string, fields ...any)

	// With returns a child logger that adds fields to every record.
	With(fields ...any) Logger

	Enabled(ctx context.Context, level Level) bool
}

// Level is a log severity. The numeric values match log/slog.
type Level int

const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the lower-case name zerolog uses for the level.
func (l Level) String() string {
	switch {
	case l <= LevelDebug:
		return "debug"
	case l <= LevelInfo:
		return "info"
	case l <= LevelWarn:
		return "warn"
	default:
		return "error"
	}
}

// LoggerProvider creates loggers that share one sink and level.
type LoggerProvider interface {
	GetLogger() Logger
	// GetLoggerWithName tags the logger with ComponentKey=name.
	GetLoggerWithName(name string) Logger
	SetLevel(level Level)
}
