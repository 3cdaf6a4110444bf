package log

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	silvaErrors "github.com/lucidfrontier45/silva/pkg/errors"
)

const (
	ErrAttrKey        = "error"
	ErrDetailAttrKey  = "error_detail"
	StacktraceAttrKey = "stacktrace"
)

// ZerologLogger implements Logger on top of zerolog.
type ZerologLogger struct {
	zl    zerolog.Logger
	level Level
}

// NewZerologLogger creates a JSON logger writing to w at the given minimum level.
func NewZerologLogger(w io.Writer, level Level) *ZerologLogger {
	zl := zerolog.New(w).Level(toZerologLevel(level)).With().Timestamp().Logger()
	return &ZerologLogger{zl: zl, level: level}
}

// Debug implements Logger.Debug.
func (l *ZerologLogger) Debug(msg string, fields ...any) {
	l.emit(l.zl.Debug(), msg, fields)
}

// Info implements Logger.Info.
func (l *ZerologLogger) Info(msg string, fields ...any) {
	l.emit(l.zl.Info(), msg, fields)
}

// Warn implements Logger.Warn.
func (l *ZerologLogger) Warn(msg string, fields ...any) {
	l.emit(l.zl.Warn(), msg, fields)
}

// Error implements Logger.Error. A leading error value is attached with its
// code, structured detail and stack trace.
func (l *ZerologLogger) Error(msg string, fields ...any) {
	event := l.zl.Error()
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			event = event.Err(err)
			if code := silvaErrors.CodeOf(err); code != "" {
				event = event.Str(ErrorCodeKey, code)
			}
			if detail, ok := silvaErrors.Detail(err); ok {
				event = event.Object(ErrDetailAttrKey, detail)
			}
			if st := silvaErrors.StackTrace(err); st != "" {
				event = event.Str(StacktraceAttrKey, st)
			}
			fields = fields[1:]
		}
	}
	l.emit(event, msg, fields)
}

// With implements Logger.With.
func (l *ZerologLogger) With(fields ...any) Logger {
	return &ZerologLogger{
		zl:    l.zl.With().Fields(normalizeFields(fields)).Logger(),
		level: l.level,
	}
}

// Enabled implements Logger.Enabled.
func (l *ZerologLogger) Enabled(_ context.Context, level Level) bool {
	return level >= l.level
}

func (l *ZerologLogger) emit(event *zerolog.Event, msg string, fields []any) {
	if event == nil {
		return
	}
	if len(fields) > 0 {
		event = event.Fields(normalizeFields(fields))
	}
	event.Msg(msg)
}

// normalizeFields drops a trailing key without a value so zerolog never sees
// an odd-length pair list.
func normalizeFields(fields []any) []any {
	if len(fields)%2 == 1 {
		return fields[:len(fields)-1]
	}
	return fields
}

func toZerologLevel(level Level) zerolog.Level {
	l, err := zerolog.ParseLevel(level.String())
	if err != nil {
		return zerolog.InfoLevel
	}
	return l
}

// ParseLevel converts "debug", "info", "warn" or "error" into a Level.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, silvaErrors.NewValidationError("log.level", "must be one of debug, info, warn, error", level)
	}
}

// ZerologProvider implements LoggerProvider with a shared writer.
type ZerologProvider struct {
	mu     sync.RWMutex
	writer io.Writer
	level  Level
	root   Logger
}

// NewZerologProvider creates a provider whose loggers write to w.
func NewZerologProvider(w io.Writer, level Level) *ZerologProvider {
	return &ZerologProvider{writer: w, level: level, root: NewZerologLogger(w, level)}
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *ZerologProvider) GetLogger() Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.root
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
func (p *ZerologProvider) GetLoggerWithName(name string) Logger {
	return p.GetLogger().With(ComponentKey, name)
}

// SetLevel implements LoggerProvider.SetLevel.
func (p *ZerologProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level = level
	p.root = NewZerologLogger(p.writer, level)
}

var (
	providerMu sync.RWMutex
	provider   LoggerProvider = NewZerologProvider(os.Stderr, LevelInfo)
)

// SetupLogger installs a zerolog provider writing to w at the named level.
// A nil writer means stderr.
func SetupLogger(level string, w io.Writer) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	if w == nil {
		w = os.Stderr
	}
	SetProvider(NewZerologProvider(w, lvl))
	return nil
}

// SetProvider replaces the global provider. Tests use it to capture output.
func SetProvider(p LoggerProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	provider = p
}

// GetLogger returns the global default logger.
func GetLogger() Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider.GetLogger()
}

// GetLoggerWithName returns the global logger tagged with a component name.
func GetLoggerWithName(name string) Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider.GetLoggerWithName(name)
}
