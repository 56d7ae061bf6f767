package logger

import (
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// ZerologLogger emits one JSON object per record. Key/value args follow the
// slog convention (alternating key, value).
type ZerologLogger struct {
	logger      zerolog.Logger
	level       atomic.Int64
	httpLogging atomic.Bool
}

// NewZerolog creates a JSON logger writing to w
func NewZerolog(w io.Writer, level slog.Level) *ZerologLogger {
	zl := &ZerologLogger{
		logger: zerolog.New(w).With().Timestamp().Str("component", "certify").Logger(),
	}
	zl.SetLevel(level)
	return zl
}

func (l *ZerologLogger) Debug(msg string, args ...any) {
	l.emit(slog.LevelDebug, msg, args)
}

func (l *ZerologLogger) Info(msg string, args ...any) {
	l.emit(slog.LevelInfo, msg, args)
}

func (l *ZerologLogger) Warn(msg string, args ...any) {
	l.emit(slog.LevelWarn, msg, args)
}

func (l *ZerologLogger) Error(msg string, args ...any) {
	l.emit(slog.LevelError, msg, args)
}

func (l *ZerologLogger) emit(level slog.Level, msg string, args []any) {
	if level < l.GetLevel() {
		return
	}

	var ev *zerolog.Event
	switch {
	case level >= slog.LevelError:
		ev = l.logger.Error()
	case level >= slog.LevelWarn:
		ev = l.logger.Warn()
	case level >= slog.LevelInfo:
		ev = l.logger.Info()
	default:
		ev = l.logger.Debug()
	}

	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		if i+1 >= len(args) {
			ev = ev.Str("!BADKEY", key)
			break
		}
		switch v := args[i+1].(type) {
		case error:
			ev = ev.AnErr(key, v)
		default:
			ev = ev.Interface(key, v)
		}
	}
	ev.Msg(msg)
}

// SetLevel changes the logging level dynamically
func (l *ZerologLogger) SetLevel(level slog.Level) {
	l.level.Store(int64(level))
}

// GetLevel returns the current logging level
func (l *ZerologLogger) GetLevel() slog.Level {
	return slog.Level(l.level.Load())
}

func (l *ZerologLogger) EnableHTTPLogging() {
	l.httpLogging.Store(true)
}

func (l *ZerologLogger) DisableHTTPLogging() {
	l.httpLogging.Store(false)
}

func (l *ZerologLogger) IsHTTPLoggingEnabled() bool {
	return l.httpLogging.Load()
}

var _ Logger = (*ZerologLogger)(nil)
var _ Logger = (*SlogLogger)(nil)
