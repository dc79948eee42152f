package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is the severity of a trace entry.
type Level int

const (
	LevelInfo      Level = iota // Routine progress
	LevelImportant              // Outcome worth reading in a report
	LevelError                  // Failed resolution or wait
	LevelCritical               // Failure that aborts the scenario
)

// Tag returns the short bracketed tag printed in front of a trace message
func (l Level) Tag() string {
	switch l {
	case LevelInfo:
		return "[Info]"
	case LevelImportant:
		return "[Imp]"
	case LevelError:
		return "[Err]"
	case LevelCritical:
		return "[911]"
	default:
		return "[?]"
	}
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelError, LevelCritical:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Icon is the category of a trace entry.
type Icon string

const (
	IconLocator  Icon = "locator"
	IconWait     Icon = "wait"
	IconDialog   Icon = "dialog"
	IconViewport Icon = "viewport"
	IconSuccess  Icon = "success"
	IconFailure  Icon = "failure"
)

// Logger writes scenario trace entries. A nil *Logger discards everything.
type Logger struct {
	z *zap.Logger
}

// New wraps a zap logger.
func New(z *zap.Logger) *Logger {
	if z == nil {
		z = zap.NewNop()
	}
	return &Logger{z: z}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{z: zap.NewNop()}
}

// Zap returns the underlying zap logger.
func (l *Logger) Zap() *zap.Logger {
	if l == nil || l.z == nil {
		return zap.NewNop()
	}
	return l.z
}

// With returns a child logger carrying the given fields on every entry.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{z: l.Zap().With(fields...)}
}

// Write records one trace entry.
func (l *Logger) Write(level Level, icon Icon, msg string, fields ...zap.Field) {
	z := l.Zap()
	if ce := z.Check(level.zapLevel(), level.Tag()+" "+msg); ce != nil {
		fs := make([]zap.Field, 0, len(fields)+2)
		fs = append(fs, zap.String("icon", string(icon)))
		if level == LevelCritical {
			fs = append(fs, zap.Bool("critical", true))
		}
		ce.Write(append(fs, fields...)...)
	}
}

// Warn records a soft failure that does not change the outcome.
func (l *Logger) Warn(icon Icon, msg string, fields ...zap.Field) {
	z := l.Zap()
	if ce := z.Check(zapcore.WarnLevel, msg); ce != nil {
		ce.Write(append([]zap.Field{zap.String("icon", string(icon))}, fields...)...)
	}
}
