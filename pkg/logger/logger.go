// Package logger provides the process-wide zap logger and the scenario trace
// writer used by locator resolution and waits.
package logger

import (
	"fmt"
	"os"
	"sync"

	"github.com/devicelab-dev/locator-runner/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	globalLogger *zap.Logger
	fileWriter   *lumberjack.Logger
	mu           sync.Mutex
)

// Init initializes the global logger. Console output goes to console
// (stderr when nil); cfg.File adds a rotated JSON file core.
func Init(cfg config.LoggerConfig, console zapcore.WriteSyncer) error {
	mu.Lock()
	defer mu.Unlock()

	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	if console == nil {
		console = zapcore.Lock(os.Stderr)
	}
	cores := []zapcore.Core{zapcore.NewCore(encoder(cfg.Format), console, level)}

	// Close previous log file if exists
	if fileWriter != nil {
		fileWriter.Close()
		fileWriter = nil
	}
	if cfg.File != "" {
		fileWriter = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		cores = append(cores, zapcore.NewCore(encoder("json"), zapcore.AddSync(fileWriter), level))
	}

	globalLogger = zap.New(zapcore.NewTee(cores...)).Named("locator-runner")
	return nil
}

func encoder(format string) zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	if format == "console" {
		return zapcore.NewConsoleEncoder(encoderConfig)
	}
	return zapcore.NewJSONEncoder(encoderConfig)
}

// Close flushes the global logger and closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger != nil {
		_ = globalLogger.Sync()
		globalLogger = nil
	}
	if fileWriter != nil {
		fileWriter.Close()
		fileWriter = nil
	}
}

// L returns the global logger as a trace writer. Before Init it discards everything.
func L() *Logger {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger == nil {
		return Nop()
	}
	return New(globalLogger)
}

// Info logs an info message.
func Info(format string, v ...interface{}) {
	L().Zap().Sugar().Infof(format, v...)
}

// Debug logs a debug message.
func Debug(format string, v ...interface{}) {
	L().Zap().Sugar().Debugf(format, v...)
}

// Error logs an error message.
func Error(format string, v ...interface{}) {
	L().Zap().Sugar().Errorf(format, v...)
}

// Warn logs a warning message.
func Warn(format string, v ...interface{}) {
	L().Zap().Sugar().Warnf(format, v...)
}
