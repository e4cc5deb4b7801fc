package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	mu      sync.RWMutex
	atom    = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	sugared = newSugared("text", zapcore.Lock(os.Stdout))
	// logFile is the file sink opened by Configure, nil for stdout/stderr.
	logFile *os.File
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseLevel maps a case-insensitive level name to a Level.
// Unknown names report ok=false.
func ParseLevel(level string) (Level, bool) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	}
	return LevelInfo, false
}

// SetLevel changes the minimum level. Unknown names are ignored.
func SetLevel(level string) {
	if l, ok := ParseLevel(level); ok {
		atom.SetLevel(l.zapLevel())
	}
}

// Enabled reports whether messages at level l are currently emitted.
func Enabled(l Level) bool {
	return atom.Enabled(l.zapLevel())
}

// Configure rebuilds the underlying zap logger.
//
// format is "text" (console encoder) or "json"; output is "stdout", "stderr"
// or a file path opened in append mode. A file opened by an earlier call is
// closed once the new logger is installed.
func Configure(level, format, output string) error {
	var (
		sink zapcore.WriteSyncer
		file *os.File
	)
	switch strings.ToLower(output) {
	case "", "stdout":
		sink = zapcore.Lock(os.Stdout)
	case "stderr":
		sink = zapcore.Lock(os.Stderr)
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log output %q: %w", output, err)
		}
		sink = zapcore.AddSync(f)
		file = f
	}

	SetLevel(level)

	mu.Lock()
	old, oldFile := sugared, logFile
	sugared, logFile = newSugared(format, sink), file
	mu.Unlock()

	_ = old.Sync()
	if oldFile != nil {
		_ = oldFile.Close()
	}
	return nil
}

// Sync flushes buffered log entries.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	return sugared.Sync()
}

func newSugared(format string, sink zapcore.WriteSyncer) *zap.SugaredLogger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	var enc zapcore.Encoder
	if strings.ToLower(format) == "json" {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	return zap.New(zapcore.NewCore(enc, sink, atom)).Sugar()
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugared
}

func Debug(format string, v ...any) {
	current().Debugf(format, v...)
}

func Info(format string, v ...any) {
	current().Infof(format, v...)
}

func Warn(format string, v ...any) {
	current().Warnf(format, v...)
}

func Error(format string, v ...any) {
	current().Errorf(format, v...)
}
