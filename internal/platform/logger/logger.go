package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config defines the configuration for the logger.
type Config struct {
	Level       string // debug, info, warn, error
	Format      string // json, console
	EnableColor bool   // true to enable colors (only in console mode)
	// Output is a zap sink path. Logs default to stderr so the CLI can keep
	// stdout for translated documents.
	Output string
}

var (
	globalLogger *zap.Logger
	atom         zap.AtomicLevel
	mu           sync.RWMutex
	once         sync.Once
)

// DefaultConfig returns a sane default configuration based on environment variables.
func DefaultConfig() Config {
	return Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Format:      getEnv("LOG_FORMAT", "console"),
		EnableColor: shouldEnableColor(),
		Output:      "stderr",
	}
}

// Initialize sets up the global logger using the provided configuration.
// Only the first call has an effect; use SetLevel to adjust verbosity later.
func Initialize(cfg Config) {
	once.Do(func() {
		l, level, err := build(cfg)
		if err != nil {
			panic("failed to initialize logger: " + err.Error())
		}
		mu.Lock()
		globalLogger = l
		atom = level
		mu.Unlock()
	})
}

func build(cfg Config) (*zap.Logger, zap.AtomicLevel, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if cfg.Format == "console" && cfg.EnableColor {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	if cfg.Format == "console" {
		encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
		encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	}

	output := cfg.Output
	if output == "" {
		output = "stderr"
	}

	level := zap.NewAtomicLevelAt(parseLevel(cfg.Level))
	zapConfig := zap.Config{
		Level:             level,
		Development:       false,
		Encoding:          cfg.Format,
		EncoderConfig:     encoderConfig,
		OutputPaths:       []string{output},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: cfg.Level != "debug",
	}
	if zapConfig.Encoding != "json" {
		zapConfig.Encoding = "console"
	}

	opts := []zap.Option{zap.AddCallerSkip(1)}
	if zapConfig.Encoding == "console" && cfg.EnableColor {
		opts = append(opts, zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewCore(NewColoredConsoleEncoder(encoderConfig), mustOpen(output), level)
		}))
	}

	l, err := zapConfig.Build(opts...)
	return l, level, err
}

func mustOpen(path string) zapcore.WriteSyncer {
	ws, _, err := zap.Open(path)
	if err != nil {
		return zapcore.AddSync(os.Stderr)
	}
	return ws
}

// Get returns the global logger. Initializes with defaults if not already set.
func Get() *zap.Logger {
	mu.RLock()
	l := globalLogger
	mu.RUnlock()
	if l == nil {
		Initialize(DefaultConfig())
		mu.RLock()
		l = globalLogger
		mu.RUnlock()
	}
	return l
}

// Replace swaps the global logger and returns a function restoring the previous one.
func Replace(l *zap.Logger) func() {
	mu.Lock()
	prev := globalLogger
	globalLogger = l
	mu.Unlock()
	return func() {
		mu.Lock()
		globalLogger = prev
		mu.Unlock()
	}
}

// SetLevel changes the level of a logger built by Initialize.
func SetLevel(lvl string) {
	mu.RLock()
	defer mu.RUnlock()
	if globalLogger != nil {
		atom.SetLevel(parseLevel(lvl))
	}
}

// With creates a child logger and adds structured context to it.
func With(fields ...zap.Field) *zap.Logger {
	return Get().With(fields...)
}

// --- Wrapper Functions ---

func Info(msg string, fields ...zap.Field) {
	Get().Info(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	Get().Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	Get().Fatal(msg, fields...)
}

func Debug(msg string, fields ...zap.Field) {
	Get().Debug(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	Get().Warn(msg, fields...)
}

func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if globalLogger != nil {
		_ = globalLogger.Sync()
	}
}

// --- Helpers ---

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return strings.ToLower(value)
	}
	return fallback
}

func parseLevel(lvl string) zapcore.Level {
	switch strings.ToLower(lvl) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// shouldEnableColor checks NO_COLOR (standard) and LOG_COLOR
func shouldEnableColor() bool {
	if _, noColor := os.LookupEnv("NO_COLOR"); noColor {
		return false
	}
	if val := os.Getenv("LOG_COLOR"); val != "" {
		return val == "true" || val == "1"
	}
	return true
}
