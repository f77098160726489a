package log

import (
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvLogLevel overrides Config.Level when set.
const EnvLogLevel = "RESP3CLI_LOG_LEVEL"

// Logger is a no-op until InitLogger runs.
var Logger = zap.NewNop()

type Config struct {
	Level       string
	Development bool
	// Color enables colored level names. DefaultConfig turns it on when
	// stderr is a terminal.
	Color bool
}

func DefaultConfig() Config {
	return Config{
		Level: "info",
		Color: isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()),
	}
}

func InitLogger(cfg Config) error {
	if env := os.Getenv(EnvLogLevel); env != "" {
		cfg.Level = env
	}
	logger, err := Build(cfg)
	if err != nil {
		return err
	}
	Logger = logger
	return nil
}

// Build returns a console logger on stderr configured by cfg.
func Build(cfg Config) (*zap.Logger, error) {
	level, ok := ParseLevel(cfg.Level)
	if !ok {
		level = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	if cfg.Development {
		config = zap.NewDevelopmentConfig()
	}
	config.Level = zap.NewAtomicLevelAt(level)
	config.Encoding = "console"
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format(time.RFC3339))
	}
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	if cfg.Color {
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return config.Build()
}

// ParseLevel maps a level name to a zap level. "off" and friends map to
// a level above fatal so nothing is logged.
func ParseLevel(raw string) (zapcore.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace", "debug":
		return zapcore.DebugLevel, true
	case "info", "":
		return zapcore.InfoLevel, true
	case "warn", "warning":
		return zapcore.WarnLevel, true
	case "error":
		return zapcore.ErrorLevel, true
	case "off", "none", "disabled":
		return zapcore.FatalLevel + 1, true
	}
	return zapcore.InfoLevel, false
}
