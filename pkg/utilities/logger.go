package utilities

import (
	"os"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LoggerConfig struct {
	Level string
	Dev   bool
	// File enables an additional rotating log file when non-empty.
	File string
}

// LoggerConfigFromEnv reads minimal logging config from env vars.
func LoggerConfigFromEnv() LoggerConfig {
	dev := os.Getenv("LOG_DEV") == "1"
	lvl := os.Getenv("LOG_LEVEL")
	if lvl == "" {
		if dev {
			lvl = "debug"
		} else {
			lvl = "info"
		}
	}
	return LoggerConfig{Level: lvl, Dev: dev, File: os.Getenv("LOG_FILE")}
}

func levelFromString(l string) zapcore.Level {
	switch l {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// InitLogger initializes and returns a *zap.Logger. With cfg.File set the
// JSON output is duplicated to a daily-rotated file kept for seven days.
func InitLogger(cfg LoggerConfig) (*zap.Logger, error) {
	lvl := levelFromString(cfg.Level)
	if cfg.Dev {
		c := zap.NewDevelopmentConfig()
		c.Level = zap.NewAtomicLevelAt(lvl)
		return c.Build()
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	sink := zapcore.AddSync(os.Stdout)
	if cfg.File != "" {
		w, err := rotatelogs.New(
			cfg.File+".%Y%m%d",
			rotatelogs.WithLinkName(cfg.File),
			rotatelogs.WithRotationTime(24*time.Hour),
			rotatelogs.WithMaxAge(7*24*time.Hour),
		)
		if err != nil {
			return nil, err
		}
		sink = zapcore.NewMultiWriteSyncer(sink, zapcore.AddSync(w))
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), sink, lvl)
	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	return zap.New(core, opts...), nil
}
