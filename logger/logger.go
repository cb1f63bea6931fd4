package logger

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the process-wide logger. It discards everything until Init or Set is called.
var Log = zap.NewNop().Sugar()

// Init builds the process logger. An empty level keeps the config default (info).
func Init(level string, development bool) error {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}

	if level != "" {
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return errors.Wrapf(err, "invalid log level %q", level)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	l, err := cfg.Build()
	if err != nil {
		return errors.Wrap(err, "failed to initialize zap logger")
	}
	Log = l.Sugar()
	return nil
}

// Set replaces the process logger, typically with an observed core in tests.
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	Log = l.Sugar()
}

// Sync flushes buffered entries.
func Sync() {
	_ = Log.Sync()
}
