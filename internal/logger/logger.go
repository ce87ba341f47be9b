package logger

import (
	"go.uber.org/zap"
)

// Log is global logger. It is no-op until Initialize is called.
var Log = zap.NewNop()

// Initialize builds production logger with given log level
func Initialize(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl

	zl, err := cfg.Build()
	if err != nil {
		return err
	}

	Log = zl
	return nil
}
