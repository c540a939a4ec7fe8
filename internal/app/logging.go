package app

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggingConfig selects the logger shape for a process.
type LoggingConfig struct {
	Verbose bool
	JSON    bool
}

// NewLogger builds the process logger. Verbose enables debug output,
// JSON switches the console encoder for machine consumption.
func NewLogger(cfg LoggingConfig) (*zap.Logger, error) {
	var base zap.Config
	if cfg.JSON {
		base = zap.NewProductionConfig()
	} else {
		base = zap.NewDevelopmentConfig()
		base.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if cfg.Verbose {
		base.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		base.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	return base.Build()
}
