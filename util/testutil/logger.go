package testutil

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func NewSimpleLogger(debug bool) *zap.SugaredLogger {
	return NewLogger(debug, false)
}

// NewLogger is the development logger with short timestamps. Levels are coloured when color is set
func NewLogger(debug, color bool) *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("04:05.000")
	if color {
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if debug {
		cfg.Level.SetLevel(zapcore.DebugLevel)
	}
	log, err := cfg.Build(zap.AddStacktrace(zapcore.FatalLevel))
	if err != nil {
		panic(err)
	}
	return log.Sugar()
}
