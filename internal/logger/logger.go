// Package logger provides the process-wide console logger. Output goes to
// stderr so that stdout only ever carries the computed version.
package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	atomicLevel = zap.NewAtomicLevelAt(zap.WarnLevel)
	instance    *zap.Logger
	once        sync.Once
)

// GetLogger returns the shared logger.
func GetLogger() *zap.Logger {
	once.Do(func() {
		encoderCfg := zap.NewDevelopmentEncoderConfig()
		encoderCfg.TimeKey = "timestamp"
		encoderCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		encoderCfg.CallerKey = ""
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

		core := zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderCfg),
			zapcore.Lock(zapcore.AddSync(os.Stderr)),
			atomicLevel,
		)

		instance = zap.New(core).Named("gitversion")
	})

	return instance
}

// SetLevel changes the level of the shared logger.
func SetLevel(level zapcore.Level) {
	atomicLevel.SetLevel(level)
}

// Level returns the current level of the shared logger.
func Level() zapcore.Level {
	return atomicLevel.Level()
}
