package internal

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggerKey struct{}

func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// Logger returns the logger carried by ctx, or a no-op logger.
func Logger(ctx context.Context) *zap.Logger {
	logger, _ := ctx.Value(loggerKey{}).(*zap.Logger)
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// NewLogger writes human readable entries to w. Debug entries are only written when debug is set.
func NewLogger(w io.Writer, debug bool) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		MessageKey:       "msg",
		EncodeTime:       zapcore.TimeEncoderOfLayout(time.TimeOnly),
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	return zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(w),
		level,
	))
}

func DebugTimer(ctx context.Context, msg string) func() {
	start := time.Now()
	logger := Logger(ctx)
	logger.Debug("start", zap.String("stage", msg))
	return func() {
		logger.Debug("done", zap.String("stage", msg), zap.Duration("elapsed", time.Since(start)))
	}
}
