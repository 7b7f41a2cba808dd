package logger

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Log      *zap.Logger
	onceInit sync.Once
)

// Init builds the process logger once. Later calls return the first result.
func Init(level string, meta ...zap.Field) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "parse log level %q", level)
	}

	var buildErr error
	onceInit.Do(func() {
		instance, err := configure(lvl).Build(zap.AddCaller())
		if err != nil {
			buildErr = errors.Wrap(err, "build logger")
			return
		}
		Log = instance.With(meta...)
	})
	if buildErr != nil {
		return buildErr
	}
	if Log == nil {
		return errors.New("logger not initialized")
	}
	return nil
}

func configure(level zapcore.Level) zap.Config {
	encoder := zap.NewProductionEncoderConfig()
	encoder.TimeKey = "timestamp"
	encoder.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoder.EncodeCaller = zapcore.ShortCallerEncoder
	encoder.EncodeDuration = zapcore.StringDurationEncoder
	encoder.CallerKey = "caller"
	return zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         "console",
		EncoderConfig:    encoder,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
}
