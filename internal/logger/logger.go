package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps the zap logger with additional functionality
type Logger struct {
	*zap.Logger
}

// NewLogger creates a new logger instance with production configuration,
// logging at Info level to stdout with errors on stderr.
func NewLogger() (*Logger, error) {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	zapLogger, err := config.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{
		Logger: zapLogger,
	}, nil
}

// NewComponentLogger creates a logger whose entries all carry a component
// field, so per-symbol run logs can be told apart from e.g. datasource logs.
func NewComponentLogger(component string) (*Logger, error) {
	base, err := NewLogger()
	if err != nil {
		return nil, err
	}

	return &Logger{
		Logger: base.Logger.With(zap.String("component", component)),
	}, nil
}

// Sync flushes any buffered log entries
func (l *Logger) Sync() error {
	if l.Logger != nil {
		return l.Logger.Sync()
	}

	return nil
}
