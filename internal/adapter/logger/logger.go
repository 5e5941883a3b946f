package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger interface {
	Info(action, message, requestID string, details map[string]interface{})
	Debug(action, message, requestID string, details map[string]interface{})
	Warn(action, message, requestID string, details map[string]interface{})
	Error(action, message, requestID string, details map[string]interface{}, err error)
}

type zapLogger struct {
	z *zap.Logger
}

// New builds a JSON logger writing one entry per line to stdout.
func New(service, level string) (Logger, error) {
	return newWithWriter(service, level, os.Stdout)
}

func newWithWriter(service, level string, w io.Writer) (Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "message",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000000000Z07:00"),
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(w), lvl)

	hostname, _ := os.Hostname()
	z := zap.New(core).With(
		zap.String("service", service),
		zap.String("hostname", hostname),
	)
	return &zapLogger{z: z}, nil
}

// Nop discards everything.
func Nop() Logger {
	return &zapLogger{z: zap.NewNop()}
}

func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
}

func (l *zapLogger) Info(action, message, requestID string, details map[string]interface{}) {
	l.log(zapcore.InfoLevel, action, message, requestID, details, nil)
}

func (l *zapLogger) Debug(action, message, requestID string, details map[string]interface{}) {
	l.log(zapcore.DebugLevel, action, message, requestID, details, nil)
}

func (l *zapLogger) Warn(action, message, requestID string, details map[string]interface{}) {
	l.log(zapcore.WarnLevel, action, message, requestID, details, nil)
}

func (l *zapLogger) Error(action, message, requestID string, details map[string]interface{}, err error) {
	l.log(zapcore.ErrorLevel, action, message, requestID, details, err)
}

func (l *zapLogger) log(level zapcore.Level, action, message, requestID string, details map[string]interface{}, err error) {
	ce := l.z.Check(level, message)
	if ce == nil {
		return
	}

	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("action", action),
	}
	if len(details) > 0 {
		fields = append(fields, zap.Any("details", details))
	}
	if err != nil {
		fields = append(fields, zap.Object("error", ErrorInfo{
			Msg:   err.Error(),
			Stack: fmt.Sprintf("%+v", err),
		}))
	}
	ce.Write(fields...)
}
