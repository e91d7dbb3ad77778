package logger

import (
	"context"
	"os"
	"sort"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr or a file path
}

var base atomic.Pointer[zap.Logger]

func init() {
	z, _ := Build(Config{Level: "info", Format: "json", Output: "stdout"})
	base.Store(z)
}

// Setup replaces the process-wide base logger. Loggers created before the
// call keep writing to the previous core.
func Setup(cfg Config) error {
	z, err := Build(cfg)
	if err != nil {
		return err
	}
	base.Store(z)
	return nil
}

func Build(cfg Config) (*zap.Logger, error) {
	encCfg := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	var enc zapcore.Encoder
	if strings.EqualFold(cfg.Format, "console") {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	ws, err := writer(cfg.Output)
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(enc, ws, parseLevel(cfg.Level))
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func writer(output string) (zapcore.WriteSyncer, error) {
	switch strings.ToLower(output) {
	case "", "stdout":
		return zapcore.AddSync(os.Stdout), nil
	case "stderr":
		return zapcore.AddSync(os.Stderr), nil
	default:
		f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		return zapcore.AddSync(f), nil
	}
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Logger writes action-oriented entries tagged with the service name.
type Logger struct {
	service string
	z       *zap.Logger
}

func New(service string) *Logger {
	return NewWith(base.Load(), service)
}

func NewWith(z *zap.Logger, service string) *Logger {
	return &Logger{
		service: service,
		z:       z.Named(service).With(zap.String("service", service), zap.String("hostname", hostname())),
	}
}

func NewNop() *Logger { return &Logger{service: "nop", z: zap.NewNop()} }

// WithContext returns a logger carrying the request id stored in ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	id := RequestID(ctx)
	if id == "" {
		return l
	}
	return &Logger{service: l.service, z: l.z.With(zap.String("request_id", id))}
}

func (l *Logger) Zap() *zap.Logger { return l.z }

func (l *Logger) Sync() { _ = l.z.Sync() }

func (l *Logger) Debug(action string, fields map[string]any) {
	l.z.Debug(action, toFields(action, fields)...)
}

func (l *Logger) Info(action string, fields map[string]any) {
	l.z.Info(action, toFields(action, fields)...)
}

func (l *Logger) Warn(action string, fields map[string]any) {
	l.z.Warn(action, toFields(action, fields)...)
}

func (l *Logger) Error(action string, err error, fields map[string]any) {
	fs := toFields(action, fields)
	if err != nil {
		fs = append(fs, zap.Error(err))
	}
	l.z.Error(action, fs...)
}

func toFields(action string, fields map[string]any) []zap.Field {
	out := make([]zap.Field, 0, len(fields)+1)
	out = append(out, zap.String("action", action))
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, zap.Any(k, fields[k]))
	}
	return out
}

func hostname() string { h, _ := os.Hostname(); return h }

type ctxKey struct{}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok {
		return id
	}
	return ""
}
