// Package log provides structured logging for agrodash on top of zerolog.
//
// Components obtain a named Logger and attach key/value context:
//
//	logger := log.GetLoggerWithName("ensemble").With(
//		log.ModelNameKey, "RandomForestRegressor",
//	)
//	logger.Info("Training started", log.SamplesKey, 97, log.FeaturesKey, 6)
//
// Binaries call SetupLogger once at startup. GetLogger exposes the raw
// zerolog logger for call sites that prefer the fluent event API.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Well-known structured logging keys.
const (
	ModelNameKey  = "model_name"
	ComponentKey  = "component"
	OperationKey  = "operation"
	PhaseKey      = "phase"
	SamplesKey    = "samples"
	FeaturesKey   = "features"
	PredsKey      = "predictions"
	DurationMsKey = "duration_ms"
	DashboardKey  = "dashboard"
	ThemeKey      = "theme"
	StatusKey     = "status"
	PathKey       = "path"
	MethodKey     = "method"
)

// Operation and phase values.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationRender    = "render"
	PhaseTraining      = "training"
	PhaseInference     = "inference"
	PhaseServing       = "serving"
)

// Logger is the structured logging interface used across the module.
type Logger interface {
	Debug(msg string, kv ...interface{})
	Info(msg string, kv ...interface{})
	Warn(msg string, kv ...interface{})
	Error(msg string, kv ...interface{})
	With(kv ...interface{}) Logger
}

// LoggerProvider hands out named loggers.
type LoggerProvider interface {
	GetLogger() Logger
	GetLoggerWithName(name string) Logger
}

var (
	mu       sync.RWMutex
	base     = newBase(os.Stderr, zerolog.InfoLevel, false)
	provider LoggerProvider
)

func newBase(w io.Writer, level zerolog.Level, console bool) zerolog.Logger {
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// ToLogLevel converts a textual level into a zerolog level. Unknown values
// map to info.
func ToLogLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// SetupLogger configures the global JSON logger on stderr.
func SetupLogger(level string) {
	Setup(os.Stderr, level, "json")
}

// Setup configures the global logger writing to w. format "console" selects
// the human readable writer; anything else logs JSON.
func Setup(w io.Writer, level, format string) {
	mu.Lock()
	defer mu.Unlock()
	base = newBase(w, ToLogLevel(level), format == "console")
	provider = &zerologProvider{root: base}
}

// GetLogger returns the global zerolog logger.
func GetLogger() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := base
	return &l
}

// GetLoggerWithName returns a Logger tagged with the given component name.
func GetLoggerWithName(name string) Logger {
	mu.RLock()
	p := provider
	mu.RUnlock()
	if p == nil {
		p = &zerologProvider{root: *GetLogger()}
	}
	return p.GetLoggerWithName(name)
}

// LogError logs err at error level with msg.
func LogError(err error, msg string) {
	l := GetLogger()
	l.Error().Err(err).Msg(msg)
}

type zerologProvider struct {
	root zerolog.Logger
}

// NewZerologProvider returns a provider writing JSON to stderr at level.
func NewZerologProvider(level zerolog.Level) LoggerProvider {
	return &zerologProvider{root: newBase(os.Stderr, level, false)}
}

// NewProviderFromLogger wraps an existing zerolog logger.
func NewProviderFromLogger(l zerolog.Logger) LoggerProvider {
	return &zerologProvider{root: l}
}

func (p *zerologProvider) GetLogger() Logger {
	return &zerologLogger{l: p.root}
}

func (p *zerologProvider) GetLoggerWithName(name string) Logger {
	return &zerologLogger{l: p.root.With().Str("logger", name).Logger()}
}

type zerologLogger struct {
	l zerolog.Logger
}

func (z *zerologLogger) Debug(msg string, kv ...interface{}) { emit(z.l.Debug(), msg, kv) }
func (z *zerologLogger) Info(msg string, kv ...interface{})  { emit(z.l.Info(), msg, kv) }
func (z *zerologLogger) Warn(msg string, kv ...interface{})  { emit(z.l.Warn(), msg, kv) }
func (z *zerologLogger) Error(msg string, kv ...interface{}) { emit(z.l.Error(), msg, kv) }

func (z *zerologLogger) With(kv ...interface{}) Logger {
	ctx := z.l.With()
	for i := 0; i < len(kv); i += 2 {
		key, val := pair(kv, i)
		ctx = ctx.Interface(key, val)
	}
	return &zerologLogger{l: ctx.Logger()}
}

func emit(e *zerolog.Event, msg string, kv []interface{}) {
	if e == nil {
		return
	}
	for i := 0; i < len(kv); i += 2 {
		key, val := pair(kv, i)
		if err, ok := val.(error); ok {
			e = e.AnErr(key, err)
			continue
		}
		e = e.Interface(key, val)
	}
	e.Msg(msg)
}

// pair extracts the i-th key/value; a trailing key without value logs as
// "!BADKEY".
func pair(kv []interface{}, i int) (string, interface{}) {
	key, ok := kv[i].(string)
	if !ok {
		key = fmt.Sprint(kv[i])
	}
	if i+1 >= len(kv) {
		return "!BADKEY", key
	}
	return key, kv[i+1]
}
