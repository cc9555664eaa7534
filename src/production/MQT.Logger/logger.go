package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	config "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Config"
)

// Logger wraps zerolog.Logger with additional functionality
type Logger struct {
	*zerolog.Logger
}

// NewLogger creates a new logger based on configuration and installs it as the global logger
func NewLogger(cfg *config.LoggingConfig) *Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	out := outputFor(cfg.Output)

	if cfg.Format == "json" {
		ctx := zerolog.New(out).With().Timestamp()
		if cfg.EnableCaller {
			ctx = ctx.Caller()
		}
		log.Logger = ctx.Logger()
	} else {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}

	return &Logger{&log.Logger}
}

// New wraps an arbitrary writer, used by tests to capture output
func New(w io.Writer) *Logger {
	l := zerolog.New(w).With().Timestamp().Logger()
	return &Logger{&l}
}

// NewNopLogger returns a logger that discards everything
func NewNopLogger() *Logger {
	l := zerolog.Nop()
	return &Logger{&l}
}

func outputFor(output string) io.Writer {
	switch output {
	case "", "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return os.Stdout
	}
	return f
}

func (l *Logger) derive(fn func(zerolog.Context) zerolog.Context) *Logger {
	child := fn(l.Logger.With()).Logger()
	return &Logger{&child}
}

func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.derive(func(c zerolog.Context) zerolog.Context { return c.Interface(key, value) })
}

// WithFields attaches every entry of fields; map order does not matter to zerolog
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return l.derive(func(c zerolog.Context) zerolog.Context { return c.Fields(fields) })
}

func (l *Logger) WithError(err error) *Logger {
	return l.derive(func(c zerolog.Context) zerolog.Context { return c.Err(err) })
}

func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.derive(func(c zerolog.Context) zerolog.Context { return c.Str("request_id", requestID) })
}

// WithService tags every entry with the binary name (api, ingestor)
func (l *Logger) WithService(service string) *Logger {
	return l.derive(func(c zerolog.Context) zerolog.Context { return c.Str("service", service) })
}

func (l *Logger) WithComponent(component string) *Logger {
	return l.derive(func(c zerolog.Context) zerolog.Context { return c.Str("component", component) })
}

// WithTopic tags entries produced while handling one broker message
func (l *Logger) WithTopic(topic string) *Logger {
	return l.derive(func(c zerolog.Context) zerolog.Context { return c.Str("topic", topic) })
}

// WithSensor tags entries with the sensor a reading or rule belongs to
func (l *Logger) WithSensor(sensorID string) *Logger {
	return l.derive(func(c zerolog.Context) zerolog.Context { return c.Str("sensor_id", sensorID) })
}

// FatalWithError logs and exits the process
func (l *Logger) FatalWithError(err error, msg string) {
	l.Fatal().Err(err).Msg(msg)
}

func (l *Logger) ErrorWithError(err error, msg string) {
	l.Error().Err(err).Msg(msg)
}
