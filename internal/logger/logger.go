// Package logger configures zerolog for the server and the lookup CLI.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps zerolog.Logger so components can attach their own fields
type Logger struct {
	*zerolog.Logger
}

// Config holds logger configuration
type Config struct {
	Level      string    // debug, info, warn, error
	Pretty     bool      // human-readable console output instead of JSON
	OutputFile string    // optional JSON log file, rotated by size
	Output     io.Writer // console destination, stdout when nil
	Service    string    // stamped on every line when set
}

// New builds a logger from cfg and sets the global level
func New(cfg Config) *Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	if cfg.OutputFile != "" {
		out = zerolog.MultiLevelWriter(out, rotatingFile(cfg.OutputFile))
	}

	ctx := zerolog.New(out).With().Timestamp().Caller()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	logger := ctx.Logger()
	return &Logger{Logger: &logger}
}

// rotatingFile keeps at most three 50 MB backups for two weeks
func rotatingFile(path string) io.Writer {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    50,
		MaxBackups: 3,
		MaxAge:     14,
		Compress:   true,
	}
}

// NewDefault is an info-level console logger
func NewDefault() *Logger {
	return New(Config{Level: "info", Pretty: true})
}

// NewNop discards everything
func NewNop() *Logger {
	logger := zerolog.Nop()
	return &Logger{Logger: &logger}
}

func (l *Logger) with(key, value string) *Logger {
	child := l.With().Str(key, value).Logger()
	return &Logger{Logger: &child}
}

// WithComponent tags lines with the emitting component
func (l *Logger) WithComponent(component string) *Logger {
	return l.with("component", component)
}

// WithRequestID tags lines with chi's request id
func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.with("request_id", requestID)
}

// WithProvider tags lines with an upstream provider name
func (l *Logger) WithProvider(provider string) *Logger {
	return l.with("provider", provider)
}

// WithSession tags lines with the page session id
func (l *Logger) WithSession(sessionID string) *Logger {
	return l.with("session_id", sessionID)
}

// WithClientIP tags lines with the visitor address used for the self lookup
func (l *Logger) WithClientIP(ip string) *Logger {
	return l.with("client_ip", ip)
}
