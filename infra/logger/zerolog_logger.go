package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	outMu  sync.RWMutex
	output io.Writer
	closer io.Closer
)

// Configure applies cfg to every logger created afterwards. It replaces a
// log file opened by a previous call.
func Configure(cfg Config) error {
	if err := SetLevel(cfg.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	var w io.Writer = os.Stdout
	var c io.Closer
	if cfg.File != "" {
		lj := &lumberjack.Logger{Filename: cfg.File, MaxSize: cfg.MaxSizeMB, MaxBackups: cfg.MaxBackups}
		w, c = lj, lj
	}
	if console(cfg.Format) {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: cfg.File != ""}
	}

	outMu.Lock()
	prev := closer
	output, closer = w, c
	outMu.Unlock()
	if prev != nil {
		return prev.Close()
	}
	return nil
}

// Close releases the log file opened by Configure, if any, and restores
// stdout.
func Close() error {
	outMu.Lock()
	c := closer
	output, closer = nil, nil
	outMu.Unlock()
	if c != nil {
		return c.Close()
	}
	return nil
}

func console(format string) bool {
	switch strings.ToLower(format) {
	case "console":
		return true
	case "json":
		return false
	default:
		return strings.ToLower(os.Getenv("APP_ENV")) == "dev"
	}
}

// New returns a Logger tagged with component, writing where Configure
// pointed it.
func New(component string) Logger {
	outMu.RLock()
	w := output
	outMu.RUnlock()
	if w == nil {
		w = os.Stdout
		if console("") {
			w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		}
	}
	return NewWithWriter(w, component)
}

// NewWithWriter writes JSON lines to w.
func NewWithWriter(w io.Writer, component string) Logger {
	return &zerologLogger{log: zerolog.New(w).With().Timestamp().Str("component", component).Logger()}
}

type zerologLogger struct {
	log zerolog.Logger
}

func (l *zerologLogger) Debugf(format string, args ...any) { l.log.Debug().Msgf(format, args...) }

func (l *zerologLogger) Debugw(msg string, fields map[string]any) {
	l.log.Debug().Fields(fields).Msg(msg)
}

func (l *zerologLogger) Infof(format string, args ...any)  { l.log.Info().Msgf(format, args...) }
func (l *zerologLogger) Warnf(format string, args ...any)  { l.log.Warn().Msgf(format, args...) }
func (l *zerologLogger) Errorf(format string, args ...any) { l.log.Error().Msgf(format, args...) }
