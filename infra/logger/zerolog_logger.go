package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the level, format and destination of a ZerologLogger.
type Options struct {
	Level zerolog.Level
	// Console switches from JSON lines to the human readable writer.
	Console bool
	// File, when set, receives a copy of every entry through a rotating writer.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// OptionsFromEnv reads RIDEFAIR_LOG_LEVEL, RIDEFAIR_LOG_FORMAT and
// RIDEFAIR_LOG_FILE. Unknown levels fall back to info.
func OptionsFromEnv() Options {
	opts := Options{Level: zerolog.InfoLevel, MaxSizeMB: 20, MaxBackups: 3}
	if lvl, err := zerolog.ParseLevel(strings.ToLower(os.Getenv(EnvLevel))); err == nil && lvl != zerolog.NoLevel {
		opts.Level = lvl
	}
	opts.Console = strings.EqualFold(os.Getenv(EnvFormat), "console")
	opts.File = os.Getenv(EnvFile)
	return opts
}

var (
	filesMu sync.Mutex
	files   = map[string]*lumberjack.Logger{}
)

// rotating shares one lumberjack writer per path across components.
func rotating(opts Options) io.Writer {
	filesMu.Lock()
	defer filesMu.Unlock()
	if w, ok := files[opts.File]; ok {
		return w
	}
	w := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		Compress:   true,
	}
	files[opts.File] = w
	return w
}

// ZerologLogger implements Logger using rs/zerolog.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger creates a logger writing to stderr and, if opts.File is
// set, to a rotating file. The file always receives JSON.
func NewZerologLogger(component string, opts Options) Logger {
	var out io.Writer = os.Stderr
	if opts.Console {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	if opts.File != "" {
		out = zerolog.MultiLevelWriter(out, rotating(opts))
	}
	return newWithWriter(out, component, opts.Level)
}

// NewZerologLoggerWithWriter creates a ZerologLogger writing JSON lines to w
// at the level given by RIDEFAIR_LOG_LEVEL.
func NewZerologLoggerWithWriter(w io.Writer, component string) Logger {
	return newWithWriter(w, component, OptionsFromEnv().Level)
}

func newWithWriter(w io.Writer, component string, level zerolog.Level) Logger {
	z := zerolog.New(w).Level(level).With().Timestamp().Str("component", component).Logger()
	return &ZerologLogger{log: z}
}

func (l *ZerologLogger) Debugf(format string, args ...any) { l.log.Debug().Msgf(format, args...) }

func (l *ZerologLogger) Debugw(msg string, fields map[string]any) {
	l.log.Debug().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Infof(format string, args ...any) { l.log.Info().Msgf(format, args...) }

func (l *ZerologLogger) Infow(msg string, fields map[string]any) {
	l.log.Info().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Warnf(format string, args ...any) { l.log.Warn().Msgf(format, args...) }

func (l *ZerologLogger) Warnw(msg string, fields map[string]any) {
	l.log.Warn().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Errorf(format string, args ...any) { l.log.Error().Msgf(format, args...) }

func (l *ZerologLogger) With(fields map[string]any) Logger {
	return &ZerologLogger{log: l.log.With().Fields(fields).Logger()}
}
