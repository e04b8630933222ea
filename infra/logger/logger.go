package logger

import corelogger "github.com/kilianp07/ridefair/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// Environment variables read by New.
const (
	EnvLevel  = "RIDEFAIR_LOG_LEVEL"
	EnvFormat = "RIDEFAIR_LOG_FORMAT"
	EnvFile   = "RIDEFAIR_LOG_FILE"
)

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Infow(string, map[string]any)  {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Warnw(string, map[string]any)  {}
func (NopLogger) Errorf(string, ...any)         {}
func (n NopLogger) With(map[string]any) Logger  { return n }

// New returns a Logger tagged with component, configured from the
// RIDEFAIR_LOG_* environment variables.
func New(component string) Logger {
	return NewZerologLogger(component, OptionsFromEnv())
}
