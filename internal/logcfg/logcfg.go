// Package logcfg sets up the module's structured logger and its
// RUST_LOG-style level selection, shared by the cmd/swfconv CLI and by the
// root swfanim package's handful of recoverable-error log lines.
package logcfg

import (
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// EnvVar is the environment variable consulted for the default log level,
// named after the original Rust tool's RUST_LOG convention (spec §6.1).
const EnvVar = "SWFANIM_LOG"

// Logger is the shared leveled logger. Defaults to "error" per spec §6.1
// until Init is called.
var Logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Level:           log.ErrorLevel,
})

// Init parses level (an explicit --log flag value takes precedence; an
// empty string falls back to EnvVar, then to "error").
func Init(level string) {
	if level == "" {
		level = os.Getenv(EnvVar)
	}
	if level == "" {
		level = "error"
	}
	// The logger has no trace level; trace maps to debug.
	if strings.EqualFold(level, "trace") {
		level = "debug"
	}
	parsed, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		Logger.Warnf("unrecognized log level %q, defaulting to error", level)
		parsed = log.ErrorLevel
	}
	Logger.SetLevel(parsed)
}
