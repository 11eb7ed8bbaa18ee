package logger

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

var Logger *log.Logger

// ParseLevel maps LOG_LEVEL onto a charm level, falling back to info.
func ParseLevel(value string) log.Level {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "warning" {
		value = "warn"
	}
	level, err := log.ParseLevel(value)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// ParseFormatter maps LOG_FORMAT ("text", "json", "logfmt") onto a charm formatter.
func ParseFormatter(value string) log.Formatter {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// Initialize sets up the global logger on stderr
func Initialize(level, format string) {
	InitializeTo(os.Stderr, level, format)
}

// InitializeTo is Initialize with an explicit destination
func InitializeTo(w io.Writer, level, format string) {
	Logger = log.NewWithOptions(w, log.Options{
		Level:           ParseLevel(level),
		Formatter:       ParseFormatter(format),
		Prefix:          "urna",
		ReportCaller:    true,
		ReportTimestamp: true,
	})
	Logger.Debug("Logger initialized", "level", Logger.GetLevel().String())
}

// Get returns the global logger, creating an info-level one on first use
func Get() *log.Logger {
	if Logger == nil {
		Initialize("info", "text")
	}
	return Logger
}

// WithContext creates a new logger with additional context fields
func WithContext(fields ...any) *log.Logger {
	return Get().With(fields...)
}

func Service(serviceName string) *log.Logger {
	return WithContext("service", serviceName)
}

func Database() *log.Logger {
	return WithContext("component", "database")
}

func HTTP() *log.Logger {
	return WithContext("component", "http")
}

func Migration() *log.Logger {
	return WithContext("component", "migration")
}

// Voting tags entries from the vote-casting core; every ballot is logged under it.
func Voting() *log.Logger {
	return WithContext("component", "voting")
}

// Evidence tags entries from a photo storage backend
func Evidence(backend string) *log.Logger {
	return WithContext("component", "evidence", "backend", backend)
}

func Repository(repoName string) *log.Logger {
	return WithContext("component", "repository", "repository", repoName)
}

func Handler(handlerName string) *log.Logger {
	return WithContext("component", "handler", "handler", handlerName)
}
