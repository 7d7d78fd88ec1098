package applog

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

var DefaultLogger = log.NewWithOptions(os.Stderr, log.Options{
	TimeFormat:      "2006-01-02 15:04:05",
	ReportTimestamp: true,
})

// Init points the default logger at w and sets its level. An unknown level
// falls back to info.
func Init(w io.Writer, level string) {
	DefaultLogger.SetOutput(w)
	DefaultLogger.SetTimeFormat("2006-01-02 15:04:05")
	DefaultLogger.SetReportTimestamp(true)

	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		DefaultLogger.Warnf("Unknown log level %q, using info", level)
		lvl = log.InfoLevel
	}
	DefaultLogger.SetLevel(lvl)
}

// InitFile logs to path, for programs that own the terminal
func InitFile(path, level string) (io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	Init(f, level)
	return f, nil
}

// Discard silences the default logger (tests, --quiet)
func Discard() {
	DefaultLogger.SetOutput(io.Discard)
}
