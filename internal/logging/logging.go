package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// EnvVar turns on the debug log file when set to any non-empty value
const EnvVar = "NESTMAP_DEBUG"

var (
	Debug   *log.Logger
	Scanner *log.Logger
	Enabled bool
)

func init() {
	if os.Getenv(EnvVar) == "" {
		Debug = New(io.Discard, log.FatalLevel)
		Scanner = New(io.Discard, log.FatalLevel)
		Enabled = false
		return
	}

	Enabled = true

	// Open debug.log once for all loggers
	var w io.Writer = os.Stderr
	if f, err := os.OpenFile("debug.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
		w = f
	}

	Debug = New(w, log.DebugLevel).WithPrefix("debug")
	Scanner = New(w, log.DebugLevel).WithPrefix("scanner")
}

// New creates a logger with timestamps that filters below level
func New(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000000",
		Level:           level,
	})
}
