package simulate

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/spraycam/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to the console and, when logFile is set, a
// copy in that file. The returned func closes the file.
func SetupLogging(logFile string, verbose bool) (func(), error) {
	var w io.Writer = os.Stdout
	closeFn := func() {}
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, file)
		closeFn = func() { _ = file.Close() }
	}
	if err := logger.InitWithWriter(w, "text"); err != nil {
		closeFn()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	if logFile != "" {
		logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	}
	return closeFn, nil
}

// DefaultConfig returns a schedule that finishes in well under a minute.
func DefaultConfig() *Config {
	return &Config{
		Visits:          5,
		FPS:             20,
		Visit:           1200 * time.Millisecond,
		Gap:             3 * time.Second,
		Jitter:          0.3,
		DetectionWindow: 500 * time.Millisecond,
		VideoWindow:     2 * time.Second,
		Spray:           300 * time.Millisecond,
	}
}

// ShowHelp prints usage information for the simulator.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`spraycam simulator
==================

Replays scripted cat visits through the full spraycam service with a mock
actuator, in-memory clips and a real SQLite event log, then checks that
every visit produced exactly one event.

Usage:
  go run ./cmd/simulate [options]

Options:
  -visits int         Number of cat visits (default 5)
  -fps float          Scripted camera frame rate (default 20)
  -visit duration     Nominal visit length (default 1.2s)
  -gap duration       Quiet time around visits (default 3s)
  -jitter float       Visit length variation, 0 disables (default 0.3)
  -db string          Event log path (default: temporary file)
  -output string      JSON report path
  -log string         Log file copy
  -verbose            Enable verbose logging
  -help               Show this help message

Examples:
  go run ./cmd/simulate -visits 10 -fps 30
  go run ./cmd/simulate -verbose -output sim_report.json
`)
}
