package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/spraycam/internal/simulate"
)

const defaultRunTimeout = 10 * time.Minute

func main() {
	def := simulate.DefaultConfig()
	var (
		visits     = flag.Int("visits", def.Visits, "Number of cat visits")
		fps        = flag.Float64("fps", def.FPS, "Scripted camera frame rate")
		visit      = flag.Duration("visit", def.Visit, "Nominal visit length")
		gap        = flag.Duration("gap", def.Gap, "Quiet time around visits")
		jitter     = flag.Float64("jitter", def.Jitter, "Visit length variation, 0 disables")
		dbPath     = flag.String("db", "", "Event log path (default: temporary file)")
		outputFile = flag.String("output", "", "JSON report path")
		logFile    = flag.String("log", "", "Log file copy")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulate.ShowHelp()
		return
	}

	closeLog, err := simulate.SetupLogging(*logFile, *verbose)
	if err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	cfg := def
	cfg.Visits = *visits
	cfg.FPS = *fps
	cfg.Visit = *visit
	cfg.Gap = *gap
	cfg.Jitter = *jitter
	cfg.DBPath = *dbPath
	cfg.OutputFile = *outputFile
	cfg.LogFile = *logFile
	cfg.Verbose = *verbose

	if _, err := simulate.Run(ctx, cfg); err != nil {
		_, _ = os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		closeLog()
		os.Exit(1)
	}
}
