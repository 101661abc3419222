package simulate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/okian/spraycam/internal/adapters/actuator"
	"github.com/okian/spraycam/internal/adapters/http/api"
	"github.com/okian/spraycam/internal/adapters/repository"
	service "github.com/okian/spraycam/internal/app"
	"github.com/okian/spraycam/internal/config"
	"github.com/okian/spraycam/internal/domain/model"
	"github.com/okian/spraycam/pkg/logger"
)

// Runner configuration constants.
const (
	directoryPermission = 0750
	httpTimeout         = 5 * time.Second
	settleTimeout       = 10 * time.Second
	pollInterval        = 100 * time.Millisecond
	progressInterval    = time.Second
	maxEventsFetched    = 1000
)

// Run replays the scripted visits through a full in-process service and
// verifies that every visit produced exactly one event.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	stats := &Stats{RunID: uuid.NewString(), Visits: cfg.Visits, StartTime: time.Now()}
	log := logger.Get().Named("simulate")

	script := BuildScript(cfg)
	log.Info(ctx, "starting spraycam simulation",
		logger.String("run_id", stats.RunID),
		logger.Int("visits", cfg.Visits),
		logger.Int("frames", script.Frames),
		logger.Float64("fps", cfg.FPS),
		logger.Duration("expected_duration", time.Duration(float64(script.Frames)/cfg.FPS*float64(time.Second))))

	dbPath := cfg.DBPath
	if dbPath == "" {
		dir, err := os.MkdirTemp("", "spraycam-sim-")
		if err != nil {
			return nil, fmt.Errorf("create temp dir: %w", err)
		}
		defer func() { _ = os.RemoveAll(dir) }()
		dbPath = filepath.Join(dir, "events.db")
	}
	store, err := repository.OpenSQLite(dbPath)
	if err != nil {
		return nil, err
	}

	source := NewScriptedSource(script, cfg.FPS)
	mock := actuator.NewMock(actuator.WithLogger(log.Named("actuator")))
	clips := NewMemoryClips()
	notifier := &MemoryNotifier{}

	svc := service.New(serviceConfig(cfg),
		service.WithFrameSource(source),
		service.WithActuator(mock),
		service.WithClipWriter(clips),
		service.WithNotifier(notifier),
		service.WithEventLog(store),
		service.WithLogger(log.Named("service")),
	)

	mux := http.NewServeMux()
	api.NewServer(svc, store, svc).Register(ctx, mux)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("listen: %w", err)
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: httpTimeout}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "api server failed", logger.Error(err))
		}
	}()
	defer func() {
		shutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), httpTimeout)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()
	client := newHTTPClient("http://"+ln.Addr().String(), httpTimeout)

	if err := svc.Start(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	runErr := waitForScript(ctx, cfg, source, client, log)
	var entries []model.EventRecord
	if runErr == nil {
		entries, runErr = settle(ctx, client)
	}
	if st, err := client.status(ctx); err == nil {
		stats.FramesProcessed = st.FramesProcessed
		stats.FramesSkipped = st.FramesSkipped
		stats.EventsTriggered = st.EventsTriggered
	}
	if today, err := client.today(ctx); err == nil {
		log.Info(ctx, "events recorded today", logger.Int("count", today))
	}

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
	defer cancel()
	if err := svc.Stop(stopCtx); err != nil {
		log.Warn(ctx, "service stopped with errors", logger.Error(err))
	}
	if runErr != nil {
		return stats, runErr
	}

	result := Verify(source.Observed(), entries, tolerance(cfg), minSpacing(cfg))
	stats.FramesEmitted = source.Emitted()
	stats.EventsRecorded = len(entries)
	stats.Activations = mock.Activations()
	stats.ClipsWritten = len(clips.Clips())
	stats.Deliveries = notifier.Count()
	stats.Matched = result.Matched
	stats.Missed = result.Missed
	stats.Unexpected = result.Unexpected
	stats.Overlaps = result.Overlaps
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	if cfg.OutputFile != "" {
		if err := saveReport(cfg.OutputFile, stats); err != nil {
			log.Warn(ctx, "failed to save report", logger.Error(err))
		}
	}
	displayFinalStats(log, stats)

	if err := result.check(); err != nil {
		return stats, err
	}
	if stats.ClipsWritten != stats.EventsRecorded || stats.Activations != int64(stats.EventsRecorded) {
		return stats, fmt.Errorf("%w: events=%d clips=%d activations=%d",
			ErrVerification, stats.EventsRecorded, stats.ClipsWritten, stats.Activations)
	}
	log.Info(ctx, "simulation passed", logger.String("run_id", stats.RunID))
	return stats, nil
}

// serviceConfig derives the service settings from the simulation.
func serviceConfig(cfg *Config) *config.Config {
	c := config.New()
	c.InitialRateEstimate = cfg.FPS
	c.DetectionWindowSeconds = cfg.DetectionWindow.Seconds()
	c.VideoWindowSeconds = cfg.VideoWindow.Seconds()
	c.RateWindowSeconds = 2
	c.EventLeadSeconds = 0
	c.OnPressDuration = cfg.Spray / 3
	c.SprayDuration = cfg.Spray / 3
	c.OffPressDuration = cfg.Spray / 3
	return c
}

// tolerance bounds how far an event start may fall outside its visit.
func tolerance(cfg *Config) time.Duration {
	return cfg.DetectionWindow + time.Duration(2*float64(time.Second)/cfg.FPS)
}

// minSpacing is the shortest expected distance between two triggers.
func minSpacing(cfg *Config) time.Duration {
	return cfg.VideoWindow * 9 / 10
}

// waitForScript blocks until the source has emitted every frame, logging
// progress from /status.
func waitForScript(ctx context.Context, cfg *Config, source *ScriptedSource, client *HTTPClient, log logger.Logger) error {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-source.Done():
			return nil
		case <-ticker.C:
			if !cfg.Verbose {
				continue
			}
			st, err := client.status(ctx)
			if err != nil {
				log.Warn(ctx, "status poll failed", logger.Error(err))
				continue
			}
			log.Info(ctx, "progress",
				logger.String("state", st.State),
				logger.Int("applied_rate", st.AppliedRate),
				logger.Float64("detection_ratio", st.DetectionRatio),
				logger.Uint64("frames", st.FramesProcessed),
				logger.Uint64("events", st.EventsTriggered),
				logger.String("message", st.Message))
		}
	}
}

// settle waits until the loop is idle and every triggered event is visible
// on /events, then returns the recorded events.
func settle(ctx context.Context, client *HTTPClient) ([]model.EventRecord, error) {
	deadline := time.Now().Add(settleTimeout)
	for {
		st, err := client.status(ctx)
		if err != nil {
			return nil, err
		}
		entries, err := client.events(ctx, maxEventsFetched)
		if err != nil {
			return nil, err
		}
		if st.State == model.StateIdle.String() && !st.ActuatorActive && uint64(len(entries)) == st.EventsTriggered {
			return toRecords(entries)
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %d of %d events recorded before timeout",
				ErrVerification, len(entries), st.EventsTriggered)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// saveReport writes stats as indented JSON.
func saveReport(filename string, stats *Stats) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(log logger.Logger, stats *Stats) {
	log.Info(context.Background(), "final statistics",
		logger.Int("visits", stats.Visits),
		logger.Int("framesEmitted", stats.FramesEmitted),
		logger.Uint64("framesProcessed", stats.FramesProcessed),
		logger.Uint64("framesSkipped", stats.FramesSkipped),
		logger.Uint64("eventsTriggered", stats.EventsTriggered),
		logger.Int("eventsRecorded", stats.EventsRecorded),
		logger.Any("activations", stats.Activations),
		logger.Int("clipsWritten", stats.ClipsWritten),
		logger.Int("deliveries", stats.Deliveries),
		logger.Int("matched", stats.Matched),
		logger.Int("missed", stats.Missed),
		logger.Int("unexpected", stats.Unexpected),
		logger.Int("overlaps", stats.Overlaps),
		logger.String("duration", stats.Duration.String()))
}
