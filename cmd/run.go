package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/spraycam/internal/adapters/http/api"
	"github.com/okian/spraycam/internal/adapters/http/site"
	"github.com/okian/spraycam/internal/adapters/http/swagger"
	service "github.com/okian/spraycam/internal/app"
	"github.com/okian/spraycam/internal/config"
	"github.com/okian/spraycam/internal/telemetry"
	"github.com/okian/spraycam/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	sentryFlush       = 2 * time.Second
)

func runCommand(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Watch the camera and deter the cat",
		Long:  "Start the camera loop, the actuator and the HTTP status API. This is the default command.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCommandE(cmd, f)
		},
	}
}

func runCommandE(cmd *cobra.Command, f *flags) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(ctx, f)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := setupLogging(cfg); err != nil {
		return err
	}
	return runService(ctx, cfg)
}

// setupLogging initializes the global logger from cfg, falling back to info
// on an invalid level.
func setupLogging(cfg *config.Config) error {
	if err := logger.InitWithFormat(cfg.LogFormat); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(context.Background(), "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return nil
}

// runService wires the adapters, serves HTTP and blocks until ctx ends.
func runService(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	reporter, err := telemetry.Init(cfg.SentryDSN, version)
	if err != nil {
		log.Warn(ctx, "error tracking disabled", logger.Error(err))
		reporter = nil
	}
	if reporter.Enabled() {
		defer reporter.Flush(sentryFlush)
	}

	ad, err := buildAdapters(ctx, cfg)
	if err != nil {
		return err
	}
	opts := ad.options()
	if reporter.Enabled() {
		opts = append(opts, service.WithReporter(reporter))
	}
	opts = append(opts, service.WithLogger(log.Named("service")))

	svc := service.New(cfg, opts...)
	if err := svc.Start(ctx); err != nil {
		ad.close()
		return fmt.Errorf("failed to start service: %w", err)
	}

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	var srv *http.Server
	serveErr := make(chan error, 1)
	if cfg.Addr != "" {
		srv = newHTTPServer(ctx, cfg.Addr, svc)
		go func() {
			log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info(ctx, "shutting down...")
	case err := <-serveErr:
		log.Error(ctx, "HTTP server failed", logger.Error(err))
		runErr = fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()
	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error(ctx, "server shutdown failed", logger.Error(err))
		}
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error(ctx, "service shutdown failed", logger.Error(err))
		runErr = errors.Join(runErr, err)
	}
	log.Info(ctx, "spraycam stopped")
	return runErr
}

// newHTTPServer mounts the API docs, the JSON API and the status page.
func newHTTPServer(ctx context.Context, addr string, svc *service.Service) *http.Server {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc.Events(), svc).Register(ctx, mux)
	site.Register(ctx, mux)

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}
