package main

import (
	"context"
	"fmt"

	"github.com/okian/spraycam/internal/adapters/actuator"
	"github.com/okian/spraycam/internal/adapters/camera"
	"github.com/okian/spraycam/internal/adapters/classifier"
	"github.com/okian/spraycam/internal/adapters/dispatch"
	"github.com/okian/spraycam/internal/adapters/notify"
	"github.com/okian/spraycam/internal/adapters/repository"
	service "github.com/okian/spraycam/internal/app"
	"github.com/okian/spraycam/internal/config"
	"github.com/okian/spraycam/pkg/logger"
)

// adapters holds everything the service is wired to. Optional parts are nil
// when not configured.
type adapters struct {
	source    *camera.Source
	actuator  dispatch.Actuator
	clips     *camera.ClipWriter
	notifier  *notify.ClipNotifier
	publisher *notify.MQTTPublisher
	store     *repository.SQLiteStore
}

// buildAdapters opens the devices and remote integrations described by cfg.
// On error everything opened so far is closed.
func buildAdapters(ctx context.Context, cfg *config.Config) (*adapters, error) {
	log := logger.Get()
	a := &adapters{}
	fail := func(err error) (*adapters, error) {
		a.close()
		return nil, err
	}

	var err error
	if a.store, err = repository.OpenSQLite(cfg.EventDBPath); err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}

	clf, err := classifier.Open(cfg.ModelPath,
		classifier.WithTargetClass(cfg.TargetClassIndex),
		classifier.WithMinConfidence(cfg.MinConfidence),
		classifier.WithThreads(cfg.ClassifierThreads),
		classifier.WithLogger(log.Named("classifier")),
	)
	if err != nil {
		return fail(err)
	}
	cam, err := camera.OpenWebcam(ctx, cfg.CameraIndex, cfg.CameraWidth, cfg.CameraHeight, cfg.CameraWarmUp)
	if err != nil {
		_ = clf.Close()
		return fail(err)
	}
	a.source = camera.NewSource(cam, clf)

	if cfg.ActuatorEnabled {
		if cfg.DemoMode {
			a.actuator = actuator.NewMock(actuator.WithLogger(log.Named("actuator")))
		} else {
			gpio, err := actuator.OpenGPIO(cfg.ActuatorPin, actuator.WithLogger(log.Named("actuator")))
			if err != nil {
				return fail(err)
			}
			a.actuator = gpio
		}
	}

	if cfg.CaptureEnabled {
		if a.clips, err = camera.NewClipWriter(cfg.ClipDir,
			camera.WithCodec(cfg.ClipCodec, cfg.ClipExt),
			camera.WithDownscale(cfg.ClipDownscale),
			camera.WithTranscode(cfg.ClipTranscode, cfg.FFmpegPath),
			camera.WithClipLogger(log.Named("clips")),
		); err != nil {
			return fail(err)
		}
		if a.notifier, err = buildNotifier(cfg, log); err != nil {
			return fail(err)
		}
	}

	if cfg.MQTTBroker != "" {
		if a.publisher, err = notify.NewMQTTPublisher(ctx, notify.MQTTConfig{
			Broker:   cfg.MQTTBroker,
			Topic:    cfg.MQTTTopic,
			ClientID: cfg.MQTTClientID,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
		}); err != nil {
			return fail(err)
		}
	}
	return a, nil
}

// buildNotifier returns nil when no notification channel is configured.
func buildNotifier(cfg *config.Config, log logger.Logger) (*notify.ClipNotifier, error) {
	if len(cfg.NotifyURLs) == 0 {
		return nil, nil
	}
	sender, err := notify.NewShoutrrrSender(cfg.NotifyURLs, cfg.NotifyTimeout)
	if err != nil {
		return nil, err
	}

	var uploader notify.Uploader
	if cfg.UploadHost != "" {
		up, err := notify.NewSFTPUploader(notify.SFTPConfig{
			Host:       cfg.UploadHost,
			Port:       cfg.UploadPort,
			User:       cfg.UploadUser,
			Password:   cfg.UploadPassword,
			KeyFile:    cfg.UploadKeyFile,
			KnownHosts: cfg.UploadKnownHosts,
			Dir:        cfg.UploadDir,
			BaseURL:    cfg.UploadBaseURL,
		})
		if err != nil {
			return nil, err
		}
		uploader = up
	}

	return notify.NewClipNotifier(uploader, sender,
		notify.WithTitle(cfg.NotifyTitle),
		notify.WithText(cfg.NotifyText),
		notify.WithFallbackText(cfg.NotifyFallbackText),
		notify.WithLogger(log.Named("notify")),
	), nil
}

// options converts the configured adapters into service options.
func (a *adapters) options() []service.Option {
	opts := []service.Option{
		service.WithFrameSource(a.source),
		service.WithEventLog(a.store),
	}
	if a.actuator != nil {
		opts = append(opts, service.WithActuator(a.actuator))
	}
	if a.clips != nil {
		opts = append(opts, service.WithClipWriter(a.clips))
	}
	if a.notifier != nil {
		opts = append(opts, service.WithNotifier(a.notifier))
	}
	if a.publisher != nil {
		opts = append(opts, service.WithPublisher(a.publisher))
	}
	return opts
}

// close releases adapters that were never handed to a running service.
func (a *adapters) close() {
	if a.source != nil {
		_ = a.source.Close()
	}
	if c, ok := a.actuator.(interface{ Close() error }); ok {
		_ = c.Close()
	}
	if a.publisher != nil {
		_ = a.publisher.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
}
