package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override, e.g. SPRAYCAM_TRIGGER_RATIO.
const EnvPrefix = "SPRAYCAM_"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if SPRAYCAM_CONFIG is set
//  3. env (prefix SPRAYCAM_)
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, os.Getenv(EnvPrefix+"CONFIG"))
}

// LoadFrom is Load with an explicit file path; an empty path skips the file layer.
func LoadFrom(_ context.Context, path string) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// Map env keys like SPRAYCAM_TRIGGER_RATIO -> trigger_ratio (flat keys).
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges. Errors wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}
	switch {
	case c.TriggerRatio <= 0 || c.TriggerRatio > 1:
		return invalid("trigger_ratio must be in (0, 1], got %v", c.TriggerRatio)
	case c.DetectionWindowSeconds <= 0:
		return invalid("detection_window_seconds must be positive")
	case c.VideoWindowSeconds <= 0:
		return invalid("video_window_seconds must be positive")
	case c.RateWindowSeconds <= 0:
		return invalid("rate_window_seconds must be positive")
	case c.InitialRateEstimate <= 0:
		return invalid("initial_rate_estimate must be positive")
	case c.MinConfidence < 0 || c.MinConfidence > 1:
		return invalid("min_confidence must be in [0, 1], got %v", c.MinConfidence)
	case c.OnPressDuration < 0 || c.SprayDuration < 0 || c.OffPressDuration < 0:
		return invalid("spray pattern durations must not be negative")
	case c.CameraWarmUp < 0 || c.NotifyTimeout < 0 || c.ShutdownTimeout < 0:
		return invalid("durations must not be negative")
	case c.EventQueueSize <= 0:
		return invalid("queue_size must be positive")
	case c.ClassifierThreads <= 0:
		return invalid("classifier_threads must be positive")
	case c.UploadHost != "" && c.UploadBaseURL == "":
		return invalid("upload_base_url is required when upload_host is set")
	}
	return nil
}
