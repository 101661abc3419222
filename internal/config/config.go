// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - New() builds a Config with the defaults of a stock deployment.
//   - Load layers a YAML file and SPRAYCAM_* env vars on top of the defaults.
//   - The Config value is read once at startup and passed down; nothing reads it globally.
package config

import (
	"time"

	"github.com/okian/spraycam/internal/domain/model"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP status/metrics listen address; empty disables HTTP.
	Addr string `koanf:"addr"`

	// DemoMode replaces the GPIO actuator with a logging mock.
	DemoMode bool `koanf:"demo_mode"`

	// TriggerRatio is the share of positive frames the detection window must exceed.
	TriggerRatio float64 `koanf:"trigger_ratio"`
	// DetectionWindowSeconds, VideoWindowSeconds and RateWindowSeconds size the windows.
	DetectionWindowSeconds float64 `koanf:"detection_window_seconds"`
	VideoWindowSeconds     float64 `koanf:"video_window_seconds"`
	RateWindowSeconds      float64 `koanf:"rate_window_seconds"`
	// InitialRateEstimate is the rate assumed before any tick was measured.
	InitialRateEstimate float64 `koanf:"initial_rate_estimate"`
	// EventLeadSeconds offsets the clip start relative to the trigger (negative = earlier).
	EventLeadSeconds float64 `koanf:"event_lead_seconds"`
	ActuatorEnabled  bool    `koanf:"actuator_enabled"`
	CaptureEnabled   bool    `koanf:"capture_enabled"`

	// Classifier.
	ModelPath         string  `koanf:"model_path"`
	TargetClassIndex  int     `koanf:"target_class_index"`
	MinConfidence     float64 `koanf:"min_confidence"`
	ClassifierThreads int     `koanf:"classifier_threads"`

	// Camera.
	CameraIndex  int           `koanf:"camera_index"`
	CameraWidth  int           `koanf:"camera_width"`
	CameraHeight int           `koanf:"camera_height"`
	CameraWarmUp time.Duration `koanf:"camera_warm_up"`

	// Actuator.
	ActuatorPin      string        `koanf:"actuator_pin"`
	OnPressDuration  time.Duration `koanf:"on_press_duration"`
	SprayDuration    time.Duration `koanf:"spray_duration"`
	OffPressDuration time.Duration `koanf:"off_press_duration"`

	// Clips.
	ClipDir       string `koanf:"clip_dir"`
	ClipCodec     string `koanf:"clip_codec"`
	ClipExt       string `koanf:"clip_ext"`
	ClipDownscale bool   `koanf:"clip_downscale"`
	ClipTranscode bool   `koanf:"clip_transcode"`
	FFmpegPath    string `koanf:"ffmpeg_path"`
	KeepClips     bool   `koanf:"keep_clips"`

	// Clip upload over SFTP. An empty host disables uploads.
	UploadHost       string `koanf:"upload_host"`
	UploadPort       int    `koanf:"upload_port"`
	UploadUser       string `koanf:"upload_user"`
	UploadPassword   string `koanf:"upload_password"`
	UploadKeyFile    string `koanf:"upload_key_file"`
	UploadKnownHosts string `koanf:"upload_known_hosts"`
	UploadDir        string `koanf:"upload_dir"`
	UploadBaseURL    string `koanf:"upload_base_url"`

	// Notifications via shoutrrr URLs. No URLs disables notifications.
	NotifyURLs         []string      `koanf:"notify_urls"`
	NotifyTitle        string        `koanf:"notify_title"`
	NotifyText         string        `koanf:"notify_text"`
	NotifyFallbackText string        `koanf:"notify_fallback_text"`
	NotifyTimeout      time.Duration `koanf:"notify_timeout"`

	// MQTT event publishing. An empty broker disables it.
	MQTTBroker   string `koanf:"mqtt_broker"`
	MQTTTopic    string `koanf:"mqtt_topic"`
	MQTTClientID string `koanf:"mqtt_client_id"`
	MQTTUsername string `koanf:"mqtt_username"`
	MQTTPassword string `koanf:"mqtt_password"`

	// EventDBPath is the sqlite file events are recorded in.
	EventDBPath string `koanf:"event_db_path"`
	// EventQueueSize bounds the in-memory record queue.
	EventQueueSize int `koanf:"queue_size"`
	// DedupeSize bounds the per-event action guard.
	DedupeSize int `koanf:"dedupe_size"`

	// ShutdownTimeout bounds how long in-flight actions are waited for on exit.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// SentryDSN enables error reporting when set.
	SentryDSN string `koanf:"sentry_dsn"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Addr:      ":9080",

		TriggerRatio:           0.25,
		DetectionWindowSeconds: 1,
		VideoWindowSeconds:     12,
		RateWindowSeconds:      10,
		InitialRateEstimate:    4,
		EventLeadSeconds:       -2,
		ActuatorEnabled:        true,
		CaptureEnabled:         true,

		ModelPath:         "model_files/detect.tflite",
		TargetClassIndex:  16,
		MinConfidence:     0.65,
		ClassifierThreads: 2,

		CameraIndex:  0,
		CameraWidth:  640,
		CameraHeight: 480,
		CameraWarmUp: 2 * time.Second,

		ActuatorPin:      "GPIO18",
		OnPressDuration:  2500 * time.Millisecond,
		SprayDuration:    time.Second,
		OffPressDuration: 500 * time.Millisecond,

		ClipDir:       "video_out",
		ClipCodec:     "mp4v",
		ClipExt:       ".mp4",
		ClipDownscale: true,
		ClipTranscode: true,
		FFmpegPath:    "ffmpeg",

		UploadPort: 22,
		UploadDir:  "clips",

		NotifyTitle:        "spraycam",
		NotifyText:         "The cat is at it again...",
		NotifyFallbackText: "The cat is at it again... but there was an issue with the media upload",
		NotifyTimeout:      10 * time.Second,

		MQTTTopic:    "spraycam/events",
		MQTTClientID: "spraycam",

		EventDBPath:    "spraycam.db",
		EventQueueSize: 128,
		DedupeSize:     1024,

		ShutdownTimeout: 30 * time.Second,
	}
}

// SprayPattern returns the configured actuator press sequence.
func (c *Config) SprayPattern() model.SprayPattern {
	return model.SprayPattern{
		OnPress:  c.OnPressDuration,
		Spray:    c.SprayDuration,
		OffPress: c.OffPressDuration,
	}
}
