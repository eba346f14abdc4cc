// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables, all prefixed with EnvPrefix.
const (
	EnvLogLevel         = EnvPrefix + "LOG_LEVEL"
	EnvLogService       = EnvPrefix + "LOG_SERVICE"
	EnvBundleID         = EnvPrefix + "BUNDLE_ID"
	EnvEdgeSettings     = EnvPrefix + "EDGE_SETTINGS"
	EnvListenAddr       = EnvPrefix + "LISTEN_ADDR"
	EnvReadTimeout      = EnvPrefix + "READ_TIMEOUT"
	EnvWriteTimeout     = EnvPrefix + "WRITE_TIMEOUT"
	EnvShutdownTimeout  = EnvPrefix + "SHUTDOWN_TIMEOUT"
	EnvRateLimitEnabled = EnvPrefix + "RATELIMIT_ENABLED"
	EnvRateLimitRPM     = EnvPrefix + "RATELIMIT_RPM"
	EnvPublishTimeout   = EnvPrefix + "HUB_PUBLISH_TIMEOUT"
	EnvBusBuffer        = EnvPrefix + "BUS_BUFFER"
	EnvTelemetryEnabled = EnvPrefix + "TELEMETRY_ENABLED"
	EnvTelemetryExport  = EnvPrefix + "TELEMETRY_EXPORTER"
	EnvTelemetryURL     = EnvPrefix + "TELEMETRY_ENDPOINT"
	EnvTelemetryEnv     = EnvPrefix + "TELEMETRY_ENVIRONMENT"
	EnvTelemetrySample  = EnvPrefix + "TELEMETRY_SAMPLING_RATE"
)

// Loader handles configuration loading with precedence.
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a new configuration loader. configPath may be empty.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

func (l *Loader) envString(key, def string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, def)
}

func (l *Loader) envBool(key string, def bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, def)
}

func (l *Loader) envInt(key string, def int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, def)
}

func (l *Loader) envDuration(key string, def time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, def)
}

func (l *Loader) envFloat(key string, def float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, def)
}

// Load loads configuration with precedence: ENV > File > Defaults.
// The file is parsed strictly before env overrides are applied and the
// result is validated last.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := mergeFileConfig(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("merge file config: %w", err)
		}
		// Relative edge settings paths are resolved against the config file.
		if cfg.EdgeSettingsPath != "" && !filepath.IsAbs(cfg.EdgeSettingsPath) {
			cfg.EdgeSettingsPath = filepath.Join(filepath.Dir(l.configPath), cfg.EdgeSettingsPath)
		}
	}

	l.mergeEnvConfig(&cfg)
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		LogLevel:   "info",
		LogService: "pushedge",
		Server: ServerConfig{
			ListenAddr:      ":8088",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 600,
		},
		Hub: HubConfig{
			PublishTimeout: 250 * time.Millisecond,
			BusBuffer:      256,
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			Environment:  "production",
			SamplingRate: 1.0,
		},
	}
}

// loadFile loads configuration from a YAML file with STRICT parsing.
// Unknown fields cause an error wrapping ErrUnknownConfigField.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	var fileCfg FileConfig
	if err := decodeStrictYAML(path, &fileCfg); err != nil {
		return nil, err
	}
	return &fileCfg, nil
}

// decodeStrictYAML reads a single YAML document from path into out.
// An empty file leaves out untouched.
func decodeStrictYAML(path string, out any) error {
	path = filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("%w: %s (only YAML supported)", ErrUnsupportedFormat, ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("strict config parse error: %w: %v", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ErrMultipleDocuments
	}
	return nil
}

func mergeFileConfig(cfg *AppConfig, f *FileConfig) error {
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
	if f.LogService != "" {
		cfg.LogService = f.LogService
	}
	if f.BundleID != "" {
		cfg.BundleID = f.BundleID
	}
	if f.EdgeSettingsPath != "" {
		cfg.EdgeSettingsPath = f.EdgeSettingsPath
	}

	if s := f.Server; s != nil {
		if s.ListenAddr != "" {
			cfg.Server.ListenAddr = s.ListenAddr
		}
		if err := mergeDuration(&cfg.Server.ReadTimeout, "server.readTimeout", s.ReadTimeout); err != nil {
			return err
		}
		if err := mergeDuration(&cfg.Server.WriteTimeout, "server.writeTimeout", s.WriteTimeout); err != nil {
			return err
		}
		if err := mergeDuration(&cfg.Server.ShutdownTimeout, "server.shutdownTimeout", s.ShutdownTimeout); err != nil {
			return err
		}
	}

	if r := f.RateLimit; r != nil {
		if r.Enabled != nil {
			cfg.RateLimit.Enabled = *r.Enabled
		}
		if r.RequestsPerMinute != nil {
			cfg.RateLimit.RequestsPerMinute = *r.RequestsPerMinute
		}
	}

	if h := f.Hub; h != nil {
		if err := mergeDuration(&cfg.Hub.PublishTimeout, "hub.publishTimeout", h.PublishTimeout); err != nil {
			return err
		}
		if h.BusBuffer != nil {
			cfg.Hub.BusBuffer = *h.BusBuffer
		}
	}

	if t := f.Telemetry; t != nil {
		if t.Enabled != nil {
			cfg.Telemetry.Enabled = *t.Enabled
		}
		if t.Exporter != "" {
			cfg.Telemetry.Exporter = t.Exporter
		}
		if t.Endpoint != "" {
			cfg.Telemetry.Endpoint = t.Endpoint
		}
		if t.Environment != "" {
			cfg.Telemetry.Environment = t.Environment
		}
		if t.SamplingRate != nil {
			cfg.Telemetry.SamplingRate = *t.SamplingRate
		}
	}
	return nil
}

func mergeDuration(dst *time.Duration, field, raw string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	*dst = d
	return nil
}

func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.LogLevel = l.envString(EnvLogLevel, cfg.LogLevel)
	cfg.LogService = l.envString(EnvLogService, cfg.LogService)
	cfg.BundleID = l.envString(EnvBundleID, cfg.BundleID)
	cfg.EdgeSettingsPath = l.envString(EnvEdgeSettings, cfg.EdgeSettingsPath)

	cfg.Server.ListenAddr = l.envString(EnvListenAddr, cfg.Server.ListenAddr)
	cfg.Server.ReadTimeout = l.envDuration(EnvReadTimeout, cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = l.envDuration(EnvWriteTimeout, cfg.Server.WriteTimeout)
	cfg.Server.ShutdownTimeout = l.envDuration(EnvShutdownTimeout, cfg.Server.ShutdownTimeout)

	cfg.RateLimit.Enabled = l.envBool(EnvRateLimitEnabled, cfg.RateLimit.Enabled)
	cfg.RateLimit.RequestsPerMinute = l.envInt(EnvRateLimitRPM, cfg.RateLimit.RequestsPerMinute)

	cfg.Hub.PublishTimeout = l.envDuration(EnvPublishTimeout, cfg.Hub.PublishTimeout)
	cfg.Hub.BusBuffer = l.envInt(EnvBusBuffer, cfg.Hub.BusBuffer)

	cfg.Telemetry.Enabled = l.envBool(EnvTelemetryEnabled, cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = l.envString(EnvTelemetryExport, cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = l.envString(EnvTelemetryURL, cfg.Telemetry.Endpoint)
	cfg.Telemetry.Environment = l.envString(EnvTelemetryEnv, cfg.Telemetry.Environment)
	cfg.Telemetry.SamplingRate = l.envFloat(EnvTelemetrySample, cfg.Telemetry.SamplingRate)
}
