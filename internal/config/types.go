// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// AppConfig is the resolved daemon configuration.
type AppConfig struct {
	Version string

	LogLevel   string
	LogService string

	// BundleID is the bundle identifier reported for the host application.
	BundleID string
	// EdgeSettingsPath points at the YAML file published as configuration state.
	EdgeSettingsPath string

	Server    ServerConfig
	RateLimit RateLimitConfig
	Hub       HubConfig
	Telemetry TelemetryConfig
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	ListenAddr      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// RateLimitConfig controls per-client request limiting on the ingest API.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
}

// HubConfig tunes the event hub and the outbound bus.
type HubConfig struct {
	PublishTimeout time.Duration
	BusBuffer      int
}

// TelemetryConfig controls OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool
	Exporter     string
	Endpoint     string
	Environment  string
	SamplingRate float64
}

// FileConfig is the on-disk YAML layout. Pointers distinguish "unset" from
// zero values so that file values only override what they name.
type FileConfig struct {
	LogLevel         string               `yaml:"logLevel,omitempty"`
	LogService       string               `yaml:"logService,omitempty"`
	BundleID         string               `yaml:"bundleId,omitempty"`
	EdgeSettingsPath string               `yaml:"edgeSettings,omitempty"`
	Server           *ServerFileConfig    `yaml:"server,omitempty"`
	RateLimit        *RateLimitFileConfig `yaml:"rateLimit,omitempty"`
	Hub              *HubFileConfig       `yaml:"hub,omitempty"`
	Telemetry        *TelemetryFileConfig `yaml:"telemetry,omitempty"`
}

// ServerFileConfig mirrors ServerConfig in YAML.
type ServerFileConfig struct {
	ListenAddr      string `yaml:"listenAddr,omitempty"`
	ReadTimeout     string `yaml:"readTimeout,omitempty"`
	WriteTimeout    string `yaml:"writeTimeout,omitempty"`
	ShutdownTimeout string `yaml:"shutdownTimeout,omitempty"`
}

// RateLimitFileConfig mirrors RateLimitConfig in YAML.
type RateLimitFileConfig struct {
	Enabled           *bool `yaml:"enabled,omitempty"`
	RequestsPerMinute *int  `yaml:"requestsPerMinute,omitempty"`
}

// HubFileConfig mirrors HubConfig in YAML.
type HubFileConfig struct {
	PublishTimeout string `yaml:"publishTimeout,omitempty"`
	BusBuffer      *int   `yaml:"busBuffer,omitempty"`
}

// TelemetryFileConfig mirrors TelemetryConfig in YAML.
type TelemetryFileConfig struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	Exporter     string   `yaml:"exporter,omitempty"`
	Endpoint     string   `yaml:"endpoint,omitempty"`
	Environment  string   `yaml:"environment,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty"`
}
