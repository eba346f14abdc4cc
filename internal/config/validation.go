// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"
	"net"

	"github.com/rs/zerolog"
)

// Validate checks cfg and returns every problem found, joined and wrapping
// ErrInvalidConfig.
func Validate(cfg AppConfig) error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		add("logLevel %q: %v", cfg.LogLevel, err)
	}
	if cfg.BundleID == "" {
		add("bundleId is required")
	}
	if _, _, err := net.SplitHostPort(cfg.Server.ListenAddr); err != nil {
		add("server.listenAddr %q: %v", cfg.Server.ListenAddr, err)
	}
	if cfg.Server.ReadTimeout <= 0 || cfg.Server.WriteTimeout <= 0 || cfg.Server.ShutdownTimeout <= 0 {
		add("server timeouts must be positive")
	}
	if cfg.RateLimit.Enabled && cfg.RateLimit.RequestsPerMinute <= 0 {
		add("rateLimit.requestsPerMinute must be positive when rate limiting is enabled")
	}
	if cfg.Hub.PublishTimeout <= 0 {
		add("hub.publishTimeout must be positive")
	}
	if cfg.Hub.BusBuffer <= 0 {
		add("hub.busBuffer must be positive")
	}
	if cfg.Telemetry.Enabled {
		switch cfg.Telemetry.Exporter {
		case "grpc", "http":
		default:
			add("telemetry.exporter %q: must be grpc or http", cfg.Telemetry.Exporter)
		}
		if cfg.Telemetry.Endpoint == "" {
			add("telemetry.endpoint is required when telemetry is enabled")
		}
	}
	if cfg.Telemetry.SamplingRate < 0 || cfg.Telemetry.SamplingRate > 1 {
		add("telemetry.samplingRate %v: must be within [0, 1]", cfg.Telemetry.SamplingRate)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
