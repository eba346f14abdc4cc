// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaultsNeedBundleID(t *testing.T) {
	_, err := NewLoader("", "test").Load()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "bundleId is required")
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "pushedge.yaml", `
logLevel: debug
bundleId: com.example.file
edgeSettings: edge.yaml
server:
  listenAddr: ":9000"
  shutdownTimeout: 3s
rateLimit:
  enabled: false
hub:
  busBuffer: 32
telemetry:
  samplingRate: 0.5
`)
	t.Setenv(EnvBundleID, "com.example.env")
	t.Setenv(EnvBusBuffer, "64")

	l := NewLoader(path, "v1.2.3")
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, "v1.2.3", cfg.Version)
	assert.Equal(t, "debug", cfg.LogLevel, "file overrides default")
	assert.Equal(t, "com.example.env", cfg.BundleID, "env overrides file")
	assert.Equal(t, 64, cfg.Hub.BusBuffer)
	assert.Equal(t, ":9000", cfg.Server.ListenAddr)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout, "default kept")
	assert.False(t, cfg.RateLimit.Enabled)
	assert.InDelta(t, 0.5, cfg.Telemetry.SamplingRate, 1e-9)
	assert.Equal(t, filepath.Join(dir, "edge.yaml"), cfg.EdgeSettingsPath)

	assert.Contains(t, l.ConsumedEnvKeys, EnvBundleID)
	assert.Contains(t, l.ConsumedEnvKeys, EnvTelemetrySample)
}

func TestLoadStrictRejectsUnknownFields(t *testing.T) {
	path := writeFile(t, t.TempDir(), "pushedge.yaml", "bundleId: x\nbundelId: typo\n")
	_, err := NewLoader(path, "").Load()
	require.ErrorIs(t, err, ErrUnknownConfigField)
}

func TestLoadRejectsMultipleDocuments(t *testing.T) {
	path := writeFile(t, t.TempDir(), "pushedge.yaml", "bundleId: a\n---\nbundleId: b\n")
	_, err := NewLoader(path, "").Load()
	require.ErrorIs(t, err, ErrMultipleDocuments)
}

func TestLoadRejectsNonYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "pushedge.json", `{"bundleId":"x"}`)
	_, err := NewLoader(path, "").Load()
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadEmptyFileUsesDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "pushedge.yaml", "")
	t.Setenv(EnvBundleID, "com.example.app")
	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults().Server, cfg.Server)
}

func TestLoadBadDuration(t *testing.T) {
	path := writeFile(t, t.TempDir(), "pushedge.yaml", "bundleId: x\nhub:\n  publishTimeout: fast\n")
	_, err := NewLoader(path, "").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hub.publishTimeout")
}

func TestValidate(t *testing.T) {
	valid := Defaults()
	valid.BundleID = "com.example.app"
	require.NoError(t, Validate(valid))

	tests := []struct {
		name   string
		mutate func(c *AppConfig)
		want   string
	}{
		{"bad level", func(c *AppConfig) { c.LogLevel = "loud" }, "logLevel"},
		{"bad listen addr", func(c *AppConfig) { c.Server.ListenAddr = "8088" }, "server.listenAddr"},
		{"zero timeout", func(c *AppConfig) { c.Server.ReadTimeout = 0 }, "server timeouts"},
		{"rate limit", func(c *AppConfig) { c.RateLimit.RequestsPerMinute = 0 }, "requestsPerMinute"},
		{"bus buffer", func(c *AppConfig) { c.Hub.BusBuffer = 0 }, "hub.busBuffer"},
		{"exporter", func(c *AppConfig) { c.Telemetry.Enabled = true; c.Telemetry.Exporter = "zipkin" }, "telemetry.exporter"},
		{"sampling", func(c *AppConfig) { c.Telemetry.SamplingRate = 2 }, "telemetry.samplingRate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := Validate(cfg)
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
