// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads the daemon configuration (ENV > YAML file > defaults)
// and watches the edge settings file whose contents become the
// configuration shared state.
package config
