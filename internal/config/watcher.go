// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/ManuGH/pushedge/internal/event"
	plog "github.com/ManuGH/pushedge/internal/log"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce coalesces bursts of file events into one reload.
const DefaultDebounce = 500 * time.Millisecond

// ConfigurationResponseName names the event dispatched after each publication.
const ConfigurationResponseName = "Configuration response"

// ErrNoEdgeSettings is returned by Run when no settings path is configured.
var ErrNoEdgeSettings = errors.New("edge settings path is empty")

// StatePublisher is the part of the event hub the watcher drives.
type StatePublisher interface {
	PublishState(owner string, data map[string]any) (uint64, error)
	Dispatch(ctx context.Context, ev event.Event) event.Event
}

// WatcherOption configures an EdgeWatcher.
type WatcherOption func(*EdgeWatcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *EdgeWatcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// EdgeWatcher republishes the edge settings file as configuration shared
// state, followed by a configuration response event, on every change.
type EdgeWatcher struct {
	path     string
	pub      StatePublisher
	debounce time.Duration
	logger   zerolog.Logger

	writeMu sync.Mutex

	mu       sync.RWMutex
	current  EdgeSettings
	loaded   bool
	reloads  int
	watching bool
}

// NewEdgeWatcher creates a watcher for path publishing through pub.
func NewEdgeWatcher(path string, pub StatePublisher, opts ...WatcherOption) *EdgeWatcher {
	w := &EdgeWatcher{
		path:     filepath.Clean(path),
		pub:      pub,
		debounce: DefaultDebounce,
		logger:   plog.WithComponent("config"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Current returns the last successfully published settings.
func (w *EdgeWatcher) Current() (EdgeSettings, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current, w.loaded
}

// Reloads returns the number of successful publications.
func (w *EdgeWatcher) Reloads() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.reloads
}

// Watching reports whether Run is watching the settings file.
func (w *EdgeWatcher) Watching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.watching
}

func (w *EdgeWatcher) setWatching(v bool) {
	w.mu.Lock()
	w.watching = v
	w.mu.Unlock()
}

// Reload loads the settings file and publishes it. On failure the previous
// publication stays in effect.
func (w *EdgeWatcher) Reload(ctx context.Context) error {
	settings, err := LoadEdgeSettings(w.path)
	if err != nil {
		w.logger.Error().Err(err).
			Str(plog.FieldEvent, "config.edge_reload_failed").
			Str(plog.FieldPath, w.path).
			Msg("edge settings reload failed, keeping previous state")
		return fmt.Errorf("load edge settings: %w", err)
	}

	state := settings.State()
	version, err := w.pub.PublishState(event.StateConfiguration, state)
	if err != nil {
		w.logger.Error().Err(err).
			Str(plog.FieldEvent, "config.edge_publish_failed").
			Str(plog.FieldPath, w.path).
			Msg("edge settings loaded but configuration state not published")
		return fmt.Errorf("publish configuration state: %w", err)
	}
	resp := w.pub.Dispatch(ctx, event.New(ConfigurationResponseName,
		event.TypeConfiguration, event.SourceResponseContent, settings.State()))

	w.mu.Lock()
	w.current = settings
	w.loaded = true
	w.reloads++
	w.mu.Unlock()

	w.logger.Info().
		Str(plog.FieldEvent, "config.edge_published").
		Str(plog.FieldPath, w.path).
		Uint64("state_version", version).
		Str(plog.FieldEventID, resp.ID).
		Str("privacy", settings.Privacy).
		Msg("edge settings published")
	return nil
}

// SetPrivacy persists status as the privacy value of the settings file and
// republishes the result. Other keys in the file are preserved; a missing
// file is created. It returns the published configuration state.
func (w *EdgeWatcher) SetPrivacy(ctx context.Context, status string) (map[string]any, error) {
	if w.path == "" || w.path == "." {
		return nil, ErrNoEdgeSettings
	}
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	settings, err := LoadEdgeSettings(w.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load edge settings: %w", err)
	}
	settings.Privacy = status
	if err := SaveEdgeSettings(w.path, settings); err != nil {
		return nil, err
	}
	w.logger.Info().
		Str(plog.FieldEvent, "config.edge_privacy_written").
		Str(plog.FieldPath, w.path).
		Str("privacy", status).
		Msg("privacy written to edge settings")

	if err := w.Reload(ctx); err != nil {
		return nil, err
	}
	return settings.State(), nil
}

// Run publishes the settings once and then republishes them whenever the
// file changes, until ctx is cancelled. The initial load error is returned.
func (w *EdgeWatcher) Run(ctx context.Context) error {
	if w.path == "" || w.path == "." {
		return ErrNoEdgeSettings
	}
	if err := w.Reload(ctx); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Editors replace files through renames; watching the directory survives that.
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch edge settings: %w", err)
	}
	w.setWatching(true)
	defer w.setWatching(false)
	w.logger.Info().
		Str(plog.FieldEvent, "config.watcher_started").
		Str(plog.FieldPath, w.path).
		Msg("watching edge settings for changes")

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Str(plog.FieldEvent, "config.watcher_stopped").Msg("edge settings watcher stopped")
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				w.logger.Debug().
					Str(plog.FieldEvent, "config.file_changed").
					Str("op", ev.Op.String()).
					Msg("edge settings changed")
				debounce = time.After(w.debounce)
			}

		case <-debounce:
			debounce = nil
			_ = w.Reload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).
				Str(plog.FieldEvent, "config.watcher_error").
				Msg("edge settings watcher error")
		}
	}
}
