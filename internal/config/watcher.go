package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/ayusman/pinchvol/internal/volume"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 100 * time.Millisecond

// Watcher monitors the config file and publishes the mapping parameters
// whenever it changes. Only the volume mapping is live-tunable; other
// settings need a restart.
type Watcher struct {
	path     string
	flags    volume.Config
	changed  map[string]bool
	debounce time.Duration
	logger   zerolog.Logger

	fsw     *fsnotify.Watcher
	updates chan volume.Config

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher starts watching the directory of path. base is the effective
// configuration at startup and changed holds the flags given on the command
// line. Each reload starts again from the defaults, so removing a key from
// the file restores its default or PINCHVOL_* value; flag values always win.
func NewWatcher(path string, base Config, changed map[string]bool, logger zerolog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	return &Watcher{
		path:     path,
		flags:    base.VolumeConfig(),
		changed:  changed,
		debounce: DefaultDebounce,
		logger:   logger.With().Str("component", "config-watcher").Logger(),
		fsw:      fsw,
		updates:  make(chan volume.Config, 1),
	}, nil
}

// Updates delivers validated mapping parameters. Only the latest pending
// value is kept.
func (w *Watcher) Updates() <-chan volume.Config {
	return w.updates
}

// Run processes file events until ctx is done. It closes the underlying
// fsnotify watcher on return.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fsw.Close()
	defer w.stopTimer()

	name := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.schedule()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("watch error")
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *Watcher) reload() {
	vc, err := w.load()
	if err != nil {
		w.logger.Warn().Err(err).Str("path", w.path).Msg("ignoring config change")
		return
	}

	w.publish(vc)
	w.logger.Info().
		Float64("distance_min", vc.DistanceMin).
		Float64("distance_max", vc.DistanceMax).
		Float64("smoothing", vc.Smoothing).
		Msg("mapping updated")
}

func (w *Watcher) load() (volume.Config, error) {
	fc, err := LoadFileConfig(w.path)
	if err != nil {
		return volume.Config{}, err
	}

	cfg := DefaultConfig()
	if err := ApplyFileConfig(&cfg, fc, w.changed); err != nil {
		return volume.Config{}, err
	}
	if err := ApplyEnvConfig(&cfg, w.changed); err != nil {
		return volume.Config{}, err
	}

	vc := cfg.VolumeConfig()
	if w.changed["distance-min"] {
		vc.DistanceMin = w.flags.DistanceMin
	}
	if w.changed["distance-max"] {
		vc.DistanceMax = w.flags.DistanceMax
	}
	if w.changed["smoothing"] {
		vc.Smoothing = w.flags.Smoothing
	}
	if err := vc.Validate(); err != nil {
		return volume.Config{}, err
	}
	return vc, nil
}

func (w *Watcher) publish(vc volume.Config) {
	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case <-w.updates:
	default:
	}
	w.updates <- vc
}
