// Package app runs the pinch-to-volume control loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ayusman/pinchvol/internal/audio"
	"github.com/ayusman/pinchvol/internal/capture"
	"github.com/ayusman/pinchvol/internal/config"
	"github.com/ayusman/pinchvol/internal/detector"
	"github.com/ayusman/pinchvol/internal/render"
	"github.com/ayusman/pinchvol/internal/volume"
)

// State is the lifecycle phase of an App.
type State int

const (
	StateStarting State = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrNotStarted is returned by Run when Start has not succeeded.
var ErrNotStarted = errors.New("app not started")

// Deps are the components the App drives. All but Tuning are required.
type Deps struct {
	Camera   capture.Camera
	Detector detector.Detector
	Mixer    audio.Mixer
	Display  render.Display

	// Tuning delivers new mapping parameters while running.
	Tuning <-chan volume.Config

	Logger zerolog.Logger
}

// App is the main application that turns pinch gestures into volume changes.
type App struct {
	config   config.Config
	camera   capture.Camera
	detector detector.Detector
	mixer    audio.Mixer
	display  render.Display
	tuning   <-chan volume.Config
	overlay  *render.Overlay
	quitKey  int
	runID    string
	logger   zerolog.Logger

	mapper *volume.Mapper
	level  volume.State

	mu    sync.RWMutex
	state State

	closeOnce sync.Once
	closeErr  error
}

// New creates an App in the Starting state.
func New(cfg config.Config, deps Deps) (*App, error) {
	switch {
	case deps.Camera == nil:
		return nil, errors.New("app: camera is required")
	case deps.Detector == nil:
		return nil, errors.New("app: detector is required")
	case deps.Mixer == nil:
		return nil, errors.New("app: mixer is required")
	case deps.Display == nil:
		return nil, errors.New("app: display is required")
	}

	overlay, err := render.NewOverlay(cfg.BarTop, cfg.BarBottom)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	return &App{
		config:   cfg,
		camera:   deps.Camera,
		detector: deps.Detector,
		mixer:    deps.Mixer,
		display:  deps.Display,
		tuning:   deps.Tuning,
		overlay:  overlay,
		quitKey:  cfg.QuitKeyCode(),
		runID:    runID,
		logger:   deps.Logger.With().Str("run_id", runID).Logger(),
		state:    StateStarting,
	}, nil
}

// RunID identifies this run in the logs.
func (a *App) RunID() string {
	return a.runID
}

// State returns the current lifecycle state.
func (a *App) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Level returns the volume state carried between frames.
func (a *App) Level() volume.State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.level
}

func (a *App) setState(s State) {
	a.mu.Lock()
	prev := a.state
	a.state = s
	a.mu.Unlock()

	if prev != s {
		a.logger.Debug().Stringer("from", prev).Stringer("to", s).Msg("state changed")
	}
}

// Start queries the device range, builds the mapper and opens the camera at
// the configured frame rate.
// Any error is fatal; the caller must still call Close.
func (a *App) Start(ctx context.Context) error {
	rng, err := a.mixer.Range(ctx)
	if err != nil {
		return fmt.Errorf("query volume range: %w", err)
	}

	mapper, err := volume.NewMapper(a.config.VolumeConfig(), rng)
	if err != nil {
		return err
	}
	a.mapper = mapper

	a.logger.Info().
		Float64("min", rng.Min).
		Float64("max", rng.Max).
		Msg("volume range")

	a.camera.SetFPS(a.config.FPS)
	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}

	a.logger.Info().
		Int("camera", a.config.CameraID).
		Int("fps", a.camera.FPS()).
		Float64("distance_min", mapper.Config().DistanceMin).
		Float64("distance_max", mapper.Config().DistanceMax).
		Float64("smoothing", mapper.Config().Smoothing).
		Msg("started")
	return nil
}

// Close releases the camera, detector, mixer and display. Only the first
// call does any work; later calls return the same result.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		a.setState(StateStopping)

		var errs []error
		if err := a.camera.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close camera: %w", err))
		}
		if err := a.detector.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close detector: %w", err))
		}
		if err := a.mixer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close mixer: %w", err))
		}
		if err := a.display.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close display: %w", err))
		}
		a.closeErr = errors.Join(errs...)

		a.setState(StateStopped)
		if a.closeErr != nil {
			a.logger.Warn().Err(a.closeErr).Msg("release failed")
		}
		a.logger.Info().Int("updates", a.Level().Updates).Msg("stopped")
	})
	return a.closeErr
}
