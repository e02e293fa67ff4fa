package app

import (
	"context"
	"errors"

	"gocv.io/x/gocv"

	"github.com/ayusman/pinchvol/internal/capture"
	"github.com/ayusman/pinchvol/internal/gesture"
	"github.com/ayusman/pinchvol/internal/volume"
)

// PollDelayMs is how long each iteration waits for a key press.
const PollDelayMs = 1

// Run is the main loop. Each iteration:
//  1. stops if ctx is done
//  2. applies pending mapping changes
//  3. reads a frame; a missing frame ends the run
//  4. detects, measures and actuates (processFrame)
//  5. shows the frame and stops on the quit key
//
// Run returns nil for all three normal exits. Resources are released by Close.
func (a *App) Run(ctx context.Context) error {
	if a.mapper == nil {
		return ErrNotStarted
	}

	a.setState(StateRunning)
	defer a.setState(StateStopping)

	st := a.Level()
	for {
		select {
		case <-ctx.Done():
			a.logger.Info().Msg("interrupted")
			return nil
		default:
		}

		a.applyTuning()

		frame, err := a.camera.ReadFrame()
		if err != nil {
			if errors.Is(err, capture.ErrNoFrame) {
				a.logger.Info().Err(err).Msg("end of stream")
				return nil
			}
			return err
		}

		st = a.processFrame(ctx, frame, st)
		a.storeLevel(st)

		if err := a.display.Show(frame); err != nil {
			a.logger.Warn().Err(err).Msg("show frame")
		}
		frame.Close()

		if key := a.display.PollKey(PollDelayMs); key == a.quitKey {
			a.logger.Info().Msg("quit requested")
			return nil
		}
	}
}

// processFrame detects the hand, draws it, maps the pinch to a level and
// applies it. The returned state only advances when the mixer accepted the
// level.
func (a *App) processFrame(ctx context.Context, frame *gocv.Mat, st volume.State) volume.State {
	hands, err := a.detector.Detect(frame)
	if err != nil {
		a.logger.Warn().Err(err).Msg("detect hands")
		return st
	}

	for i := range hands {
		a.overlay.DrawHand(frame, hands[i])
	}

	pinch, err := gesture.Extract(hands, frame.Cols(), frame.Rows())
	if err != nil {
		a.logger.Debug().Err(err).Msg("no pinch")
		return st
	}
	a.overlay.DrawPinch(frame, pinch)

	level := a.mapper.Map(pinch.Length, st)
	if err := a.mixer.SetLevel(ctx, level.Value); err != nil {
		a.logger.Warn().Err(err).Float64("level", level.Value).Msg("set volume")
		return st
	}

	a.overlay.DrawLevel(frame, level.Percent, pinch.Length)
	return st.Commit(level)
}

// applyTuning swaps in a new mapper if the watcher published one. The
// volume state is kept.
func (a *App) applyTuning() {
	if a.tuning == nil {
		return
	}

	select {
	case vc := <-a.tuning:
		mapper, err := volume.NewMapper(vc, a.mapper.Range())
		if err != nil {
			a.logger.Warn().Err(err).Msg("ignoring mapping update")
			return
		}
		a.mapper = mapper
		a.logger.Info().
			Float64("distance_min", vc.DistanceMin).
			Float64("distance_max", vc.DistanceMax).
			Float64("smoothing", vc.Smoothing).
			Msg("mapping applied")
	default:
	}
}

func (a *App) storeLevel(st volume.State) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.level = st
}
