// Package audio controls the system master volume.
package audio

import (
	"context"
	"errors"
	"time"

	"github.com/ayusman/pinchvol/internal/volume"
)

// ErrUnsupportedPlatform is returned when no system mixer exists for the
// running OS. A plugin mixer can be configured instead.
var ErrUnsupportedPlatform = errors.New("no system mixer for this platform")

// Mixer sets and queries the master volume in the device's native units.
type Mixer interface {
	// Range returns the native volume range. It fails if the endpoint is
	// not reachable.
	Range(ctx context.Context) (volume.Range, error)

	// Level returns the current master volume.
	Level(ctx context.Context) (float64, error)

	// SetLevel sets the master volume. level is within Range.
	SetLevel(ctx context.Context, level float64) error

	// Close releases the endpoint.
	Close() error
}

// SystemMixer is the native mixer of the running OS.
type SystemMixer interface {
	Mixer

	// Name identifies the backend in logs.
	Name() string
}

// NewSystemMixer returns the native mixer for the running OS: Core Audio on
// Windows, osascript on macOS and pactl on Linux. timeout bounds each call.
func NewSystemMixer(timeout time.Duration) (SystemMixer, error) {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return newSystemMixer(timeout)
}
