package audio

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/ayusman/pinchvol/internal/volume"
)

// Endpoint is an output device whose master volume is set in decibels.
type Endpoint interface {
	// VolumeRange returns the device's level range in dB, e.g. [-65.25, 0].
	VolumeRange(ctx context.Context) (minDB, maxDB float64, err error)
	MasterLevel(ctx context.Context) (float64, error)
	SetMasterLevel(ctx context.Context, db float64) error
	Close() error
}

// EndpointMixer implements Mixer on top of an Endpoint. Levels are passed
// through in the endpoint's native dB scale.
type EndpointMixer struct {
	name     string
	endpoint Endpoint

	mu       sync.Mutex
	rng      volume.Range
	hasRange bool
}

// NewEndpointMixer wraps ep. name identifies the backend in logs.
func NewEndpointMixer(name string, ep Endpoint) *EndpointMixer {
	return &EndpointMixer{name: name, endpoint: ep}
}

// Name returns the backend name.
func (m *EndpointMixer) Name() string {
	return m.name
}

// Range queries the endpoint's dB range.
func (m *EndpointMixer) Range(ctx context.Context) (volume.Range, error) {
	minDB, maxDB, err := m.endpoint.VolumeRange(ctx)
	if err != nil {
		return volume.Range{}, fmt.Errorf("%s mixer unavailable: %w", m.name, err)
	}

	rng := volume.Range{Min: minDB, Max: maxDB}
	if err := rng.Validate(); err != nil {
		return volume.Range{}, err
	}

	m.mu.Lock()
	m.rng = rng
	m.hasRange = true
	m.mu.Unlock()
	return rng, nil
}

// Level returns the current master level in dB.
func (m *EndpointMixer) Level(ctx context.Context) (float64, error) {
	return m.endpoint.MasterLevel(ctx)
}

// SetLevel writes level in dB, clamped to the last queried range.
func (m *EndpointMixer) SetLevel(ctx context.Context, level float64) error {
	m.mu.Lock()
	if m.hasRange {
		level = math.Max(m.rng.Min, math.Min(m.rng.Max, level))
	}
	m.mu.Unlock()

	if err := m.endpoint.SetMasterLevel(ctx, level); err != nil {
		return fmt.Errorf("%s: set level %.2f dB: %w", m.name, level, err)
	}
	return nil
}

// Close releases the endpoint.
func (m *EndpointMixer) Close() error {
	return m.endpoint.Close()
}
