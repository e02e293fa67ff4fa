package audio

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/pinchvol/internal/volume"
)

// fakeEndpoint is a dB endpoint like a typical Windows render device.
type fakeEndpoint struct {
	mu       sync.Mutex
	minDB    float64
	maxDB    float64
	level    float64
	writes   []float64
	rangeErr error
	setErr   error
	closed   bool
}

func newFakeEndpoint() *fakeEndpoint {
	return &fakeEndpoint{minDB: -65, maxDB: 0, level: -20}
}

func (f *fakeEndpoint) VolumeRange(ctx context.Context) (float64, float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.minDB, f.maxDB, f.rangeErr
}

func (f *fakeEndpoint) MasterLevel(ctx context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.level, nil
}

func (f *fakeEndpoint) SetMasterLevel(ctx context.Context, db float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.level = db
	f.writes = append(f.writes, db)
	return nil
}

func (f *fakeEndpoint) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func TestEndpointMixer_DecibelRange(t *testing.T) {
	ctx := context.Background()
	ep := newFakeEndpoint()
	m := NewEndpointMixer("core-audio", ep)
	assert.Equal(t, "core-audio", m.Name())

	rng, err := m.Range(ctx)
	require.NoError(t, err)
	assert.Equal(t, volume.Range{Min: -65, Max: 0}, rng)

	level, err := m.Level(ctx)
	require.NoError(t, err)
	assert.Equal(t, -20.0, level)

	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"inside range", -32.5, -32.5},
		{"maximum", 0, 0},
		{"above maximum", 3, 0},
		{"below minimum", -90, -65},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, m.SetLevel(ctx, tt.in))
			got, err := m.Level(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	require.NoError(t, m.Close())
	assert.True(t, ep.closed)
}

func TestEndpointMixer_DrivesMapper(t *testing.T) {
	ctx := context.Background()
	ep := newFakeEndpoint()
	m := NewEndpointMixer("core-audio", ep)

	rng, err := m.Range(ctx)
	require.NoError(t, err)

	// unsmoothed: pinch extremes hit the dB extremes
	direct, err := volume.NewMapper(volume.Config{DistanceMin: 50, DistanceMax: 300, Smoothing: 0}, rng)
	require.NoError(t, err)
	for _, length := range []float64{300, 50} {
		require.NoError(t, m.SetLevel(ctx, direct.Map(length, volume.State{}).Value))
	}
	assert.Equal(t, []float64{0, -65}, ep.writes)

	// halfway pinch, smoothed from the loudest level
	mapper, err := volume.NewMapper(volume.DefaultConfig(), rng)
	require.NoError(t, err)
	lvl := mapper.Map(175, volume.State{Previous: 0, Updates: 1})
	assert.Equal(t, -32.5, lvl.Raw)
	require.NoError(t, m.SetLevel(ctx, lvl.Value))
	assert.InDelta(t, -16.25, ep.writes[2], 1e-9)
}

func TestEndpointMixer_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("range unavailable", func(t *testing.T) {
		ep := newFakeEndpoint()
		ep.rangeErr = errors.New("no render device")
		_, err := NewEndpointMixer("core-audio", ep).Range(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no render device")
	})

	t.Run("empty range", func(t *testing.T) {
		ep := newFakeEndpoint()
		ep.minDB, ep.maxDB = 0, 0
		_, err := NewEndpointMixer("core-audio", ep).Range(ctx)
		assert.ErrorIs(t, err, volume.ErrInvalidRange)
	})

	t.Run("write rejected", func(t *testing.T) {
		ep := newFakeEndpoint()
		ep.setErr = errors.New("access denied")
		err := NewEndpointMixer("core-audio", ep).SetLevel(ctx, -10)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access denied")
	})
}
