package audio

import (
	"context"
	"sync"

	"github.com/ayusman/pinchvol/internal/volume"
)

// MockMixer is an in-memory Mixer for tests.
type MockMixer struct {
	mu       sync.Mutex
	rng      volume.Range
	level    float64
	writes   []float64
	rangeErr error
	setErr   error
	closed   int
}

// NewMockMixer creates a MockMixer with the given range.
func NewMockMixer(rng volume.Range) *MockMixer {
	return &MockMixer{rng: rng, level: rng.Max}
}

// SetRangeError makes Range fail with err.
func (m *MockMixer) SetRangeError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rangeErr = err
}

// SetWriteError makes SetLevel fail with err until cleared with nil.
func (m *MockMixer) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setErr = err
}

func (m *MockMixer) Range(ctx context.Context) (volume.Range, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rangeErr != nil {
		return volume.Range{}, m.rangeErr
	}
	return m.rng, nil
}

func (m *MockMixer) Level(ctx context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level, nil
}

func (m *MockMixer) SetLevel(ctx context.Context, level float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.level = level
	m.writes = append(m.writes, level)
	return nil
}

func (m *MockMixer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
	return nil
}

// Writes returns the successfully applied levels in order.
func (m *MockMixer) Writes() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.writes...)
}

// Closes returns how many times Close was called.
func (m *MockMixer) Closes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
