package render

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDisplay counts shown frames and replays scripted keys.
type MockDisplay struct {
	mu     sync.Mutex
	shown  int
	keys   map[int]int
	polls  int
	closes int
}

// NewMockDisplay creates a MockDisplay. keys maps a zero-based poll number
// to the key reported on that poll.
func NewMockDisplay(keys map[int]int) *MockDisplay {
	if keys == nil {
		keys = map[int]int{}
	}
	return &MockDisplay{keys: keys}
}

func (d *MockDisplay) Show(*gocv.Mat) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shown++
	return nil
}

func (d *MockDisplay) PollKey(int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	key, ok := d.keys[d.polls]
	d.polls++
	if !ok {
		return NoKey
	}
	return key
}

func (d *MockDisplay) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closes++
	return nil
}

// Shown returns how many frames were shown.
func (d *MockDisplay) Shown() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shown
}

// Closes returns how many times Close was called.
func (d *MockDisplay) Closes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closes
}
