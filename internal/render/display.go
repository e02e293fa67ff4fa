package render

import (
	"sync"

	"gocv.io/x/gocv"
)

// NoKey is returned by PollKey when no key was pressed.
const NoKey = -1

// Display shows frames and reports key presses.
type Display interface {
	Show(img *gocv.Mat) error
	// PollKey waits up to delayMs for a key and returns its code, or NoKey.
	PollKey(delayMs int) int
	Close() error
}

// Window is a Display backed by an OpenCV HighGUI window.
type Window struct {
	win  *gocv.Window
	once sync.Once
}

// NewWindow opens a window with the given title.
func NewWindow(title string) *Window {
	return &Window{win: gocv.NewWindow(title)}
}

// Show renders img in the window.
func (w *Window) Show(img *gocv.Mat) error {
	w.win.IMShow(*img)
	return nil
}

// PollKey returns the low byte of the pressed key, or NoKey.
func (w *Window) PollKey(delayMs int) int {
	key := w.win.WaitKey(delayMs)
	if key < 0 {
		return NoKey
	}
	return key & 0xFF
}

// Close destroys the window. Further calls are no-ops.
func (w *Window) Close() error {
	var err error
	w.once.Do(func() {
		err = w.win.Close()
	})
	return err
}

// Headless discards frames and never reports a key.
type Headless struct{}

func (Headless) Show(*gocv.Mat) error { return nil }
func (Headless) PollKey(int) int      { return NoKey }
func (Headless) Close() error         { return nil }
