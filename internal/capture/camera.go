// Package capture provides camera capture functionality using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Default camera settings
const (
	DefaultFPS    = 30
	DefaultWidth  = 1280
	DefaultHeight = 720
)

var (
	// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")

	// ErrNoFrame is returned when the device yields no frame. Callers treat it
	// as the end of the stream.
	ErrNoFrame = errors.New("no frame from camera")
)

// Camera defines the interface for camera capture implementations.
type Camera interface {
	Open() error
	Close() error
	// ReadFrame blocks until a frame is available. The caller owns the
	// returned Mat and must close it.
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// cameraImpl manages video capture from a camera device using GoCV.
type cameraImpl struct {
	deviceID int
	width    int
	height   int
	capture  *gocv.VideoCapture
	mu       sync.Mutex
	running  bool
	fps      int
}

// NewCamera creates a new Camera for the given device ID.
// The width and height are requested when the device is opened; the driver
// may ignore them. Non-positive values fall back to 1280x720.
func NewCamera(deviceID, width, height int) Camera {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	return &cameraImpl{
		deviceID: deviceID,
		width:    width,
		height:   height,
		fps:      DefaultFPS,
	}
}

// Open opens the camera for capturing frames.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.deviceID)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", c.deviceID, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("open camera %d: device not opened", c.deviceID)
	}

	// Best effort; the driver picks the closest supported mode
	capture.Set(gocv.VideoCaptureFrameWidth, float64(c.width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(c.height))
	capture.Set(gocv.VideoCaptureFPS, float64(c.fps))

	c.capture = capture
	c.running = true

	return nil
}

// Close closes the camera and releases resources.
// Closing a camera that is not open is a no-op.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame from the camera.
func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, fmt.Errorf("read device %d: %w", c.deviceID, ErrNoFrame)
	}

	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("device %d returned an empty frame: %w", c.deviceID, ErrNoFrame)
	}

	return &mat, nil
}

// SetFPS sets the frames per second requested from the device. It applies
// immediately if the camera is open, otherwise on Open.
// Values less than or equal to 0 are ignored.
func (c *cameraImpl) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps

	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the current frames per second setting.
func (c *cameraImpl) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fps
}

// IsOpen returns true if the camera is currently open and running.
func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}
