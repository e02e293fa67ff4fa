package detector

import "gocv.io/x/gocv"

// Detector defines the interface for hand detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect.
	MaxHands int

	// MinDetectionConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinDetectionConfidence float64

	// MinTrackingConfidence is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConfidence float64

	// StaticImageMode runs detection on every frame independently. When false
	// the detector tracks landmarks across frames.
	StaticImageMode bool

	// ScriptPath overrides the location of the MediaPipe service script.
	ScriptPath string

	// PythonPath overrides the Python interpreter used to run the service.
	PythonPath string
}

// DefaultConfig returns a Config tuned for single-hand pinch tracking.
func DefaultConfig() Config {
	return Config{
		MaxHands:               1,
		MinDetectionConfidence: 0.7,
		MinTrackingConfidence:  0.5,
		StaticImageMode:        false,
	}
}
