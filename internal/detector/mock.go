package detector

import (
	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	hands  []HandLandmarks
	err    error
	calls  int
	closed bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Calls returns how many times Detect was called.
func (m *MockDetector) Calls() int {
	return m.calls
}

// Close marks the detector closed.
func (m *MockDetector) Close() error {
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockDetector) Closed() bool {
	return m.closed
}

// OpenPalmLandmarks returns a preset HandLandmarks representing an open palm.
// All fingers are extended and the thumb points away from the index finger.
func OpenPalmLandmarks() HandLandmarks {
	landmarks := HandLandmarks{
		Points:     make([]Point3D, NumLandmarks),
		Handedness: "Right",
		Score:      0.95,
	}

	landmarks.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	// Thumb extended to the side
	landmarks.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.02}
	landmarks.Points[ThumbMCP] = Point3D{X: 0.62, Y: 0.70, Z: 0.03}
	landmarks.Points[ThumbIP] = Point3D{X: 0.68, Y: 0.65, Z: 0.03}
	landmarks.Points[ThumbTip] = Point3D{X: 0.73, Y: 0.60, Z: 0.03}

	landmarks.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.68, Z: 0.0}
	landmarks.Points[IndexPIP] = Point3D{X: 0.57, Y: 0.55, Z: 0.0}
	landmarks.Points[IndexDIP] = Point3D{X: 0.58, Y: 0.45, Z: 0.0}
	landmarks.Points[IndexTip] = Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	landmarks.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.66, Z: 0.0}
	landmarks.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.52, Z: 0.0}
	landmarks.Points[MiddleDIP] = Point3D{X: 0.50, Y: 0.40, Z: 0.0}
	landmarks.Points[MiddleTip] = Point3D{X: 0.50, Y: 0.28, Z: 0.0}

	landmarks.Points[RingMCP] = Point3D{X: 0.45, Y: 0.68, Z: 0.0}
	landmarks.Points[RingPIP] = Point3D{X: 0.43, Y: 0.55, Z: 0.0}
	landmarks.Points[RingDIP] = Point3D{X: 0.42, Y: 0.45, Z: 0.0}
	landmarks.Points[RingTip] = Point3D{X: 0.42, Y: 0.35, Z: 0.0}

	landmarks.Points[PinkyMCP] = Point3D{X: 0.40, Y: 0.70, Z: 0.0}
	landmarks.Points[PinkyPIP] = Point3D{X: 0.37, Y: 0.60, Z: 0.0}
	landmarks.Points[PinkyDIP] = Point3D{X: 0.35, Y: 0.50, Z: 0.0}
	landmarks.Points[PinkyTip] = Point3D{X: 0.34, Y: 0.42, Z: 0.0}

	return landmarks
}

// PinchLandmarks returns an open palm with the thumb and index tips moved
// to the given normalized positions.
func PinchLandmarks(thumb, index Point3D) HandLandmarks {
	landmarks := OpenPalmLandmarks()
	landmarks.Points[ThumbTip] = thumb
	landmarks.Points[IndexTip] = index
	return landmarks
}

// ClosedPinchLandmarks returns a hand with thumb and index tips touching.
func ClosedPinchLandmarks() HandLandmarks {
	tip := Point3D{X: 0.60, Y: 0.50, Z: 0.0}
	return PinchLandmarks(tip, tip)
}

// PartialLandmarks returns the first n landmarks of an open palm, as a
// detector would report a partially visible hand.
func PartialLandmarks(n int) HandLandmarks {
	landmarks := OpenPalmLandmarks()
	if n < 0 {
		n = 0
	}
	if n < len(landmarks.Points) {
		landmarks.Points = landmarks.Points[:n]
	}
	return landmarks
}
