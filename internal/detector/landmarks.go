// Package detector provides hand landmark detection interfaces and types.
package detector

import "image"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// HandConnections lists the landmark pairs forming the hand skeleton.
var HandConnections = [][2]int{
	{Wrist, ThumbCMC}, {ThumbCMC, ThumbMCP}, {ThumbMCP, ThumbIP}, {ThumbIP, ThumbTip},
	{Wrist, IndexMCP}, {IndexMCP, IndexPIP}, {IndexPIP, IndexDIP}, {IndexDIP, IndexTip},
	{IndexMCP, MiddleMCP}, {MiddleMCP, MiddlePIP}, {MiddlePIP, MiddleDIP}, {MiddleDIP, MiddleTip},
	{MiddleMCP, RingMCP}, {RingMCP, RingPIP}, {RingPIP, RingDIP}, {RingDIP, RingTip},
	{RingMCP, PinkyMCP}, {Wrist, PinkyMCP}, {PinkyMCP, PinkyPIP}, {PinkyPIP, PinkyDIP}, {PinkyDIP, PinkyTip},
}

// Point3D is a landmark position. X and Y are normalized to the frame
// width and height; Z is relative depth with the wrist as reference.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks holds the landmarks of one detected hand in MediaPipe order.
// A full detection has NumLandmarks points; a partial one may have fewer.
type HandLandmarks struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"` // "Left" or "Right"
	Score      float64   `json:"score"`
}

// Has reports whether landmark id is present.
func (h *HandLandmarks) Has(id int) bool {
	return id >= 0 && id < len(h.Points)
}

// Pixel converts landmark id to pixel coordinates in a width x height frame.
// Coordinates are truncated toward zero. Callers check Has first.
func (h *HandLandmarks) Pixel(id, width, height int) image.Point {
	p := h.Points[id]
	return image.Point{
		X: int(p.X * float64(width)),
		Y: int(p.Y * float64(height)),
	}
}

// Pixels converts every landmark to pixel coordinates.
func (h *HandLandmarks) Pixels(width, height int) []image.Point {
	pts := make([]image.Point, len(h.Points))
	for i := range h.Points {
		pts[i] = h.Pixel(i, width, height)
	}
	return pts
}
