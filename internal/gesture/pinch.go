// Package gesture extracts the thumb-index pinch from detected hand landmarks.
package gesture

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/ayusman/pinchvol/internal/detector"
)

// MinLandmarks is the number of landmarks needed to reach the index tip.
const MinLandmarks = detector.IndexTip + 1

var (
	// ErrNoHand is returned when no hand was detected in the frame.
	ErrNoHand = errors.New("no hand detected")

	// ErrInsufficientLandmarks is returned when the first hand is missing the
	// thumb or index tip.
	ErrInsufficientLandmarks = errors.New("insufficient landmarks")
)

// Pinch is the thumb-index gesture measured on one frame.
type Pinch struct {
	Thumb  image.Point // Thumb tip in pixels
	Index  image.Point // Index fingertip in pixels
	Length float64     // Euclidean distance between the tips in pixels
}

// Extract measures the pinch of the first hand in a width x height frame.
// It returns ErrNoHand or ErrInsufficientLandmarks when there is nothing to
// measure; callers skip the frame in both cases.
func Extract(hands []detector.HandLandmarks, width, height int) (Pinch, error) {
	if len(hands) == 0 {
		return Pinch{}, ErrNoHand
	}

	hand := hands[0]
	if len(hand.Points) < MinLandmarks {
		return Pinch{}, fmt.Errorf("%w: have %d, need %d", ErrInsufficientLandmarks, len(hand.Points), MinLandmarks)
	}

	thumb := hand.Pixel(detector.ThumbTip, width, height)
	index := hand.Pixel(detector.IndexTip, width, height)

	return Pinch{
		Thumb:  thumb,
		Index:  index,
		Length: Distance(thumb, index),
	}, nil
}

// Distance returns the Euclidean distance between two pixel positions.
func Distance(a, b image.Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}
