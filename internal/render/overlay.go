// Package render draws the pinch feedback onto camera frames and shows them.
package render

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/interp"

	"github.com/ayusman/pinchvol/internal/detector"
	"github.com/ayusman/pinchvol/internal/gesture"
)

// Bar geometry in pixels.
const (
	BarTop    = 150
	BarBottom = 400
	BarLeft   = 50
	BarRight  = 85
)

// Drawing sizes.
const (
	TipRadius      = 15
	PinchThickness = 3
	BarThickness   = 3
	LandmarkRadius = 4
	SkeletonWidth  = 2
)

// Colors are RGBA; gocv converts them to the BGR order OpenCV uses.
var (
	PinchColor    = color.RGBA{R: 0, G: 0, B: 255, A: 0}
	LevelColor    = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	LandmarkColor = color.RGBA{R: 255, G: 0, B: 0, A: 0}
	SkeletonColor = color.RGBA{R: 224, G: 224, B: 224, A: 0}
)

var (
	percentOrigin  = image.Pt(40, 450)
	distanceOrigin = image.Pt(40, 50)
)

// Overlay draws hand and volume feedback. The bar spans rows Top..Bottom,
// with 100% at Top.
type Overlay struct {
	Top    int
	Bottom int
	Left   int
	Right  int

	fill interp.PiecewiseLinear
}

// NewOverlay creates an Overlay whose bar spans rows top..bottom.
func NewOverlay(top, bottom int) (*Overlay, error) {
	if top < 0 || top >= bottom {
		return nil, fmt.Errorf("invalid bar band [%d, %d]", top, bottom)
	}

	o := &Overlay{Top: top, Bottom: bottom, Left: BarLeft, Right: BarRight}
	if err := o.fill.Fit([]float64{0, 100}, []float64{float64(bottom), float64(top)}); err != nil {
		return nil, fmt.Errorf("fit bar mapping: %w", err)
	}
	return o, nil
}

// DefaultOverlay returns the Overlay with the standard bar geometry.
func DefaultOverlay() *Overlay {
	o, err := NewOverlay(BarTop, BarBottom)
	if err != nil {
		panic(err)
	}
	return o
}

// BarFillTop returns the row where the bar fill starts for percent.
// Values outside [0, 100] are clamped.
func (o *Overlay) BarFillTop(percent float64) int {
	return int(o.fill.Predict(percent))
}

// DrawHand draws the landmark skeleton of one hand. Connections whose
// endpoints were not detected are skipped.
func (o *Overlay) DrawHand(img *gocv.Mat, hand detector.HandLandmarks) {
	w, h := img.Cols(), img.Rows()
	pts := hand.Pixels(w, h)

	for _, c := range detector.HandConnections {
		if !hand.Has(c[0]) || !hand.Has(c[1]) {
			continue
		}
		gocv.Line(img, pts[c[0]], pts[c[1]], SkeletonColor, SkeletonWidth)
	}
	for _, p := range pts {
		gocv.Circle(img, p, LandmarkRadius, LandmarkColor, -1)
	}
}

// DrawPinch marks both fingertips and joins them.
func (o *Overlay) DrawPinch(img *gocv.Mat, p gesture.Pinch) {
	gocv.Circle(img, p.Thumb, TipRadius, PinchColor, -1)
	gocv.Circle(img, p.Index, TipRadius, PinchColor, -1)
	gocv.Line(img, p.Thumb, p.Index, PinchColor, PinchThickness)
}

// DrawLevel draws the volume bar, the percentage and the pinch length.
func (o *Overlay) DrawLevel(img *gocv.Mat, percent, length float64) {
	gocv.Rectangle(img, image.Rect(o.Left, o.Top, o.Right, o.Bottom), LevelColor, BarThickness)
	gocv.Rectangle(img, image.Rect(o.Left, o.BarFillTop(percent), o.Right, o.Bottom), LevelColor, -1)

	gocv.PutText(img, PercentLabel(percent), percentOrigin, gocv.FontHersheySimplex, 1, LevelColor, 3)
	gocv.PutText(img, DistanceLabel(length), distanceOrigin, gocv.FontHersheySimplex, 1, PinchColor, 2)
}

// PercentLabel formats percent truncated toward zero, e.g. "67%".
func PercentLabel(percent float64) string {
	return fmt.Sprintf("%d%%", int(percent))
}

// DistanceLabel formats a pinch length, e.g. "Distance: 175".
func DistanceLabel(length float64) string {
	return fmt.Sprintf("Distance: %d", int(length))
}
