// Package geometry maps normalized detection boxes to pixel crop rectangles.
package geometry

import (
	"errors"
	"image"
	"math"
)

// NormalizedScale is the coordinate range used by the vision service (0..1000).
const NormalizedScale = 1000.0

// DefaultMinCropSize is the smallest crop edge, in pixels, worth classifying.
const DefaultMinCropSize = 10

var (
	// ErrNoBoundingBox means the box is missing coordinates or the image has no area.
	ErrNoBoundingBox = errors.New("no bounding box")
	// ErrBoxTooSmall means the mapped rectangle is below the minimum crop size.
	ErrBoxTooSmall = errors.New("bounding box too small")
)

// NormalizedBox is a detection box in 0..1000 coordinates. Nil fields are missing.
type NormalizedBox struct {
	YMin *float64 `json:"ymin,omitempty"`
	XMin *float64 `json:"xmin,omitempty"`
	YMax *float64 `json:"ymax,omitempty"`
	XMax *float64 `json:"xmax,omitempty"`
}

// NewBox builds a complete box from top, left, bottom, right coordinates.
func NewBox(ymin, xmin, ymax, xmax float64) NormalizedBox {
	return NormalizedBox{YMin: &ymin, XMin: &xmin, YMax: &ymax, XMax: &xmax}
}

// IsComplete returns true if all four coordinates are present and finite.
func (b NormalizedBox) IsComplete() bool {
	for _, v := range []*float64{b.YMin, b.XMin, b.YMax, b.XMax} {
		if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
			return false
		}
	}
	return true
}

// CropRect converts a normalized box into a pixel rectangle inside a width x height image.
// The result is clamped to the image bounds. It returns ErrNoBoundingBox for incomplete
// boxes or empty images and ErrBoxTooSmall when either edge is below minSize pixels.
func CropRect(box NormalizedBox, width, height, minSize int) (image.Rectangle, error) {
	if !box.IsComplete() || width <= 0 || height <= 0 {
		return image.Rectangle{}, ErrNoBoundingBox
	}
	if minSize <= 0 {
		minSize = DefaultMinCropSize
	}

	left := clamp(toPixels(*box.XMin, width), 0, width)
	top := clamp(toPixels(*box.YMin, height), 0, height)
	right := clamp(toPixels(*box.XMax, width), 0, width)
	bottom := clamp(toPixels(*box.YMax, height), 0, height)

	// Inverted boxes come out with negative extent and are rejected here.
	if right-left < minSize || bottom-top < minSize {
		return image.Rectangle{}, ErrBoxTooSmall
	}

	return image.Rectangle{
		Min: image.Point{X: left, Y: top},
		Max: image.Point{X: right, Y: bottom},
	}, nil
}

// toPixels clamps coord to the normalized range before scaling so huge values
// never overflow the int conversion.
func toPixels(coord float64, dimension int) int {
	coord = math.Max(0, math.Min(coord, NormalizedScale))
	return int(math.Round(coord / NormalizedScale * float64(dimension)))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
