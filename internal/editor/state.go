// Package editor models the pan/zoom crop editor and renders its current view
// into a fixed-size square raster for face detection.
package editor

import "math"

// Zoom slider limits.
const (
	MinScale     = 1.0
	MaxScale     = 2.0
	ScaleStep    = 0.01
	DefaultScale = 1.2

	stepsPerUnit = 1 / ScaleStep
)

// State is the editor position. PosX and PosY are the relative center of the
// visible window inside the source image (0..1 on each axis).
type State struct {
	Scale float64 `json:"scale" validate:"gte=1,lte=2"`
	PosX  float64 `json:"pos_x" validate:"gte=0,lte=1"`
	PosY  float64 `json:"pos_y" validate:"gte=0,lte=1"`
}

// DefaultState returns the initial state for a freshly selected image.
func DefaultState() State {
	return State{Scale: DefaultScale, PosX: 0.5, PosY: 0.5}
}

// Normalize clamps the state into the valid ranges and snaps Scale to the slider step.
func (s State) Normalize() State {
	scale := math.Round(s.Scale*stepsPerUnit) / stepsPerUnit
	return State{
		Scale: clamp(scale, MinScale, MaxScale),
		PosX:  clamp(s.PosX, 0, 1),
		PosY:  clamp(s.PosY, 0, 1),
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
