package facecheck

import "fmt"

// BoundingBox is an axis-aligned face rectangle in raster pixels.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the center point of the box.
func (b BoundingBox) Center() (float64, float64) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Corners returns the box as [x1, y1, x2, y2].
func (b BoundingBox) Corners() []float64 {
	return []float64{b.X, b.Y, b.X + b.Width, b.Y + b.Height}
}

// Scale maps the box from one raster size into another by independent axis factors.
func (b BoundingBox) Scale(sx, sy float64) BoundingBox {
	return BoundingBox{
		X:      b.X * sx,
		Y:      b.Y * sy,
		Width:  b.Width * sx,
		Height: b.Height * sy,
	}
}

// ToFrame maps boxes detected on a square render of renderSize pixels onto the frame.
func ToFrame(boxes []BoundingBox, renderSize int, frame Frame) []BoundingBox {
	out := make([]BoundingBox, len(boxes))
	if renderSize <= 0 {
		copy(out, boxes)
		return out
	}
	sx := float64(frame.Width) / float64(renderSize)
	sy := float64(frame.Height) / float64(renderSize)
	for i, b := range boxes {
		out[i] = b.Scale(sx, sy)
	}
	return out
}

// validate rejects boxes with non-positive extent.
func (b BoundingBox) validate() error {
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("%w: bounding box %vx%v", ErrInvalidInput, b.Width, b.Height)
	}
	return nil
}

// FromCorners converts a [x1, y1, x2, y2] bbox to a BoundingBox.
// Returns false if the slice is not four values long.
func FromCorners(bbox []float64) (BoundingBox, bool) {
	if len(bbox) != 4 {
		return BoundingBox{}, false
	}
	return BoundingBox{
		X:      bbox[0],
		Y:      bbox[1],
		Width:  bbox[2] - bbox[0],
		Height: bbox[3] - bbox[1],
	}, true
}

// ComputeIoU calculates Intersection over Union between two boxes.
func ComputeIoU(a, b BoundingBox) float64 {
	x1 := max(a.X, b.X)
	y1 := max(a.Y, b.Y)
	x2 := min(a.X+a.Width, b.X+b.Width)
	y2 := min(a.Y+a.Height, b.Y+b.Height)

	if x2 <= x1 || y2 <= y1 {
		return 0
	}

	intersection := (x2 - x1) * (y2 - y1)
	union := a.Width*a.Height + b.Width*b.Height - intersection
	if union <= 0 {
		return 0
	}

	return intersection / union
}

// Dedupe drops boxes overlapping an earlier box by more than iouThreshold.
// Order of the surviving boxes is preserved.
func Dedupe(boxes []BoundingBox, iouThreshold float64) []BoundingBox {
	result := make([]BoundingBox, 0, len(boxes))
	for _, b := range boxes {
		duplicate := false
		for _, kept := range result {
			if ComputeIoU(b, kept) > iouThreshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			result = append(result, b)
		}
	}
	return result
}
