package editor

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/kozaktomas/photo-framer/internal/facecheck"
	"github.com/muesli/smartcrop"
)

// Window returns the source rectangle visible in the square editor viewport.
// The shorter image side fills the viewport at scale 1; zoom shrinks the window.
// The window is kept fully inside the image.
func Window(bounds image.Rectangle, s State) image.Rectangle {
	s = s.Normalize()
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())

	side := math.Min(w, h) / s.Scale
	half := side / 2

	cx := clamp(s.PosX*w, half, w-half)
	cy := clamp(s.PosY*h, half, h-half)

	x0 := int(math.Round(cx - half))
	y0 := int(math.Round(cy - half))
	n := max(1, int(math.Round(side)))

	return image.Rect(x0, y0, x0+n, y0+n).Add(bounds.Min).Intersect(bounds)
}

// Render snapshots the current view into a size×size raster.
func Render(img image.Image, s State, size int) (image.Image, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: render size %d", facecheck.ErrInvalidInput, size)
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: no image to render", facecheck.ErrInvalidInput)
	}

	cropped := imaging.Crop(img, Window(img.Bounds(), s))
	return imaging.Resize(cropped, size, size, imaging.Lanczos), nil
}

// resizer implements the smartcrop.Resizer interface.
type resizer struct {
	resampler imaging.ResampleFilter
}

func (r *resizer) Resize(img image.Image, width, height uint) image.Image {
	return imaging.Resize(img, int(width), int(height), r.resampler)
}

// SuggestPosition picks an initial window center from the most interesting square crop.
// The scale is left at the default.
func SuggestPosition(ctx context.Context, img image.Image) (State, error) {
	state := DefaultState()
	if img == nil || img.Bounds().Empty() {
		return state, fmt.Errorf("%w: no image to analyze", facecheck.ErrInvalidInput)
	}

	bounds := img.Bounds()
	side := min(bounds.Dx(), bounds.Dy())
	analyzer := smartcrop.NewAnalyzer(&resizer{resampler: imaging.Linear})

	type cropResult struct {
		crop image.Rectangle
		err  error
	}
	resultChan := make(chan cropResult, 1)

	go func() {
		crop, err := analyzer.FindBestCrop(img, side, side)
		resultChan <- cropResult{crop: crop, err: err}
	}()

	select {
	case <-ctx.Done():
		return state, ctx.Err()
	case result := <-resultChan:
		if result.err != nil {
			return state, fmt.Errorf("finding best crop: %w", result.err)
		}
		center := result.crop.Min.Add(result.crop.Max).Div(2).Sub(bounds.Min)
		state.PosX = float64(center.X) / float64(bounds.Dx())
		state.PosY = float64(center.Y) / float64(bounds.Dy())
		return state.Normalize(), nil
	}
}
