package editor

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/kozaktomas/photo-framer/internal/facecheck"
)

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestState_Normalize(t *testing.T) {
	tests := []struct {
		name     string
		input    State
		expected State
	}{
		{"default unchanged", DefaultState(), DefaultState()},
		{"scale below range", State{Scale: 0.5, PosX: 0.5, PosY: 0.5}, State{Scale: 1, PosX: 0.5, PosY: 0.5}},
		{"scale above range", State{Scale: 3, PosX: 0.5, PosY: 0.5}, State{Scale: 2, PosX: 0.5, PosY: 0.5}},
		{"scale snapped to step", State{Scale: 1.234, PosX: 0, PosY: 1}, State{Scale: 1.23, PosX: 0, PosY: 1}},
		{"position clamped", State{Scale: 1, PosX: -1, PosY: 4}, State{Scale: 1, PosX: 0, PosY: 1}},
		{"NaN position", State{Scale: 1, PosX: math.NaN(), PosY: 0.5}, State{Scale: 1, PosX: 0, PosY: 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.input.Normalize()
			if math.Abs(got.Scale-tt.expected.Scale) > 1e-9 || got.PosX != tt.expected.PosX || got.PosY != tt.expected.PosY {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.expected)
			}
		})
	}
}

func TestWindow(t *testing.T) {
	bounds := image.Rect(0, 0, 400, 200)

	tests := []struct {
		name     string
		state    State
		expected image.Rectangle
	}{
		{
			name:     "scale 1 centered uses full height",
			state:    State{Scale: 1, PosX: 0.5, PosY: 0.5},
			expected: image.Rect(100, 0, 300, 200),
		},
		{
			name:     "scale 2 halves the window",
			state:    State{Scale: 2, PosX: 0.5, PosY: 0.5},
			expected: image.Rect(150, 50, 250, 150),
		},
		{
			name:     "left edge clamps inside image",
			state:    State{Scale: 1, PosX: 0, PosY: 0.5},
			expected: image.Rect(0, 0, 200, 200),
		},
		{
			name:     "bottom right clamps inside image",
			state:    State{Scale: 2, PosX: 1, PosY: 1},
			expected: image.Rect(300, 100, 400, 200),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Window(bounds, tt.state); got != tt.expected {
				t.Errorf("Window() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestWindow_OffsetBounds(t *testing.T) {
	bounds := image.Rect(10, 20, 110, 120)
	got := Window(bounds, State{Scale: 1, PosX: 0.5, PosY: 0.5})
	if got != bounds {
		t.Errorf("Window() = %v, want %v", got, bounds)
	}
}

func TestRender(t *testing.T) {
	img := solidImage(300, 200, color.RGBA{R: 200, A: 255})

	out, err := Render(img, DefaultState(), 250)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if out.Bounds().Dx() != 250 || out.Bounds().Dy() != 250 {
		t.Errorf("Render() size = %v, want 250x250", out.Bounds().Size())
	}

	r, _, _, _ := out.At(125, 125).RGBA()
	if r>>8 < 190 {
		t.Errorf("rendered pixel red = %d, want ~200", r>>8)
	}
}

func TestRender_PicksVisibleRegion(t *testing.T) {
	// Left half black, right half white; panning fully right must render white.
	img := solidImage(400, 200, color.Black)
	for y := range 200 {
		for x := 200; x < 400; x++ {
			img.Set(x, y, color.White)
		}
	}

	out, err := Render(img, State{Scale: 1, PosX: 1, PosY: 0.5}, 50)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	r, g, b, _ := out.At(25, 25).RGBA()
	if r>>8 < 250 || g>>8 < 250 || b>>8 < 250 {
		t.Errorf("pixel = (%d,%d,%d), want white", r>>8, g>>8, b>>8)
	}
}

func TestRender_InvalidInput(t *testing.T) {
	if _, err := Render(solidImage(10, 10, color.White), DefaultState(), 0); !errors.Is(err, facecheck.ErrInvalidInput) {
		t.Errorf("Render(size 0) error = %v, want ErrInvalidInput", err)
	}
	if _, err := Render(nil, DefaultState(), 250); !errors.Is(err, facecheck.ErrInvalidInput) {
		t.Errorf("Render(nil) error = %v, want ErrInvalidInput", err)
	}
}

func TestSuggestPosition(t *testing.T) {
	img := solidImage(300, 200, color.Gray{Y: 128})
	// A detailed patch on the right side attracts the crop.
	for y := 60; y < 140; y++ {
		for x := 220; x < 290; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}

	state, err := SuggestPosition(context.Background(), img)
	if err != nil {
		t.Fatalf("SuggestPosition() error = %v", err)
	}
	if state.Scale != DefaultScale {
		t.Errorf("Scale = %v, want %v", state.Scale, DefaultScale)
	}
	if state.PosX < 0 || state.PosX > 1 || state.PosY < 0 || state.PosY > 1 {
		t.Errorf("SuggestPosition() = %+v, want position within [0,1]", state)
	}
}

func TestSuggestPosition_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	state, err := SuggestPosition(ctx, solidImage(50, 50, color.White))
	// The analyzer may finish before the cancellation is observed.
	if err != nil && !errors.Is(err, context.Canceled) {
		t.Errorf("SuggestPosition() error = %v, want nil or context.Canceled", err)
	}
	if state.Scale != DefaultScale {
		t.Errorf("Scale = %v, want %v", state.Scale, DefaultScale)
	}
}
