// Package detector finds face bounding boxes in rendered editor frames.
package detector

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/kozaktomas/photo-framer/internal/facecheck"
)

// ErrDetection is returned when the model is unavailable or an image cannot be processed.
var ErrDetection = errors.New("face detection failed")

// ErrModelNotLoaded is returned by Detect before Load has succeeded.
var ErrModelNotLoaded = fmt.Errorf("%w: model not loaded", ErrDetection)

// Backend names.
const (
	BackendPigo   = "pigo"
	BackendRemote = "remote"
)

// Detector defines the interface for face detection backends.
type Detector interface {
	Name() string
	// Load initializes the model. It is safe to call repeatedly.
	Load(ctx context.Context) error
	Loaded() bool
	// Detect returns face boxes in the pixel space of img.
	Detect(ctx context.Context, img image.Image) ([]facecheck.BoundingBox, error)
}

// Options configures a detector backend.
type Options struct {
	Backend    string
	ModelPath  string  // pigo cascade file
	MinQuality float64 // minimum detection score kept
	RemoteURL  string  // face embedding server base URL
}

// New creates the detector selected by opts.Backend.
func New(opts Options) (Detector, error) {
	switch opts.Backend {
	case "", BackendPigo:
		return NewPigoDetector(PigoOptions{
			ModelPath:  opts.ModelPath,
			MinQuality: float32(opts.MinQuality),
		}), nil
	case BackendRemote:
		return NewRemoteDetector(opts.RemoteURL, opts.MinQuality), nil
	default:
		return nil, fmt.Errorf("unknown detector backend %q", opts.Backend)
	}
}
