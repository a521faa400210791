package detector

import (
	"context"
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"
	"github.com/kozaktomas/photo-framer/internal/facecheck"
)

// Cascade defaults, matching the usual facefinder settings.
const (
	defaultMinSize     = 20
	defaultShiftFactor = 0.1
	defaultScaleFactor = 1.1
	defaultClusterIoU  = 0.2
	defaultMinQuality  = 10.0
	defaultModelPath   = "models/facefinder"
)

// PigoOptions configures the pigo cascade detector.
type PigoOptions struct {
	ModelPath  string
	MinQuality float32
	MinSize    int
}

// PigoDetector runs the pigo pixel-intensity cascade locally.
type PigoDetector struct {
	opts       PigoOptions
	loader     *ModelLoader
	classifier *pigo.Pigo
	readFile   func(string) ([]byte, error)
}

// NewPigoDetector creates a detector that reads its cascade from opts.ModelPath on Load.
func NewPigoDetector(opts PigoOptions) *PigoDetector {
	if opts.ModelPath == "" {
		opts.ModelPath = defaultModelPath
	}
	if opts.MinQuality <= 0 {
		opts.MinQuality = defaultMinQuality
	}
	if opts.MinSize <= 0 {
		opts.MinSize = defaultMinSize
	}
	d := &PigoDetector{opts: opts, readFile: os.ReadFile}
	d.loader = NewModelLoader(d.loadCascade)
	return d
}

// Name returns the backend name.
func (d *PigoDetector) Name() string {
	return BackendPigo
}

// Load reads and unpacks the cascade file once.
func (d *PigoDetector) Load(ctx context.Context) error {
	return d.loader.Load(ctx)
}

// Loaded reports whether the cascade is ready.
func (d *PigoDetector) Loaded() bool {
	return d.loader.Loaded()
}

func (d *PigoDetector) loadCascade(_ context.Context) error {
	data, err := d.readFile(d.opts.ModelPath)
	if err != nil {
		return fmt.Errorf("reading cascade file: %w", err)
	}
	classifier, err := unpackCascade(data)
	if err != nil {
		return err
	}
	d.classifier = classifier
	return nil
}

// unpackCascade guards against the unpacker panicking on truncated files.
func unpackCascade(data []byte) (classifier *pigo.Pigo, err error) {
	defer func() {
		if r := recover(); r != nil {
			classifier = nil
			err = fmt.Errorf("unpacking cascade file: %v", r)
		}
	}()
	classifier, err = pigo.NewPigo().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpacking cascade file: %w", err)
	}
	return classifier, nil
}

// Detect runs the cascade over img and returns square face boxes.
func (d *PigoDetector) Detect(ctx context.Context, img image.Image) ([]facecheck.BoundingBox, error) {
	if !d.Loaded() {
		return nil, ErrModelNotLoaded
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrDetection)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src := pigo.ImgToNRGBA(img)
	pixels := pigo.RgbToGrayscale(src)
	cols, rows := src.Bounds().Dx(), src.Bounds().Dy()

	cParams := pigo.CascadeParams{
		MinSize:     d.opts.MinSize,
		MaxSize:     max(cols, rows),
		ShiftFactor: defaultShiftFactor,
		ScaleFactor: defaultScaleFactor,

		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := d.classifier.RunCascade(cParams, 0.0)
	dets = d.classifier.ClusterDetections(dets, defaultClusterIoU)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return detectionsToBoxes(dets, d.opts.MinQuality), nil
}

// detectionsToBoxes converts pigo center/scale detections above minQuality into boxes.
func detectionsToBoxes(dets []pigo.Detection, minQuality float32) []facecheck.BoundingBox {
	boxes := make([]facecheck.BoundingBox, 0, len(dets))
	for _, det := range dets {
		if det.Q <= minQuality || det.Scale <= 0 {
			continue
		}
		side := float64(det.Scale)
		boxes = append(boxes, facecheck.BoundingBox{
			X:      float64(det.Col) - side/2,
			Y:      float64(det.Row) - side/2,
			Width:  side,
			Height: side,
		})
	}
	return boxes
}

var _ Detector = (*PigoDetector)(nil)
