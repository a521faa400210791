package facecheck

import (
	"fmt"
	"math"
)

// Default acceptance thresholds, in frame pixels.
const (
	DefaultTolerance   = 10
	DefaultMinFaceSize = 100
	DefaultMaxFaceSize = 150
)

// Policy holds the thresholds a single face must satisfy.
type Policy struct {
	// Tolerance is the maximum per-axis offset between face center and frame center.
	Tolerance float64 `json:"tolerance"`
	// MinFaceSize and MaxFaceSize bound the face box width, inclusive. Height is not checked.
	MinFaceSize float64 `json:"min_face_size"`
	MaxFaceSize float64 `json:"max_face_size"`
}

// DefaultPolicy returns the standard profile photo thresholds.
func DefaultPolicy() Policy {
	return Policy{
		Tolerance:   DefaultTolerance,
		MinFaceSize: DefaultMinFaceSize,
		MaxFaceSize: DefaultMaxFaceSize,
	}
}

// Evaluate applies the default policy.
func Evaluate(detections []BoundingBox, frame Frame) (Verdict, error) {
	return DefaultPolicy().Evaluate(detections, frame)
}

// Evaluate classifies the detections against the frame.
// Centering and size are both reported when exactly one face is present.
func (p Policy) Evaluate(detections []BoundingBox, frame Frame) (Verdict, error) {
	if !frame.Valid() {
		return Verdict{}, fmt.Errorf("%w: frame %dx%d", ErrInvalidInput, frame.Width, frame.Height)
	}
	for _, d := range detections {
		if err := d.validate(); err != nil {
			return Verdict{}, err
		}
	}

	switch len(detections) {
	case 0:
		return Verdict{
			FaceCount:      FaceCountNone,
			Centered:       CenteredNotApplicable,
			Size:           SizeNotApplicable,
			PrimaryMessage: MsgNoFaces,
		}, nil
	case 1:
	default:
		return Verdict{
			FaceCount:      FaceCountMultiple,
			Centered:       CenteredNotApplicable,
			Size:           SizeNotApplicable,
			PrimaryMessage: MsgMultipleFaces,
		}, nil
	}

	face := detections[0]
	v := Verdict{FaceCount: FaceCountOne}
	v.Centered, v.PrimaryMessage = p.checkCentered(face, frame)
	v.Size, v.SizeMessage = p.checkSize(face)
	return v, nil
}

// checkCentered requires both axes to be within tolerance independently.
func (p Policy) checkCentered(face BoundingBox, frame Frame) (CenteredStatus, string) {
	faceX, faceY := face.Center()
	frameX, frameY := frame.Center()

	if math.Abs(faceX-frameX) <= p.Tolerance && math.Abs(faceY-frameY) <= p.Tolerance {
		return Centered, MsgCentered
	}
	return OffCenter, MsgNotCentered
}

func (p Policy) checkSize(face BoundingBox) (SizeStatus, string) {
	switch {
	case face.Width < p.MinFaceSize:
		return SizeTooSmall, MsgSizeOutOfRange
	case face.Width > p.MaxFaceSize:
		return SizeTooLarge, MsgSizeOutOfRange
	default:
		return SizeAcceptable, MsgSizeAcceptable
	}
}

// Validate checks that the thresholds are usable.
func (p Policy) Validate() error {
	if p.Tolerance < 0 {
		return fmt.Errorf("%w: negative tolerance %v", ErrInvalidInput, p.Tolerance)
	}
	if p.MinFaceSize <= 0 || p.MaxFaceSize < p.MinFaceSize {
		return fmt.Errorf("%w: face size range [%v, %v]", ErrInvalidInput, p.MinFaceSize, p.MaxFaceSize)
	}
	return nil
}
