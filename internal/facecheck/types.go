// Package facecheck decides whether a detected face is usable as a profile photo.
// It turns raw face bounding boxes into a verdict with user-facing messages and has
// no dependencies on image decoding or detection backends.
package facecheck

import "errors"

// ErrInvalidInput is returned when frame or box dimensions are not positive.
var ErrInvalidInput = errors.New("invalid input")

// FaceCountStatus classifies how many faces were detected
type FaceCountStatus string

const (
	FaceCountNone     FaceCountStatus = "none"
	FaceCountOne      FaceCountStatus = "one"
	FaceCountMultiple FaceCountStatus = "multiple"
)

// CenteredStatus reports whether the single face sits at the frame center
type CenteredStatus string

const (
	Centered              CenteredStatus = "centered"
	OffCenter             CenteredStatus = "off_center"
	CenteredNotApplicable CenteredStatus = "not_applicable"
)

// SizeStatus reports whether the single face width is within the accepted range
type SizeStatus string

const (
	SizeTooSmall      SizeStatus = "too_small"
	SizeAcceptable    SizeStatus = "acceptable"
	SizeTooLarge      SizeStatus = "too_large"
	SizeNotApplicable SizeStatus = "not_applicable"
)

// User-facing messages. Too small and too large intentionally share one text.
const (
	MsgNoFaces        = "No faces detected"
	MsgMultipleFaces  = "More than one face detected."
	MsgCentered       = "Face is exactly at the center."
	MsgNotCentered    = "Face is not centered."
	MsgSizeAcceptable = "Face size is within the acceptable range."
	MsgSizeOutOfRange = "Face size is not within the acceptable range."
)

// Frame is the size of the raster buffer the crop editor renders into.
type Frame struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid reports whether both dimensions are positive.
func (f Frame) Valid() bool {
	return f.Width > 0 && f.Height > 0
}

// Center returns the frame center in pixels.
func (f Frame) Center() (float64, float64) {
	return float64(f.Width) / 2, float64(f.Height) / 2
}

// Verdict is the outcome of a single evaluation.
type Verdict struct {
	FaceCount      FaceCountStatus `json:"face_count"`
	Centered       CenteredStatus  `json:"centered"`
	Size           SizeStatus      `json:"size"`
	PrimaryMessage string          `json:"message"`
	SizeMessage    string          `json:"size_message"`
}

// Accepted reports whether the verdict allows the crop to be used as-is.
func (v Verdict) Accepted() bool {
	return v.FaceCount == FaceCountOne && v.Centered == Centered && v.Size == SizeAcceptable
}
