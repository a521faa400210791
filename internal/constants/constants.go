// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Workflow messages shown while and after detection runs
const (
	// MsgProcessing is shown while a frame is being analyzed
	MsgProcessing = "Processing the Photo ..."

	// MsgProcessingFailed is shown when model loading or detection fails
	MsgProcessingFailed = "Processing the photo failed."

	// MsgUploadPrompt is shown before an image has been selected
	MsgUploadPrompt = "Please Upload a Photo"
)

// Session constants
const (
	// SessionCleanupInterval is how often expired editing sessions are removed
	SessionCleanupInterval = time.Minute

	// SaveTimeout bounds a synchronous save evaluation
	SaveTimeout = 30 * time.Second
)
