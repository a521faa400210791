package handlers

import (
	"net/http"

	"github.com/kozaktomas/photo-framer/internal/config"
	"github.com/kozaktomas/photo-framer/internal/editor"
)

// ConfigHandler handles configuration endpoints
type ConfigHandler struct {
	config *config.Config
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{
		config: cfg,
	}
}

// ConfigResponse represents the configuration response
type ConfigResponse struct {
	Frame    FrameInfo    `json:"frame"`
	Policy   PolicyInfo   `json:"policy"`
	Zoom     ZoomInfo     `json:"zoom"`
	Detector DetectorInfo `json:"detector"`
}

// FrameInfo describes the output frame and the editor viewport.
type FrameInfo struct {
	Width      int `json:"width"`
	Height     int `json:"height"`
	EditorSize int `json:"editor_size"`
}

// PolicyInfo exposes the acceptance thresholds.
type PolicyInfo struct {
	Tolerance   float64 `json:"tolerance"`
	MinFaceSize float64 `json:"min_face_size"`
	MaxFaceSize float64 `json:"max_face_size"`
}

// ZoomInfo is the editor slider range.
type ZoomInfo struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Step    float64 `json:"step"`
	Default float64 `json:"default"`
}

type DetectorInfo struct {
	Backend string `json:"backend"`
}

// Get returns the editor configuration
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	response := ConfigResponse{
		Frame: FrameInfo{
			Width:      h.config.Frame.Width,
			Height:     h.config.Frame.Height,
			EditorSize: h.config.Frame.EditorSize,
		},
		Policy: PolicyInfo{
			Tolerance:   h.config.Policy.Tolerance,
			MinFaceSize: h.config.Policy.MinFaceSize,
			MaxFaceSize: h.config.Policy.MaxFaceSize,
		},
		Zoom: ZoomInfo{
			Min:     editor.MinScale,
			Max:     editor.MaxScale,
			Step:    editor.ScaleStep,
			Default: editor.DefaultScale,
		},
		Detector: DetectorInfo{
			Backend: h.config.Detector.Backend,
		},
	}

	respondJSON(w, http.StatusOK, response)
}
