package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kozaktomas/photo-framer/internal/facecheck"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Web      WebConfig      `yaml:"web"`
	Frame    FrameConfig    `yaml:"frame"`
	Policy   PolicyConfig   `yaml:"policy"`
	Detector DetectorConfig `yaml:"detector"`
	Workflow WorkflowConfig `yaml:"workflow"`
	Log      LogConfig      `yaml:"log"`
}

type WebConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"` // CORS whitelist, localhost is always allowed
}

type FrameConfig struct {
	Width      int `yaml:"width"`       // detection frame width, px
	Height     int `yaml:"height"`      // detection frame height, px
	EditorSize int `yaml:"editor_size"` // side of the square editor render, px
}

// Frame returns the detection frame dimensions.
func (c FrameConfig) Frame() facecheck.Frame {
	return facecheck.Frame{Width: c.Width, Height: c.Height}
}

type PolicyConfig struct {
	Tolerance   float64 `yaml:"tolerance"`
	MinFaceSize float64 `yaml:"min_face_size"`
	MaxFaceSize float64 `yaml:"max_face_size"`
}

// Policy returns the acceptance thresholds.
func (c PolicyConfig) Policy() facecheck.Policy {
	return facecheck.Policy{
		Tolerance:   c.Tolerance,
		MinFaceSize: c.MinFaceSize,
		MaxFaceSize: c.MaxFaceSize,
	}
}

type DetectorConfig struct {
	Backend    string  `yaml:"backend"`     // pigo or remote
	ModelPath  string  `yaml:"model_path"`  // pigo cascade file
	MinQuality float64 `yaml:"min_quality"` // pigo Q threshold, or remote det_score threshold
	RemoteURL  string  `yaml:"remote_url"`  // face embedding server
}

type WorkflowConfig struct {
	DebounceDelay time.Duration `yaml:"debounce_delay"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads a non-negative float, falling back to defaultVal.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 {
		return f
	}
	return defaultVal
}

// envDuration reads a positive Go duration such as "150ms", falling back to defaultVal.
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envList reads a comma-separated list, dropping blank entries.
func envList(key string, defaultVal []string) []string {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	var out []string
	for item := range strings.SplitSeq(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Defaults returns the embedded default configuration.
func Defaults() *Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return &cfg
}

// Load returns the embedded defaults overridden by environment variables.
func Load() *Config {
	d := Defaults()

	return &Config{
		Web: WebConfig{
			Host: envString("WEB_HOST", d.Web.Host),
			Port: envInt("WEB_PORT", d.Web.Port),

			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS", d.Web.AllowedOrigins),
		},
		Frame: FrameConfig{
			Width:      envInt("FRAME_WIDTH", d.Frame.Width),
			Height:     envInt("FRAME_HEIGHT", d.Frame.Height),
			EditorSize: envInt("EDITOR_SIZE", d.Frame.EditorSize),
		},
		Policy: PolicyConfig{
			Tolerance:   envFloat("CENTER_TOLERANCE", d.Policy.Tolerance),
			MinFaceSize: envFloat("MIN_FACE_SIZE", d.Policy.MinFaceSize),
			MaxFaceSize: envFloat("MAX_FACE_SIZE", d.Policy.MaxFaceSize),
		},
		Detector: DetectorConfig{
			Backend:    envString("DETECTOR_BACKEND", d.Detector.Backend),
			ModelPath:  envString("DETECTOR_MODEL_PATH", d.Detector.ModelPath),
			MinQuality: envFloat("DETECTOR_MIN_QUALITY", d.Detector.MinQuality),
			RemoteURL:  envString("EMBEDDING_URL", d.Detector.RemoteURL),
		},
		Workflow: WorkflowConfig{
			DebounceDelay: envDuration("DEBOUNCE_DELAY", d.Workflow.DebounceDelay),
			SessionTTL:    envDuration("SESSION_TTL", d.Workflow.SessionTTL),
		},
		Log: LogConfig{
			Level: envString("LOG_LEVEL", d.Log.Level),
			File:  envString("LOG_FILE", d.Log.File),
		},
	}
}

// Validate reports configuration values that would make the service unusable.
func (c *Config) Validate() error {
	var errs []error
	if !c.Frame.Frame().Valid() {
		errs = append(errs, fmt.Errorf("frame size %dx%d must be positive", c.Frame.Width, c.Frame.Height))
	}
	if c.Frame.EditorSize <= 0 {
		errs = append(errs, fmt.Errorf("editor size %d must be positive", c.Frame.EditorSize))
	}
	if err := c.Policy.Policy().Validate(); err != nil {
		errs = append(errs, err)
	}
	switch c.Detector.Backend {
	case "pigo", "remote":
	default:
		errs = append(errs, fmt.Errorf("unknown detector backend %q", c.Detector.Backend))
	}
	if c.Workflow.DebounceDelay <= 0 {
		errs = append(errs, errors.New("debounce delay must be positive"))
	}
	return errors.Join(errs...)
}
