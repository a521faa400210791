package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Frame.Width != 250 || cfg.Frame.Height != 250 {
		t.Errorf("frame = %dx%d, want 250x250", cfg.Frame.Width, cfg.Frame.Height)
	}
	if cfg.Frame.EditorSize != 310 {
		t.Errorf("editor size = %d, want 310", cfg.Frame.EditorSize)
	}
	if cfg.Policy.Tolerance != 10 || cfg.Policy.MinFaceSize != 100 || cfg.Policy.MaxFaceSize != 150 {
		t.Errorf("policy = %+v, want 10/100/150", cfg.Policy)
	}
	if cfg.Workflow.DebounceDelay != 100*time.Millisecond {
		t.Errorf("debounce delay = %v, want 100ms", cfg.Workflow.DebounceDelay)
	}
	if cfg.Workflow.SessionTTL != 30*time.Minute {
		t.Errorf("session ttl = %v, want 30m", cfg.Workflow.SessionTTL)
	}
	if cfg.Detector.Backend != "pigo" {
		t.Errorf("backend = %s, want pigo", cfg.Detector.Backend)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("WEB_PORT", "9090")
	t.Setenv("FRAME_WIDTH", "300")
	t.Setenv("CENTER_TOLERANCE", "12.5")
	t.Setenv("DETECTOR_BACKEND", "remote")
	t.Setenv("EMBEDDING_URL", "http://faces:8000")
	t.Setenv("DEBOUNCE_DELAY", "250ms")
	t.Setenv("WEB_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg := Load()

	if cfg.Web.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Web.Port)
	}
	if cfg.Frame.Width != 300 || cfg.Frame.Height != 250 {
		t.Errorf("frame = %dx%d, want 300x250", cfg.Frame.Width, cfg.Frame.Height)
	}
	if cfg.Policy.Tolerance != 12.5 {
		t.Errorf("tolerance = %v, want 12.5", cfg.Policy.Tolerance)
	}
	if cfg.Detector.Backend != "remote" || cfg.Detector.RemoteURL != "http://faces:8000" {
		t.Errorf("detector = %+v", cfg.Detector)
	}
	if cfg.Workflow.DebounceDelay != 250*time.Millisecond {
		t.Errorf("debounce delay = %v, want 250ms", cfg.Workflow.DebounceDelay)
	}
	if len(cfg.Web.AllowedOrigins) != 2 || cfg.Web.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("allowed origins = %v", cfg.Web.AllowedOrigins)
	}
}

func TestLoad_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv("WEB_PORT", "not-a-number")
	t.Setenv("FRAME_HEIGHT", "-5")
	t.Setenv("MIN_FACE_SIZE", "-1")
	t.Setenv("DEBOUNCE_DELAY", "soon")

	cfg := Load()

	if cfg.Web.Port != 8080 {
		t.Errorf("port = %d, want default 8080", cfg.Web.Port)
	}
	if cfg.Frame.Height != 250 {
		t.Errorf("frame height = %d, want default 250", cfg.Frame.Height)
	}
	if cfg.Policy.MinFaceSize != 100 {
		t.Errorf("min face size = %v, want default 100", cfg.Policy.MinFaceSize)
	}
	if cfg.Workflow.DebounceDelay != 100*time.Millisecond {
		t.Errorf("debounce delay = %v, want default 100ms", cfg.Workflow.DebounceDelay)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero frame", func(c *Config) { c.Frame.Width = 0 }, true},
		{"zero editor", func(c *Config) { c.Frame.EditorSize = 0 }, true},
		{"inverted size range", func(c *Config) { c.Policy.MinFaceSize, c.Policy.MaxFaceSize = 200, 100 }, true},
		{"unknown backend", func(c *Config) { c.Detector.Backend = "dlib" }, true},
		{"zero debounce", func(c *Config) { c.Workflow.DebounceDelay = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPolicyConfig_Policy(t *testing.T) {
	p := PolicyConfig{Tolerance: 5, MinFaceSize: 80, MaxFaceSize: 120}.Policy()
	if p.Tolerance != 5 || p.MinFaceSize != 80 || p.MaxFaceSize != 120 {
		t.Errorf("Policy() = %+v", p)
	}
}
