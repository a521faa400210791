package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/kozaktomas/photo-framer/internal/config"
	"github.com/kozaktomas/photo-framer/internal/facecheck"
	"github.com/kozaktomas/photo-framer/internal/logging"
	"github.com/kozaktomas/photo-framer/internal/web/middleware"
	"github.com/kozaktomas/photo-framer/internal/workflow"
)

// testConfig returns the embedded defaults
func testConfig() *config.Config {
	return config.Defaults()
}

// stubDetector always reports the same boxes in editor coordinates.
type stubDetector struct {
	boxes []facecheck.BoundingBox
	err   error
}

func (d *stubDetector) Name() string                   { return "stub" }
func (d *stubDetector) Load(ctx context.Context) error { return nil }
func (d *stubDetector) Loaded() bool                   { return true }
func (d *stubDetector) Detect(ctx context.Context, img image.Image) ([]facecheck.BoundingBox, error) {
	return d.boxes, d.err
}

// newTestManager creates a workflow manager with a 250px frame and matching editor size.
func newTestManager(t *testing.T, det *stubDetector) *workflow.Manager {
	t.Helper()
	m := workflow.NewManager(workflow.Options{
		Detector:      det,
		Policy:        facecheck.DefaultPolicy(),
		Frame:         facecheck.Frame{Width: 250, Height: 250},
		EditorSize:    250,
		DebounceDelay: 10 * time.Millisecond,
		Logger:        logging.Discard(),
	})
	t.Cleanup(m.Stop)
	return m
}

func newTestSessionsHandler(m *workflow.Manager) *SessionsHandler {
	return NewSessionsHandler(m, validator.New(), logging.Discard())
}

// requestWithSession creates a request with the session in context and chi {id} set
func requestWithSession(t *testing.T, method, path string, body *bytes.Buffer, s *workflow.Session) *http.Request {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	req = requestWithChiParams(req, map[string]string{"id": s.ID})
	return req.WithContext(middleware.SetSessionInContext(req.Context(), s))
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// testPNG encodes a small gradient image.
func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 40, 30))
	for y := range 30 {
		for x := range 40 {
			img.Set(x, y, color.NRGBA{R: uint8(x * 6), G: uint8(y * 8), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test PNG: %v", err)
	}
	return buf.Bytes()
}

// multipartBody builds a form with a single "file" part.
func multipartBody(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("creating multipart part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("writing multipart part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
