package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/kozaktomas/photo-framer/internal/facecheck"
)

const (
	defaultRemoteURL      = "http://localhost:8000"
	defaultRemoteMinScore = 0.5
	remoteDuplicateIoU    = 0.5
	remoteRequestTimeout  = 30 * time.Second
)

// faceDetection represents a single face returned by the embedding server
type faceDetection struct {
	FaceIndex int       `json:"face_index"`
	BBox      []float64 `json:"bbox"` // [x1, y1, x2, y2]
	DetScore  float64   `json:"det_score"`
}

// faceResponse represents the response from the face embedding endpoint
type faceResponse struct {
	FacesCount int             `json:"faces_count"`
	Faces      []faceDetection `json:"faces"`
	Model      string          `json:"model"`
}

// RemoteDetector delegates detection to an InsightFace-style embedding server.
type RemoteDetector struct {
	baseURL  string
	minScore float64
	client   *http.Client
	loader   *ModelLoader
}

// NewRemoteDetector creates a detector that posts frames to baseURL + /embed/face.
func NewRemoteDetector(baseURL string, minScore float64) *RemoteDetector {
	if baseURL == "" {
		baseURL = defaultRemoteURL
	}
	if minScore <= 0 || minScore > 1 {
		minScore = defaultRemoteMinScore
	}
	d := &RemoteDetector{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		minScore: minScore,
		client:   &http.Client{Timeout: remoteRequestTimeout},
	}
	d.loader = NewModelLoader(d.ping)
	return d
}

// Name returns the backend name.
func (d *RemoteDetector) Name() string {
	return BackendRemote
}

// Load checks once that the server is reachable.
func (d *RemoteDetector) Load(ctx context.Context) error {
	return d.loader.Load(ctx)
}

// Loaded reports whether the server has answered a health check.
func (d *RemoteDetector) Loaded() bool {
	return d.loader.Loaded()
}

func (d *RemoteDetector) ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

// postMultipartImage posts the image as a multipart "file" field and returns the body.
func (d *RemoteDetector) postMultipartImage(ctx context.Context, endpoint string, imageData []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="frame.jpg"`)
	h.Set("Content-Type", "image/jpeg")
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// Detect sends img to the server and converts the returned corner boxes.
func (d *RemoteDetector) Detect(ctx context.Context, img image.Image) ([]facecheck.BoundingBox, error) {
	if !d.Loaded() {
		return nil, ErrModelNotLoaded
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrDetection)
	}

	var encoded bytes.Buffer
	if err := imaging.Encode(&encoded, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("%w: encoding frame: %w", ErrDetection, err)
	}

	body, err := d.postMultipartImage(ctx, "/embed/face", encoded.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDetection, err)
	}

	var faceResp faceResponse
	if err := json.Unmarshal(body, &faceResp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %w", ErrDetection, err)
	}

	boxes := make([]facecheck.BoundingBox, 0, len(faceResp.Faces))
	for _, face := range faceResp.Faces {
		if face.DetScore < d.minScore {
			continue
		}
		box, ok := facecheck.FromCorners(face.BBox)
		if !ok || box.Width <= 0 || box.Height <= 0 {
			continue
		}
		boxes = append(boxes, box)
	}
	return facecheck.Dedupe(boxes, remoteDuplicateIoU), nil
}

var _ Detector = (*RemoteDetector)(nil)
