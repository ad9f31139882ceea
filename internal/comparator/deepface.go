package comparator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/kozaktomas/face-attendance/internal/constants"
)

const defaultDeepFaceURL = "http://localhost:5005"

// DeepFaceClient compares faces using a DeepFace-style HTTP service
type DeepFaceClient struct {
	baseURL      string
	model        string
	detector     string
	metric       string
	antiSpoofing bool
	client       *http.Client
}

// DeepFaceOption configures a DeepFaceClient
type DeepFaceOption func(*DeepFaceClient)

// WithModel sets the recognition model, e.g. Facenet or ArcFace
func WithModel(model string) DeepFaceOption {
	return func(c *DeepFaceClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithDetector sets the face detector backend
func WithDetector(detector string) DeepFaceOption {
	return func(c *DeepFaceClient) {
		if detector != "" {
			c.detector = detector
		}
	}
}

// WithMetric sets the distance metric
func WithMetric(metric string) DeepFaceOption {
	return func(c *DeepFaceClient) {
		if metric != "" {
			c.metric = metric
		}
	}
}

// WithAntiSpoofing toggles the anti-spoofing flag sent to extract_faces
func WithAntiSpoofing(enabled bool) DeepFaceOption {
	return func(c *DeepFaceClient) {
		c.antiSpoofing = enabled
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(client *http.Client) DeepFaceOption {
	return func(c *DeepFaceClient) {
		if client != nil {
			c.client = client
		}
	}
}

// NewDeepFaceClient creates a new DeepFace client
func NewDeepFaceClient(baseURL string, opts ...DeepFaceOption) *DeepFaceClient {
	if baseURL == "" {
		baseURL = defaultDeepFaceURL
	}
	c := &DeepFaceClient{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		model:        constants.DefaultComparatorModel,
		detector:     constants.DefaultComparatorDetector,
		metric:       constants.DefaultComparatorMetric,
		antiSpoofing: true,
		client:       &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the recognition model name being used
func (c *DeepFaceClient) Model() string {
	return c.model
}

// verifyResponse represents the response from the verify endpoint
type verifyResponse struct {
	Verified  bool    `json:"verified"`
	Distance  float64 `json:"distance"`
	Threshold float64 `json:"threshold"`
	Model     string  `json:"model"`
}

type facialArea struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type extractedFace struct {
	FacialArea     facialArea `json:"facial_area"`
	Confidence     float64    `json:"confidence"`
	IsReal         *bool      `json:"is_real"`
	AntiSpoofScore float64    `json:"antispoof_score"`
}

// extractResponse represents the response from the extract_faces endpoint
type extractResponse struct {
	Results []extractedFace `json:"results"`
}

// formFile is one file part of a multipart request
type formFile struct {
	field string
	src   Source
}

// postMultipart builds a multipart form from the given files and fields and posts it to endpoint.
// Each file part carries a Content-Type header detected from its magic bytes.
func (c *DeepFaceClient) postMultipart(ctx context.Context, endpoint string, files []formFile, fields map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, f := range files {
		data, err := readSource(ctx, f.src)
		if err != nil {
			return nil, err
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.src.Name()))
		h.Set("Content-Type", detectMIMEType(data))
		part, err := writer.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := part.Write(data); err != nil {
			return nil, fmt.Errorf("failed to write image data: %w", err)
		}
	}

	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("failed to write field %s: %w", name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return body, nil
}

func readSource(ctx context.Context, src Source) ([]byte, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", src.Name(), err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", src.Name(), err)
	}
	return data, nil
}

// Distance verifies a against b and returns the reported distance
func (c *DeepFaceClient) Distance(ctx context.Context, a, b Source) (float64, error) {
	body, err := c.postMultipart(ctx, "/verify",
		[]formFile{{field: "img1", src: a}, {field: "img2", src: b}},
		map[string]string{
			"model_name":        c.model,
			"detector_backend":  c.detector,
			"distance_metric":   c.metric,
			"enforce_detection": "false",
		})
	if err != nil {
		return 0, err
	}

	var verResp verifyResponse
	if err := json.Unmarshal(body, &verResp); err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}
	if verResp.Distance < 0 {
		return 0, fmt.Errorf("negative distance %v returned", verResp.Distance)
	}

	return verResp.Distance, nil
}

// Liveness extracts faces from img with anti-spoofing enabled
func (c *DeepFaceClient) Liveness(ctx context.Context, img Source) ([]Region, error) {
	body, err := c.postMultipart(ctx, "/extract_faces",
		[]formFile{{field: "img", src: img}},
		map[string]string{
			"anti_spoofing":    strconv.FormatBool(c.antiSpoofing),
			"detector_backend": c.detector,
		})
	if err != nil {
		return nil, err
	}

	var extResp extractResponse
	if err := json.Unmarshal(body, &extResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	regions := make([]Region, 0, len(extResp.Results))
	for _, face := range extResp.Results {
		// Without anti-spoofing the service omits is_real; treat the face as live.
		isReal := true
		if face.IsReal != nil {
			isReal = *face.IsReal
		}
		regions = append(regions, Region{
			X:              face.FacialArea.X,
			Y:              face.FacialArea.Y,
			W:              face.FacialArea.W,
			H:              face.FacialArea.H,
			Confidence:     face.Confidence,
			IsReal:         isReal,
			AntiSpoofScore: face.AntiSpoofScore,
		})
	}
	return regions, nil
}

// detectMIMEType detects the MIME type from image data
func detectMIMEType(data []byte) string {
	if len(data) < 8 {
		return "application/octet-stream"
	}
	// JPEG: FF D8 FF
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "image/jpeg"
	}
	// PNG: 89 50 4E 47 0D 0A 1A 0A
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}
	// GIF: 47 49 46 38
	if data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x38 {
		return "image/gif"
	}
	// BMP: 42 4D
	if data[0] == 0x42 && data[1] == 0x4D {
		return "image/bmp"
	}
	// WebP: 52 49 46 46 ... 57 45 42 50
	if len(data) >= 12 && data[0] == 0x52 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x46 &&
		data[8] == 0x57 && data[9] == 0x45 && data[10] == 0x42 && data[11] == 0x50 {
		return "image/webp"
	}
	return "application/octet-stream"
}
