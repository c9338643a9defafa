// Package mesh implements a face detector backed by a dense-landmark HTTP
// service (a MediaPipe-style face mesh server). It is the only backend that
// supplies the 468-point mesh the geometry axes need.
package mesh

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/menta2k/face-analyzer/pkg/processing"
	"github.com/menta2k/face-analyzer/pkg/types"
)

const defaultServerURL = "http://localhost:9090"

// Send-format defaults for the request payload.
const (
	sendFormat  = "jpg"
	sendQuality = 92
)

// Client talks to a landmark service over HTTP. The handle is
// non-reentrant: a mutex serializes Detect calls.
type Client struct {
	mu         sync.Mutex
	baseURL    string
	httpClient *http.Client
	processor  *processing.Processor
}

// landmarkRequest is the request payload: a base64 JPEG.
type landmarkRequest struct {
	Image string `json:"image"`
}

// landmarkResponse is the service reply. Box coordinates are pixels in the
// submitted image; mesh points are [x, y, z] with pixel-scale x/y.
type landmarkResponse struct {
	Found      bool         `json:"found"`
	Confidence float64      `json:"confidence"`
	Box        types.BBox   `json:"box"`
	Mesh       [][3]float64 `json:"mesh,omitempty"`
}

// NewClient creates a mesh service client.
func NewClient(serverURL string) (*Client, error) {
	if serverURL == "" {
		serverURL = defaultServerURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(serverURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		processor:  processing.NewProcessor(),
	}, nil
}

// Detect submits the image and converts the reply into Landmarks. A reply
// without a face yields (nil, nil). A mesh with the wrong point count is
// dropped while the box and confidence are kept.
func (c *Client) Detect(ctx context.Context, img image.Image) (*types.Landmarks, error) {
	imgB64, err := c.processor.EncodeForDetector(img, sendFormat, 0, sendQuality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image for mesh service: %w", err)
	}

	body, err := json.Marshal(landmarkRequest{Image: imgB64})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal mesh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/landmarks", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create mesh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.mu.Lock()
	resp, err := c.httpClient.Do(req)
	c.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("mesh service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("mesh service returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var reply landmarkResponse
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("failed to decode mesh response: %w", err)
	}
	if !reply.Found {
		return nil, nil
	}

	landmarks := &types.Landmarks{
		BBox:       reply.Box,
		Confidence: reply.Confidence,
	}
	if len(reply.Mesh) == types.MeshSize {
		landmarks.Mesh = make([]types.Point, types.MeshSize)
		for i, p := range reply.Mesh {
			landmarks.Mesh[i] = types.Point{X: p[0], Y: p[1], Z: p[2]}
		}
	}
	return landmarks, nil
}

// Close releases idle connections held by the HTTP client.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
