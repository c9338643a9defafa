// Package detection implements an LLM-backed face locator. It returns a
// bounding box and a confidence but no dense landmark mesh; pipelines that
// need geometry axes should use a mesh-capable backend instead.
package detection

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"regexp"
	"strings"
	"sync"

	"github.com/menta2k/face-analyzer/pkg/client"
	"github.com/menta2k/face-analyzer/pkg/processing"
	"github.com/menta2k/face-analyzer/pkg/types"
)

// FacePrompt asks a vision model to locate the primary face.
const FacePrompt = `You are a face locator.

Return JSON only:
{
  "found": true,
  "face": {
    "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0},
    "confidence": 0.0
  }
}

HARD RULES
- All coordinates are normalized to [0,1] (NOT pixels).
- The box should tightly include the single most prominent human face,
  from forehead to chin.
- confidence reflects how certain you are that the box contains a real face.
- If the image contains no human face, return:
  {"found": false, "face": {"box": {"x": 0, "y": 0, "w": 0, "h": 0}, "confidence": 0.0}}
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// Send-format defaults for the image attached to the prompt.
const (
	sendFormat  = "jpg"
	sendMaxDim  = 1536
	sendQuality = 85
)

// faceReply mirrors the JSON schema of FacePrompt.
type faceReply struct {
	Found bool `json:"found"`
	Face  struct {
		Box struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
			W float64 `json:"w"`
			H float64 `json:"h"`
		} `json:"box"`
		Confidence float64 `json:"confidence"`
	} `json:"face"`
}

// LLMDetector locates faces through a vision model. The model handle is
// non-reentrant: a mutex serializes Detect calls on one detector.
type LLMDetector struct {
	mu        sync.Mutex
	client    client.VisionClient
	processor *processing.Processor
	model     string
}

// NewLLMDetector creates a detector around a vision client and model name.
func NewLLMDetector(visionClient client.VisionClient, model string) *LLMDetector {
	return &LLMDetector{
		client:    visionClient,
		processor: processing.NewProcessor(),
		model:     model,
	}
}

// Detect locates the primary face. A (nil, nil) return means the model saw
// no face.
func (d *LLMDetector) Detect(ctx context.Context, img image.Image) (*types.Landmarks, error) {
	imgB64, err := d.processor.EncodeForDetector(img, sendFormat, sendMaxDim, sendQuality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image for detector: %w", err)
	}

	d.mu.Lock()
	raw, err := d.client.Query(ctx, d.model, FacePrompt, imgB64)
	d.mu.Unlock()
	if err != nil {
		return nil, err
	}

	reply, err := parseFaceReply(raw)
	if err != nil {
		return nil, err
	}
	if !reply.Found {
		return nil, nil
	}

	bounds := img.Bounds()
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	box := reply.Face.Box

	return &types.Landmarks{
		BBox: types.BBox{
			X: int(clamp01(box.X)*w + 0.5),
			Y: int(clamp01(box.Y)*h + 0.5),
			W: int(clamp01(box.W)*w + 0.5),
			H: int(clamp01(box.H)*h + 0.5),
		},
		Confidence: clamp01(reply.Face.Confidence),
	}, nil
}

// Close releases the detector. The vision client holds no resources that
// outlive a request.
func (d *LLMDetector) Close() error {
	return nil
}

// parseFaceReply extracts the face schema from a model response, tolerating
// fences and trailing commas. A response with no parseable JSON is treated
// as a miss, not an error.
func parseFaceReply(raw string) (*faceReply, error) {
	raw = sanitizeJSON(raw)
	if !strings.HasPrefix(raw, "{") {
		return &faceReply{Found: false}, nil
	}

	var reply faceReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return &faceReply{Found: false}, nil
	}
	return &reply, nil
}

var (
	reBlockComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment   = regexp.MustCompile(`(?m)//.*$`)
	reTrailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// sanitizeJSON strips code fences, comments, and trailing commas, keeping
// only the outermost JSON object.
func sanitizeJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.Trim(strings.TrimSpace(raw), "`")

	raw = reBlockComment.ReplaceAllString(raw, "")
	raw = reLineComment.ReplaceAllString(raw, "")
	raw = reTrailingComma.ReplaceAllString(raw, "$1")

	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
