package client

import (
	"context"
	"image"

	"github.com/menta2k/face-analyzer/pkg/types"
)

// FaceDetector locates a face in an image. A (nil, nil) return is the
// distinct "no face" signal. Implementations own a non-reentrant backend
// handle: they must be initialized once, must not be invoked concurrently
// on the same handle, and are released with Close.
type FaceDetector interface {
	Detect(ctx context.Context, img image.Image) (*types.Landmarks, error)
	Close() error
}

// VisionClient is a minimal chat interface to a multimodal model, used by
// the LLM-backed face locator.
type VisionClient interface {
	Query(ctx context.Context, model, prompt, imgB64 string) (string, error)
}
