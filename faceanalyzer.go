// Package faceanalyzer turns a detected face's geometry and image-quality
// signals into a categorical style label with a confidence score and
// human-readable justifications.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		faceanalyzer "github.com/menta2k/face-analyzer"
//		"github.com/menta2k/face-analyzer/pkg/mesh"
//	)
//
//	func main() {
//		// Connect a mesh-capable detector backend
//		detector, err := mesh.NewClient("http://localhost:9090")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		fa := faceanalyzer.New(detector)
//		defer fa.Close()
//
//		result, err := fa.AnalyzeFile(context.Background(), "portrait.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		fmt.Printf("label=%s confidence=%.2f abstain=%v\n",
//			result.Label, result.Confidence, result.Abstain)
//		for _, reason := range result.Reasons {
//			fmt.Println("  -", reason)
//		}
//	}
//
// The pipeline runs in five stages: an external detector supplies a
// bounding box, an optional 468-point landmark mesh, and a confidence; the
// face region is cropped; quality metrics and geometry are computed; the
// results collapse into five axes (sharpness, lighting, pose, jawline,
// contrast); and a deterministic rule ladder maps the axes to one of six
// labels (god, mogged, sigma, average, meh, trash). An abstention gate
// marks results the system declines to assert confidently.
//
// Every analysis is a synchronous, stateless computation. The only shared
// resource is the detector handle, which is owned by the analyzer and
// released by Close.
package faceanalyzer

import (
	"context"
	"image"

	"github.com/menta2k/face-analyzer/pkg/analyzer"
	"github.com/menta2k/face-analyzer/pkg/client"
	"github.com/menta2k/face-analyzer/pkg/processing"
	"github.com/menta2k/face-analyzer/pkg/types"
)

// Version of the face analyzer library.
const Version = "1.0.0"

// FaceAnalyzer is the high-level entry point: image loading plus the full
// analysis pipeline.
type FaceAnalyzer struct {
	pipeline  *analyzer.FaceAnalyzer
	processor *processing.Processor
}

// New creates a FaceAnalyzer around the given detector backend.
func New(detector client.FaceDetector, opts ...analyzer.Option) *FaceAnalyzer {
	return &FaceAnalyzer{
		pipeline:  analyzer.New(detector, opts...),
		processor: processing.NewProcessor(),
	}
}

// AnalyzeImage runs the pipeline on an already decoded image.
func (fa *FaceAnalyzer) AnalyzeImage(ctx context.Context, img image.Image) (*types.AnalysisResult, error) {
	return fa.pipeline.Analyze(ctx, img)
}

// AnalyzeFile loads an image from a file path or URL and analyzes it. An
// undecodable input produces a structured abstain result, not an error.
func (fa *FaceAnalyzer) AnalyzeFile(ctx context.Context, source string) (*types.AnalysisResult, error) {
	img, err := fa.processor.LoadImageSmart(source)
	if err != nil {
		return fa.pipeline.Analyze(ctx, nil)
	}
	return fa.pipeline.Analyze(ctx, img)
}

// Close releases the detector handle.
func (fa *FaceAnalyzer) Close() error {
	return fa.pipeline.Close()
}

// GetVersion returns the library version.
func GetVersion() string {
	return Version
}
