// Package analyzer sequences detection, cropping, quality metrics,
// geometry, axis aggregation, the abstention gate, and classification into
// a single analysis pipeline.
package analyzer

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/menta2k/face-analyzer/pkg/classifier"
	"github.com/menta2k/face-analyzer/pkg/client"
	"github.com/menta2k/face-analyzer/pkg/geometry"
	"github.com/menta2k/face-analyzer/pkg/processing"
	"github.com/menta2k/face-analyzer/pkg/quality"
	"github.com/menta2k/face-analyzer/pkg/types"
)

// DefaultModelVersion tags results whose construction left the version unset.
const DefaultModelVersion = "1.0.0"

// Abstention thresholds.
const (
	minDetectionConfidence = 0.3
	maxAbsPoseAngle        = 45.0
	minAxisMean            = 20.0
)

// FaceAnalyzer runs the analysis pipeline. It owns the detector handle for
// its lifetime; construct it once, use it from a single worker, and call
// Close on shutdown.
type FaceAnalyzer struct {
	detector     client.FaceDetector
	strategy     classifier.Strategy
	modelVersion string
}

// Option configures a FaceAnalyzer.
type Option func(*FaceAnalyzer)

// WithModelVersion overrides the version tag stamped on every result.
func WithModelVersion(version string) Option {
	return func(a *FaceAnalyzer) { a.modelVersion = version }
}

// WithStrategy swaps the classification strategy. The rule ladder is the
// default and the only strategy that produces calibrated output today.
func WithStrategy(s classifier.Strategy) Option {
	return func(a *FaceAnalyzer) { a.strategy = s }
}

// New creates a FaceAnalyzer around the given detector.
func New(detector client.FaceDetector, opts ...Option) *FaceAnalyzer {
	a := &FaceAnalyzer{
		detector:     detector,
		strategy:     classifier.NewRuleBased(),
		modelVersion: DefaultModelVersion,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Close releases the detector handle.
func (a *FaceAnalyzer) Close() error {
	if a.detector == nil {
		return nil
	}
	return a.detector.Close()
}

// abstainResult is the terminal short-circuit for a stage failure: a valid,
// low-confidence result rather than an error.
func (a *FaceAnalyzer) abstainResult(reason string) *types.AnalysisResult {
	return &types.AnalysisResult{
		OK:           false,
		Label:        classifier.LabelMeh,
		Confidence:   0,
		Reasons:      []string{reason},
		Abstain:      true,
		ModelVersion: a.modelVersion,
	}
}

// Analyze runs the full pipeline on a decoded image. Image-content problems
// (no face, empty crop) come back as abstain results; only detector
// transport faults surface as errors.
func (a *FaceAnalyzer) Analyze(ctx context.Context, img image.Image) (*types.AnalysisResult, error) {
	if img == nil {
		return a.abstainResult("could not load image"), nil
	}

	landmarks, err := a.detector.Detect(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("face detection failed: %w", err)
	}
	if landmarks == nil {
		return a.abstainResult("no face detected"), nil
	}

	faceRegion, err := processing.CropToBBox(img, landmarks.BBox)
	if err != nil {
		return a.abstainResult("could not extract face region"), nil
	}

	// Metrics run on the extracted face region; the bokeh box therefore
	// spans the whole region.
	report := quality.Report(faceRegion, types.BBox{X: 0, Y: 0, W: landmarks.BBox.W, H: landmarks.BBox.H})

	var pose *types.Pose
	var proportions *types.Proportions
	if landmarks.HasMesh() {
		p := geometry.CalculatePose(landmarks.Mesh)
		pr := geometry.CalculateProportions(landmarks.Mesh)
		pose, proportions = &p, &pr
	}

	axes := aggregateAxes(report, pose, proportions)
	abstain := a.shouldAbstain(axes, landmarks.Confidence, pose)
	classification := a.strategy.Classify(axes)
	reasons := buildReasons(classification.Reasons, report, pose, proportions)

	return &types.AnalysisResult{
		OK:           true,
		Axes:         axes,
		Label:        classification.Label,
		Confidence:   classification.Confidence,
		Reasons:      reasons,
		Abstain:      abstain,
		ModelVersion: a.modelVersion,
		Pose:         pose,
		Proportions:  proportions,
		Quality:      &report,
	}, nil
}

// shouldAbstain decides whether the pipeline declines to assert a label.
// The result is still returned either way.
func (a *FaceAnalyzer) shouldAbstain(axes types.AxisScores, confidence float64, pose *types.Pose) bool {
	if confidence < minDetectionConfidence {
		return true
	}
	if pose != nil && (math.Abs(pose.Yaw) > maxAbsPoseAngle || math.Abs(pose.Pitch) > maxAbsPoseAngle) {
		return true
	}
	return axes.Mean() < minAxisMean
}

// buildReasons appends technical notes after the classifier's reasons:
// pose tilt with the numeric angle, signed exposure offset, and low
// symmetry. The notes are independent and may co-occur.
func buildReasons(base []string, report types.QualityReport, pose *types.Pose, proportions *types.Proportions) []string {
	reasons := make([]string, len(base))
	copy(reasons, base)

	if pose != nil {
		if math.Abs(pose.Yaw) > 15 {
			reasons = append(reasons, fmt.Sprintf("head turned to the side (yaw≈%.1f°)", pose.Yaw))
		}
		if math.Abs(pose.Pitch) > 15 {
			reasons = append(reasons, fmt.Sprintf("head tilted (pitch≈%.1f°)", pose.Pitch))
		}
	}

	if math.Abs(report.Exposure.Diff) > 10 {
		reasons = append(reasons, fmt.Sprintf("exposure %+.0f", report.Exposure.Diff))
	}

	if proportions != nil && proportions.SymmetryScore < 70 {
		reasons = append(reasons, "low facial symmetry")
	}

	return reasons
}
