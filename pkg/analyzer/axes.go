package analyzer

import (
	"math"

	"github.com/menta2k/face-analyzer/pkg/geometry"
	"github.com/menta2k/face-analyzer/pkg/types"
)

// neutralAxis is the score used for pose and jawline when no dense mesh is
// available to derive them.
const neutralAxis = 50.0

// aggregateAxes collapses the quality report and geometry results into the
// five-axis record the classifier consumes. pose and proportions are nil
// when the detector supplied no mesh.
func aggregateAxes(quality types.QualityReport, pose *types.Pose, proportions *types.Proportions) types.AxisScores {
	// Sharpness: three estimators on rough normalization scales.
	sharpness := math.Min(100,
		quality.SharpnessLaplacian/1000*50+
			quality.SharpnessTenengrad/100000*30+
			quality.SharpnessFreq*20)

	lighting := quality.Exposure.Score*0.7 +
		(100-quality.Exposure.OverexposedPct-quality.Exposure.UnderexposedPct)*0.3

	poseScore := neutralAxis
	if pose != nil {
		poseScore = geometry.PoseScore(*pose)
	}

	jawlineScore := neutralAxis
	if proportions != nil {
		jawlineScore = geometry.JawlineScore(proportions.JawAngle, *proportions)
	}

	contrast := math.Min(100, quality.ContrastRMS*2)

	return types.AxisScores{
		Sharpness: sharpness,
		Lighting:  lighting,
		Pose:      poseScore,
		Jawline:   jawlineScore,
		Contrast:  contrast,
	}
}
