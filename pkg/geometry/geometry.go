// Package geometry derives pose angles and facial proportions from a dense
// landmark mesh.
package geometry

import (
	"math"

	"github.com/menta2k/face-analyzer/pkg/types"
)

// Semantic indices into the 468-point face mesh.
const (
	LeftEyeOuter   = 33
	LeftEyeInner   = 133
	RightEyeOuter  = 263
	RightEyeInner  = 362
	NoseTip        = 4
	LeftMouth      = 61
	RightMouth     = 291
	Chin           = 152
	LeftJaw        = 172
	RightJaw       = 397
	LeftCheekbone  = 116
	RightCheekbone = 345
	Forehead       = 10
)

const radToDeg = 180 / math.Pi

// CalculatePose derives yaw, pitch and roll in degrees from a dense mesh.
// A missing or short mesh yields the neutral (0,0,0) pose.
func CalculatePose(mesh []types.Point) types.Pose {
	if len(mesh) < types.MeshSize {
		return types.Pose{}
	}

	leftEye := mesh[LeftEyeOuter]
	rightEye := mesh[RightEyeOuter]
	noseTip := mesh[NoseTip]
	chin := mesh[Chin]

	// Roll: angle of the eye-to-eye vector against horizontal.
	eyeVecX := rightEye.X - leftEye.X
	eyeVecY := rightEye.Y - leftEye.Y
	roll := math.Atan2(eyeVecY, eyeVecX) * radToDeg

	// Pitch: vertical component of the nose-to-chin vector against its length.
	vx := chin.X - noseTip.X
	vy := chin.Y - noseTip.Y
	pitch := math.Atan2(vy, math.Hypot(vx, vy)) * radToDeg

	// Yaw: horizontal nose offset from the eye center against half the
	// inter-eye distance.
	eyeCenterX := (leftEye.X + rightEye.X) / 2
	noseOffsetX := noseTip.X - eyeCenterX
	eyeWidth := math.Hypot(eyeVecX, eyeVecY)
	yaw := math.Atan2(noseOffsetX, eyeWidth/2) * radToDeg

	return types.Pose{Yaw: yaw, Pitch: pitch, Roll: roll}
}

// CalculateJawAngle returns the angle in degrees at the chin between the
// chin-to-left-jaw and chin-to-right-jaw vectors. A missing mesh yields the
// neutral right angle.
func CalculateJawAngle(mesh []types.Point) float64 {
	if len(mesh) < types.MeshSize {
		return 90.0
	}

	chin := mesh[Chin]
	v1x, v1y := mesh[LeftJaw].X-chin.X, mesh[LeftJaw].Y-chin.Y
	v2x, v2y := mesh[RightJaw].X-chin.X, mesh[RightJaw].Y-chin.Y

	n1 := math.Hypot(v1x, v1y)
	n2 := math.Hypot(v2x, v2y)
	if n1 == 0 || n2 == 0 {
		return 90.0
	}

	cos := (v1x*v2x + v1y*v2y) / (n1 * n2)
	// Guard against rounding pushing the argument outside acos's domain.
	if cos > 1 {
		cos = 1
	}
	if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) * radToDeg
}

// CalculateProportions derives facial measurements from a dense mesh.
// A missing or short mesh yields neutral defaults.
func CalculateProportions(mesh []types.Point) types.Proportions {
	if len(mesh) < types.MeshSize {
		return types.Proportions{JawAngle: 90.0}
	}

	leftEye := mesh[LeftEyeOuter]
	rightEye := mesh[RightEyeOuter]
	eyeDistance := dist2d(leftEye, rightEye)

	leftSide := mesh[LeftJaw]
	rightSide := mesh[RightJaw]
	faceWidth := dist2d(leftSide, rightSide)
	faceHeight := dist2d(mesh[Forehead], mesh[Chin])

	// Symmetry: mirror the right-side landmarks across the face's vertical
	// midline and measure how far they land from their left counterparts.
	faceCenterX := (leftSide.X + rightSide.X) / 2
	pairs := [][2]int{
		{LeftEyeOuter, RightEyeOuter},
		{LeftJaw, RightJaw},
		{LeftMouth, RightMouth},
		{LeftCheekbone, RightCheekbone},
	}
	var total float64
	for _, pair := range pairs {
		left := mesh[pair[0]]
		right := mesh[pair[1]]
		mirroredX := 2*faceCenterX - right.X
		total += math.Hypot(left.X-mirroredX, left.Y-right.Y)
	}
	avgDistance := total / float64(len(pairs))

	symmetry := 0.0
	if faceWidth > 0 {
		symmetry = math.Max(0, 100-avgDistance/faceWidth*100)
	}

	cheekWidth := dist2d(mesh[LeftCheekbone], mesh[RightCheekbone])
	cheekboneProminence := 0.0
	if faceWidth > 0 {
		cheekboneProminence = cheekWidth / faceWidth * 100
	}

	return types.Proportions{
		JawAngle:            CalculateJawAngle(mesh),
		EyeDistance:         eyeDistance,
		FaceWidth:           faceWidth,
		FaceHeight:          faceHeight,
		SymmetryScore:       symmetry,
		CheekboneProminence: cheekboneProminence,
	}
}

// PoseScore maps a pose to a 0-100 quality score; the ideal pose is a
// fully frontal face.
func PoseScore(pose types.Pose) float64 {
	yawScore := math.Max(0, 100-math.Abs(pose.Yaw)*2)
	pitchScore := math.Max(0, 100-math.Abs(pose.Pitch)*2)
	rollScore := math.Max(0, 100-math.Abs(pose.Roll)*2)
	return yawScore*0.4 + pitchScore*0.4 + rollScore*0.2
}

// JawlineScore maps a jaw angle and the symmetry score to a 0-100 quality
// score. The ideal jaw angle is around 70 degrees.
func JawlineScore(jawAngle float64, proportions types.Proportions) float64 {
	angleScore := math.Max(0, 100-math.Abs(jawAngle-70)*2)
	return angleScore*0.6 + proportions.SymmetryScore*0.4
}

// Occlusions flags facial regions covered by glasses, a mask, or a hand.
type Occlusions struct {
	Glasses bool `json:"glasses"`
	Mask    bool `json:"mask"`
	Hand    bool `json:"hand"`
}

// DetectOcclusions is a declared extension point. The current
// implementation reports no occlusions.
func DetectOcclusions(mesh []types.Point) Occlusions {
	return Occlusions{}
}

func dist2d(a, b types.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
