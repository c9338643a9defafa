package geometry

import (
	"math"
	"testing"

	"github.com/menta2k/face-analyzer/pkg/types"
)

// createFrontalMesh builds a symmetric synthetic mesh. Every point defaults
// to the face center; the semantic landmarks are placed explicitly.
func createFrontalMesh() []types.Point {
	mesh := make([]types.Point, types.MeshSize)
	for i := range mesh {
		mesh[i] = types.Point{X: 160, Y: 200}
	}
	mesh[LeftEyeOuter] = types.Point{X: 110, Y: 150}
	mesh[RightEyeOuter] = types.Point{X: 210, Y: 150}
	mesh[NoseTip] = types.Point{X: 160, Y: 200}
	mesh[Chin] = types.Point{X: 160, Y: 310}
	mesh[LeftJaw] = types.Point{X: 95, Y: 250}
	mesh[RightJaw] = types.Point{X: 225, Y: 250}
	mesh[LeftMouth] = types.Point{X: 130, Y: 265}
	mesh[RightMouth] = types.Point{X: 190, Y: 265}
	mesh[LeftCheekbone] = types.Point{X: 100, Y: 200}
	mesh[RightCheekbone] = types.Point{X: 220, Y: 200}
	mesh[Forehead] = types.Point{X: 160, Y: 90}
	return mesh
}

func TestCalculatePoseFrontal(t *testing.T) {
	pose := CalculatePose(createFrontalMesh())

	if math.Abs(pose.Yaw) > 1e-9 {
		t.Errorf("Expected zero yaw for centered nose, got %f", pose.Yaw)
	}
	if math.Abs(pose.Roll) > 1e-9 {
		t.Errorf("Expected zero roll for level eyes, got %f", pose.Roll)
	}
	// The pitch formula measures the nose-to-chin vector's vertical
	// component against its own length, so a straight-down vector reads 45.
	if math.Abs(pose.Pitch-45) > 1e-9 {
		t.Errorf("Expected pitch 45 for vertical nose-chin vector, got %f", pose.Pitch)
	}
}

func TestCalculatePoseYawFromNoseOffset(t *testing.T) {
	mesh := createFrontalMesh()
	mesh[NoseTip] = types.Point{X: 210, Y: 200} // nose pushed toward the right eye

	pose := CalculatePose(mesh)

	// atan2(50, 50) = 45 degrees
	if math.Abs(pose.Yaw-45) > 1e-9 {
		t.Errorf("Expected yaw 45, got %f", pose.Yaw)
	}
}

func TestCalculatePoseRollFromTiltedEyes(t *testing.T) {
	mesh := createFrontalMesh()
	mesh[RightEyeOuter] = types.Point{X: 210, Y: 250} // right eye dropped by 100

	pose := CalculatePose(mesh)

	if math.Abs(pose.Roll-45) > 1e-9 {
		t.Errorf("Expected roll 45 for diagonal eye line, got %f", pose.Roll)
	}
}

func TestCalculatePoseShortMesh(t *testing.T) {
	for _, mesh := range [][]types.Point{nil, make([]types.Point, 10)} {
		pose := CalculatePose(mesh)
		if pose != (types.Pose{}) {
			t.Errorf("Expected neutral pose for short mesh, got %+v", pose)
		}
	}
}

func TestCalculateJawAngle(t *testing.T) {
	angle := CalculateJawAngle(createFrontalMesh())

	// chin (160,310), jaw corners at (95,250) and (225,250):
	// cos = (-65*65 + 60*60) / (hypot(65,60)^2) yields about 94.6 degrees.
	if math.Abs(angle-94.58) > 0.05 {
		t.Errorf("Expected jaw angle near 94.58, got %f", angle)
	}
}

func TestCalculateJawAngleDefaults(t *testing.T) {
	if got := CalculateJawAngle(nil); got != 90.0 {
		t.Errorf("Expected 90 for missing mesh, got %f", got)
	}

	// Jaw landmarks coincident with the chin leave zero-length vectors.
	mesh := createFrontalMesh()
	mesh[LeftJaw] = mesh[Chin]
	if got := CalculateJawAngle(mesh); got != 90.0 {
		t.Errorf("Expected 90 for degenerate jaw vectors, got %f", got)
	}
}

func TestCalculateProportionsFrontal(t *testing.T) {
	p := CalculateProportions(createFrontalMesh())

	if math.Abs(p.EyeDistance-100) > 1e-9 {
		t.Errorf("Expected eye distance 100, got %f", p.EyeDistance)
	}
	if math.Abs(p.FaceWidth-130) > 1e-9 {
		t.Errorf("Expected face width 130, got %f", p.FaceWidth)
	}
	if math.Abs(p.FaceHeight-220) > 1e-9 {
		t.Errorf("Expected face height 220, got %f", p.FaceHeight)
	}
	// The synthetic mesh is perfectly mirrored across x=160.
	if math.Abs(p.SymmetryScore-100) > 1e-9 {
		t.Errorf("Expected symmetry 100 for mirrored mesh, got %f", p.SymmetryScore)
	}
	if math.Abs(p.CheekboneProminence-120.0/130.0*100) > 1e-6 {
		t.Errorf("Unexpected cheekbone prominence %f", p.CheekboneProminence)
	}
}

func TestCalculateProportionsAsymmetry(t *testing.T) {
	mesh := createFrontalMesh()
	mesh[RightMouth] = types.Point{X: 205, Y: 270}

	symmetric := CalculateProportions(createFrontalMesh())
	skewed := CalculateProportions(mesh)

	if skewed.SymmetryScore >= symmetric.SymmetryScore {
		t.Errorf("Expected asymmetric mesh to score lower: %f vs %f",
			skewed.SymmetryScore, symmetric.SymmetryScore)
	}
	if skewed.SymmetryScore < 0 {
		t.Errorf("Symmetry below floor: %f", skewed.SymmetryScore)
	}
}

func TestCalculateProportionsDefaults(t *testing.T) {
	p := CalculateProportions(nil)
	if p.JawAngle != 90.0 {
		t.Errorf("Expected jaw angle 90 for missing mesh, got %f", p.JawAngle)
	}
	if p.SymmetryScore != 0 || p.FaceWidth != 0 {
		t.Errorf("Expected zero measurements for missing mesh, got %+v", p)
	}
}

func TestCalculateProportionsZeroFaceWidth(t *testing.T) {
	mesh := createFrontalMesh()
	mesh[LeftJaw] = types.Point{X: 160, Y: 250}
	mesh[RightJaw] = types.Point{X: 160, Y: 250}

	p := CalculateProportions(mesh)
	if p.SymmetryScore != 0 {
		t.Errorf("Expected symmetry 0 at zero face width, got %f", p.SymmetryScore)
	}
	if p.CheekboneProminence != 0 {
		t.Errorf("Expected prominence 0 at zero face width, got %f", p.CheekboneProminence)
	}
}

func TestPoseScore(t *testing.T) {
	if got := PoseScore(types.Pose{}); got != 100 {
		t.Errorf("Expected 100 for frontal pose, got %f", got)
	}

	got := PoseScore(types.Pose{Yaw: 10, Pitch: 20, Roll: 5})
	expected := 80*0.4 + 60*0.4 + 90*0.2
	if math.Abs(got-expected) > 1e-9 {
		t.Errorf("Expected %f, got %f", expected, got)
	}

	// Extreme angles floor each component at zero.
	if got := PoseScore(types.Pose{Yaw: 90, Pitch: 90, Roll: 90}); got != 0 {
		t.Errorf("Expected 0 for extreme pose, got %f", got)
	}
}

func TestJawlineScore(t *testing.T) {
	ideal := JawlineScore(70, types.Proportions{SymmetryScore: 100})
	if ideal != 100 {
		t.Errorf("Expected 100 at ideal angle and perfect symmetry, got %f", ideal)
	}

	got := JawlineScore(80, types.Proportions{SymmetryScore: 50})
	expected := 80*0.6 + 50*0.4
	if math.Abs(got-expected) > 1e-9 {
		t.Errorf("Expected %f, got %f", expected, got)
	}

	// Deviation is symmetric around the ideal angle.
	if JawlineScore(60, types.Proportions{}) != JawlineScore(80, types.Proportions{}) {
		t.Error("Expected equal scores at equal deviation from 70")
	}
}

func TestDetectOcclusions(t *testing.T) {
	got := DetectOcclusions(createFrontalMesh())
	if got != (Occlusions{}) {
		t.Errorf("Expected no occlusion flags, got %+v", got)
	}
}

func BenchmarkCalculateProportions(b *testing.B) {
	mesh := createFrontalMesh()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		CalculateProportions(mesh)
	}
}
