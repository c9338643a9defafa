package types

// MeshSize is the number of points in a dense face landmark mesh.
// Detectors that cannot produce a mesh leave Landmarks.Mesh nil.
const MeshSize = 468

// Point is a single 3D landmark. X and Y are in pixel space, Z is
// relative to the pixel scale of X.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// BBox is a pixel-space bounding box.
type BBox struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Landmarks is the output of a face detector: a bounding box, an optional
// dense mesh of MeshSize points, and the detector's confidence in [0,1].
// A nil *Landmarks means no face was detected; that is a valid signal,
// not an error.
type Landmarks struct {
	BBox       BBox    `json:"bbox"`
	Mesh       []Point `json:"mesh,omitempty"`
	Confidence float64 `json:"confidence"`
}

// HasMesh reports whether a full dense mesh is available.
func (l *Landmarks) HasMesh() bool {
	return l != nil && len(l.Mesh) >= MeshSize
}

// Exposure holds the exposure sub-metrics of a face region.
type Exposure struct {
	Score           float64 `json:"score"`
	MeanBrightness  float64 `json:"mean_brightness"`
	OverexposedPct  float64 `json:"overexposed_pct"`
	UnderexposedPct float64 `json:"underexposed_pct"`
	Diff            float64 `json:"exposure_diff"`
}

// QualityReport contains all image-quality metrics for a face region.
type QualityReport struct {
	SharpnessLaplacian float64  `json:"sharpness_laplacian"`
	SharpnessTenengrad float64  `json:"sharpness_tenengrad"`
	SharpnessFreq      float64  `json:"sharpness_fft"`
	ContrastRMS        float64  `json:"contrast_rms"`
	Exposure           Exposure `json:"exposure"`
	Noise              float64  `json:"noise"`
	Bokeh              float64  `json:"bokeh"`

	// SharpnessMap is a diagnostic per-pixel sharpness map. It is never
	// consumed by scoring and is excluded from JSON output.
	SharpnessMap [][]float64 `json:"-"`
}

// Pose holds face rotation angles in degrees. Values are not clamped.
type Pose struct {
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`
}

// Proportions holds landmark-derived facial measurements.
type Proportions struct {
	JawAngle            float64 `json:"jaw_angle"`
	EyeDistance         float64 `json:"eye_distance"`
	FaceWidth           float64 `json:"face_width"`
	FaceHeight          float64 `json:"face_height"`
	SymmetryScore       float64 `json:"symmetry_score"`
	CheekboneProminence float64 `json:"cheekbone_prominence"`
}

// AxisScores are the exactly five normalized axes the classifier consumes.
// Values are nominally 0-100 but only Sharpness and Contrast are clamped
// by their formulas.
type AxisScores struct {
	Sharpness float64 `json:"sharpness"`
	Lighting  float64 `json:"lighting"`
	Pose      float64 `json:"pose"`
	Jawline   float64 `json:"jawline"`
	Contrast  float64 `json:"contrast"`
}

// Min returns the smallest axis value.
func (a AxisScores) Min() float64 {
	min := a.Sharpness
	for _, v := range []float64{a.Lighting, a.Pose, a.Jawline, a.Contrast} {
		if v < min {
			min = v
		}
	}
	return min
}

// Mean returns the average of the five axes.
func (a AxisScores) Mean() float64 {
	return (a.Sharpness + a.Lighting + a.Pose + a.Jawline + a.Contrast) / 5
}

// ClassificationResult is the outcome of the style classifier.
type ClassificationResult struct {
	Label      string   `json:"label"`
	Confidence float64  `json:"confidence"`
	Composite  float64  `json:"composite"`
	Tags       []string `json:"tags"`
	Reasons    []string `json:"reasons"`
}

// AnalysisResult is the complete result returned to the caller.
// Pose, Proportions and Quality are nil when the corresponding stage did
// not run (for example when the detector supplied no dense mesh).
type AnalysisResult struct {
	OK           bool           `json:"ok"`
	Axes         AxisScores     `json:"axes"`
	Label        string         `json:"label"`
	Confidence   float64        `json:"confidence"`
	Reasons      []string       `json:"reasons"`
	Abstain      bool           `json:"abstain"`
	ModelVersion string         `json:"model_version"`
	Pose         *Pose          `json:"pose,omitempty"`
	Proportions  *Proportions   `json:"proportions,omitempty"`
	Quality      *QualityReport `json:"quality_metrics,omitempty"`
}
