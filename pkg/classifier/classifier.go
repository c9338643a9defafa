// Package classifier maps the five quality axes to a categorical style
// label with a confidence score, tags, and human-readable reasons.
package classifier

import (
	"math"

	"github.com/menta2k/face-analyzer/pkg/types"
)

// Style labels, ordered from best to worst.
const (
	LabelGod     = "god"
	LabelMogged  = "mogged"
	LabelSigma   = "sigma"
	LabelAverage = "average"
	LabelMeh     = "meh"
	LabelTrash   = "trash"
)

// Strategy classifies a fixed five-axis score record. Implementations must
// be deterministic: identical axes produce identical results.
type Strategy interface {
	Classify(axes types.AxisScores) types.ClassificationResult
}

// axis weights for the composite score
var weights = map[string]float64{
	"sharpness": 0.30,
	"lighting":  0.18,
	"pose":      0.20,
	"jawline":   0.22,
	"contrast":  0.10,
}

// tag thresholds
const (
	thBlurry      = 45
	thVeryBlurry  = 30
	thDark        = 42
	thOverexposed = 88
	thBadPose     = 55
	thWeakJaw     = 52
	thLowContrast = 45
)

// tier carries a composite floor plus per-axis floors.
type tier struct {
	name    string
	min     float64
	keys    map[string]float64
	minAxis float64
	base    float64
	cap     float64
}

var tiers = []tier{
	{name: LabelGod, min: 87, keys: map[string]float64{"sharpness": 80, "jawline": 75, "pose": 75}, base: 0.75, cap: 0.22},
	{name: LabelMogged, min: 78, keys: map[string]float64{"sharpness": 72, "jawline": 70, "pose": 68}, base: 0.67, cap: 0.25},
	{name: LabelSigma, min: 65, keys: map[string]float64{"sharpness": 60, "jawline": 58}, minAxis: 50, base: 0.60, cap: 0.27},
}

// RuleBased is the deterministic tiered rule classifier. It is the active
// strategy; Trained exists behind the same interface for a future model.
type RuleBased struct{}

// NewRuleBased returns the rule-ladder classifier.
func NewRuleBased() *RuleBased {
	return &RuleBased{}
}

// axisOrder fixes the iteration order for composite penalties.
var axisOrder = []string{"sharpness", "lighting", "pose", "jawline", "contrast"}

func axisValue(axes types.AxisScores, name string) float64 {
	switch name {
	case "sharpness":
		return axes.Sharpness
	case "lighting":
		return axes.Lighting
	case "pose":
		return axes.Pose
	case "jawline":
		return axes.Jawline
	case "contrast":
		return axes.Contrast
	}
	return 0
}

// Composite returns the weighted, penalty-adjusted aggregate in [0,100].
//
// Penalties accrue per axis below 45 (and again below 30), with lighter
// factors for lighting/contrast. The running penalty total is capped at
// 8.0 + 3.0*(penalized-1), and the cap is re-applied after each axis is
// processed rather than once at the end. That incremental re-application
// is load-bearing for output compatibility; see TestCompositePenaltyCapIsIncremental.
func Composite(axes types.AxisScores) float64 {
	var score float64
	for _, name := range axisOrder {
		v := clamp(axisValue(axes, name), 0, 100)
		score += weights[name] * v
	}

	var penalties float64
	penalized := 0
	for _, name := range axisOrder {
		v := axisValue(axes, name)
		if v < 45 {
			penalized++
			factor := 0.09
			if name == "lighting" || name == "contrast" {
				factor = 0.06
			}
			penalties += (45 - v) * factor
		}
		if v < 30 {
			factor := 0.18
			if name == "lighting" || name == "contrast" {
				factor = 0.12
			}
			penalties += (30 - v) * factor
		}
		if penalized > 0 {
			penalties = math.Min(penalties, 8.0+3.0*float64(penalized-1))
		}
	}

	return clamp(score-penalties, 0, 100)
}

// Tags returns the cheap boolean technical flags for the given axes.
// very_blurry and blurry are mutually exclusive; all other tags are
// independent.
func Tags(axes types.AxisScores) []string {
	tags := []string{}
	switch {
	case axes.Sharpness < thVeryBlurry:
		tags = append(tags, "very_blurry")
	case axes.Sharpness < thBlurry:
		tags = append(tags, "blurry")
	}
	if axes.Lighting < thDark {
		tags = append(tags, "dark")
	}
	if axes.Lighting > thOverexposed {
		tags = append(tags, "overexposed")
	}
	if axes.Pose < thBadPose {
		tags = append(tags, "bad_pose")
	}
	if axes.Jawline < thWeakJaw {
		tags = append(tags, "weak_jaw")
	}
	if axes.Contrast < thLowContrast {
		tags = append(tags, "low_contrast")
	}
	return tags
}

// Reasons returns at most one reason per axis, all positive entries before
// all negative entries.
func Reasons(axes types.AxisScores) []string {
	var pos, neg []string
	if axes.Sharpness >= 80 {
		pos = append(pos, "very high sharpness")
	}
	if axes.Lighting >= 72 {
		pos = append(pos, "good lighting")
	}
	if axes.Pose >= 80 {
		pos = append(pos, "good angle/pose")
	}
	if axes.Jawline >= 76 {
		pos = append(pos, "strong jawline")
	}
	if axes.Contrast >= 70 {
		pos = append(pos, "sufficient contrast")
	}
	if axes.Sharpness < 45 {
		neg = append(neg, "low sharpness")
	}
	if axes.Lighting < 45 {
		neg = append(neg, "insufficient lighting")
	}
	if axes.Pose < 55 {
		neg = append(neg, "suboptimal pose/angle")
	}
	if axes.Jawline < 52 {
		neg = append(neg, "weak jawline")
	}
	if axes.Contrast < 45 {
		neg = append(neg, "low contrast")
	}
	return append(pos, neg...)
}

// Classify runs the rule ladder. Decision order is first-match: hero
// override, trash override, low-composite meh, mid-composite average,
// god/mogged/sigma tiers, then the fallback.
func (c *RuleBased) Classify(axes types.AxisScores) types.ClassificationResult {
	tags := Tags(axes)
	reasons := Reasons(axes)
	composite := Composite(axes)
	minAxis := axes.Min()

	veryBadAxes := 0
	for _, name := range axisOrder {
		if axisValue(axes, name) < 30 {
			veryBadAxes++
		}
	}

	result := func(label string, conf float64) types.ClassificationResult {
		return types.ClassificationResult{
			Label:      label,
			Confidence: conf,
			Composite:  composite,
			Tags:       tags,
			Reasons:    reasons,
		}
	}

	// Hero override: a sharp, well-posed face with at least a passable
	// jawline skips the regular ladder.
	if axes.Sharpness >= 78 && axes.Jawline >= 54 && axes.Pose >= 60 {
		if composite >= 75 || (axes.Sharpness >= 75 && axes.Jawline >= 72) {
			// The margin term is not floored at zero, so the confidence can
			// dip below 0.80 when the composite sits under 80.
			conf := 0.80 + math.Min(0.20, (composite-80)/20)
			return result(LabelMogged, math.Min(conf, 0.96))
		}
		conf := 0.70 + math.Min(0.20, math.Max(0, composite-70)/20)
		return result(LabelSigma, math.Min(conf, 0.90))
	}

	// Trash override.
	if veryBadAxes >= 2 || (composite < 45 && (contains(tags, "very_blurry") || contains(tags, "dark"))) {
		conf := 0.68 + math.Max(0, 55-composite)/55*0.25
		return result(LabelTrash, math.Min(conf, 0.96))
	}

	if composite < 50 {
		return result(LabelMeh, 0.60)
	}
	if composite < 62 || minAxis < 48 {
		return result(LabelAverage, 0.55)
	}

	for _, t := range tiers {
		if composite < t.min {
			continue
		}
		keysOK := true
		for name, floor := range t.keys {
			if axisValue(axes, name) < floor {
				keysOK = false
				break
			}
		}
		if !keysOK || minAxis < t.minAxis {
			continue
		}
		margin := math.Max(0, composite-t.min)
		conf := t.base + math.Min(t.cap, margin/15)
		return result(t.name, math.Min(conf, 0.98))
	}

	if composite >= 62 && minAxis >= 55 {
		return result(LabelAverage, 0.54)
	}
	return result(LabelMeh, 0.56)
}

// Trained is the declared trainable strategy. No model has been trained, so
// it delegates to the rule ladder; it exists so a fitted model can slot in
// behind the same interface.
type Trained struct {
	rules *RuleBased
}

// NewTrained returns the inactive trained-model strategy.
func NewTrained() *Trained {
	return &Trained{rules: NewRuleBased()}
}

// Classify delegates to the rule-based ladder until a model is available.
func (t *Trained) Classify(axes types.AxisScores) types.ClassificationResult {
	return t.rules.Classify(axes)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
