package pipeline

import "math"

const (
	MaxSkillScore      = 4.0
	MaxExperienceScore = 4.5
	MaxEducationScore  = 1.0
	MaxOtherFactors    = 0.5
	MaxOverallScore    = 10.0

	// scoreTolerance is how far a reported score may drift from its recomputed value.
	scoreTolerance = 0.01
)

const (
	BandExcellent = "Excellent"
	BandGood      = "Good"
	BandAverage   = "Average"
	BandPoor      = "Poor"
)

func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Aggregate is the overall score: the clamped sum of the component scores and
// the other-factors term.
func Aggregate(skill, experience, education, other float64) float64 {
	return Clamp(skill+experience+education+other, 0, MaxOverallScore)
}

func Band(overall float64) string {
	switch {
	case overall >= 8.0:
		return BandExcellent
	case overall >= 6.0:
		return BandGood
	case overall >= 4.0:
		return BandAverage
	default:
		return BandPoor
	}
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) <= scoreTolerance+1e-9
}
