package normalize

import (
	"math"

	"github.com/alfredjeanlab/codescope/internal/model"
)

// Severity weights deducted from a perfect score.
const (
	errorWeight   = 10
	warningWeight = 2
	infoWeight    = 0.5
)

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Score computes the quality score for the given severity counts:
// 100 minus the weighted issue count, clamped to [0,100] and rounded to the
// nearest integer.
func Score(c model.SeverityCounts) model.QualityScore {
	penalty := float64(c.Errors)*errorWeight + float64(c.Warnings)*warningWeight + float64(c.Infos)*infoWeight
	value := int(math.Round(clamp(100-penalty, 0, 100)))
	return model.QualityScore{Value: value, Grade: GradeFor(value)}
}

// ScoreIssues is Score applied to the severity counts of issues.
func ScoreIssues(issues []model.QualityIssue) model.QualityScore {
	return Score(model.CountSeverities(issues))
}

// GradeFor maps a score to its letter grade.
func GradeFor(score int) model.Grade {
	switch {
	case score >= 90:
		return model.GradeA
	case score >= 80:
		return model.GradeB
	case score >= 70:
		return model.GradeC
	case score >= 60:
		return model.GradeD
	default:
		return model.GradeF
	}
}
