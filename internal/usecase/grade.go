package usecase

import "TrendPulse/internal/domain/models"

// GradeThresholds are the adjusted-strength floors for each signal grade.
type GradeThresholds struct {
	Strong   float64 // grade A
	Standard float64 // grade B
	Weak     float64 // grade C
}

func DefaultGradeThresholds() GradeThresholds {
	return GradeThresholds{Strong: 0.75, Standard: 0.50, Weak: 0.30}
}

// gradeSignal grades a confirmed candidate. A requires that no higher
// timeframe rejected it, which holds vacuously when no timeframe reached a
// verdict. B requires at least one confirming timeframe unless there was no
// confirmation data at all; stale timeframes count as data that went unused,
// so an all-stale confirmation never waives the requirement.
func gradeSignal(adjusted float64, conf models.Confirmation, th GradeThresholds) models.Grade {
	noData := len(conf.Checks) == 0 && conf.Stale == 0
	switch {
	case adjusted >= th.Strong && conf.Rejections == 0:
		return models.GradeA
	case adjusted >= th.Standard && (conf.Count >= 1 || noData):
		return models.GradeB
	case adjusted >= th.Weak:
		return models.GradeC
	default:
		return models.GradeNone
	}
}
