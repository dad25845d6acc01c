package usecase

import (
	"testing"

	"github.com/stretchr/testify/require"

	"TrendPulse/internal/domain/models"
)

func TestGradeThresholdBoundaries(t *testing.T) {
	th := DefaultGradeThresholds()
	conf := models.Confirmation{Count: 1, Checks: []models.TFCheck{{Timeframe: "15m", Status: models.TFConfirmed}}}

	require.Equal(t, models.GradeA, gradeSignal(0.75, conf, th))
	require.Equal(t, models.GradeB, gradeSignal(0.74999, conf, th))
	require.Equal(t, models.GradeB, gradeSignal(0.50, conf, th))
	require.Equal(t, models.GradeC, gradeSignal(0.49999, conf, th))
	require.Equal(t, models.GradeC, gradeSignal(0.30, conf, th))
	require.Equal(t, models.GradeNone, gradeSignal(0.29, conf, th))
}

func TestGradeARequiresNoRejections(t *testing.T) {
	th := DefaultGradeThresholds()
	conf := models.Confirmation{
		Count:      1,
		Rejections: 1,
		Checks: []models.TFCheck{
			{Timeframe: "15m", Status: models.TFConfirmed},
			{Timeframe: "1h", Status: models.TFRejected},
		},
	}
	require.Equal(t, models.GradeB, gradeSignal(0.9, conf, th))
}

func TestGradeBConfirmationWaiver(t *testing.T) {
	th := DefaultGradeThresholds()

	// With no confirmation data at all the count requirement is waived.
	require.Equal(t, models.GradeB, gradeSignal(0.6, models.Confirmation{}, th))

	// A timeframe that reached a neutral verdict is data, so no waiver.
	withNeutral := models.Confirmation{
		Checks: []models.TFCheck{{Timeframe: "15m", Status: models.TFNeutral}},
	}
	require.Equal(t, models.GradeC, gradeSignal(0.6, withNeutral, th))

	// All timeframes stale is also data that went unused, not absence.
	allStale := models.Confirmation{Stale: 2}
	require.Equal(t, models.GradeC, gradeSignal(0.6, allStale, th))
}
