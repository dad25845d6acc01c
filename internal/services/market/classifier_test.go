package market

import (
	"testing"

	"github.com/stretchr/testify/require"

	"TrendPulse/internal/domain/models"
)

func adxSnapshot(adx, plusDI, minusDI float64) *models.Snapshot {
	return &models.Snapshot{
		ADX: models.ADXValues{Ready: true, ADX: adx, PlusDI: plusDI, MinusDI: minusDI},
	}
}

func TestClassifyRegimeBands(t *testing.T) {
	c := NewClassifier(DefaultThresholds())

	cases := []struct {
		name string
		adx  float64
		want models.Regime
	}{
		{"deep ranging", 5, models.RegimeRanging},
		{"just below trending", 19.99, models.RegimeRanging},
		{"lower band edge", 20, models.RegimeTrending},
		{"mid trending", 30, models.RegimeTrending},
		{"upper band edge", 40, models.RegimeTrending},
		{"breakout", 40.01, models.RegimeBreakout},
		{"strong breakout", 60, models.RegimeBreakout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := c.Classify(adxSnapshot(tc.adx, 25, 15))
			require.Equal(t, tc.want, st.Regime)
		})
	}
}

func TestClassifyUnknownWhileNotReady(t *testing.T) {
	c := NewClassifier(DefaultThresholds())

	st := c.Classify(&models.Snapshot{})
	require.Equal(t, models.RegimeUnknown, st.Regime)
	require.Equal(t, models.TrendNone, st.Trend)
	require.Zero(t, st.Confidence)

	st = c.Classify(nil)
	require.Equal(t, models.RegimeUnknown, st.Regime)
}

func TestClassifyTrendDirection(t *testing.T) {
	c := NewClassifier(DefaultThresholds())

	require.Equal(t, models.TrendUp, c.Classify(adxSnapshot(30, 25, 15)).Trend)
	require.Equal(t, models.TrendDown, c.Classify(adxSnapshot(30, 15, 25)).Trend)
	require.Equal(t, models.TrendNone, c.Classify(adxSnapshot(30, 20, 20)).Trend)
}

func TestClassifyTrendDeadBand(t *testing.T) {
	th := DefaultThresholds()
	th.DeadBand = 5
	c := NewClassifier(th)

	require.Equal(t, models.TrendNone, c.Classify(adxSnapshot(30, 24, 20)).Trend)
	require.Equal(t, models.TrendUp, c.Classify(adxSnapshot(30, 26, 20)).Trend)
	require.Equal(t, models.TrendDown, c.Classify(adxSnapshot(30, 20, 26)).Trend)
}

func TestClassifyConfidenceScalesWithBoundaryDistance(t *testing.T) {
	c := NewClassifier(DefaultThresholds())

	require.InDelta(t, 1.0, c.Classify(adxSnapshot(30, 25, 15)).Confidence, 1e-9)
	require.InDelta(t, 0.2, c.Classify(adxSnapshot(22, 25, 15)).Confidence, 1e-9)
	require.InDelta(t, 0.1, c.Classify(adxSnapshot(39, 25, 15)).Confidence, 1e-9)
	require.InDelta(t, 0.5, c.Classify(adxSnapshot(45, 25, 15)).Confidence, 1e-9)
	require.InDelta(t, 1.0, c.Classify(adxSnapshot(5, 25, 15)).Confidence, 1e-9)
	require.InDelta(t, 0.0, c.Classify(adxSnapshot(20, 25, 15)).Confidence, 1e-9)
}

func TestClassifyADXRising(t *testing.T) {
	c := NewClassifier(DefaultThresholds())

	snap := adxSnapshot(30, 25, 15)
	snap.ADX.HasPrev = true
	snap.ADX.PrevADX = 28
	require.True(t, c.Classify(snap).ADXRising)

	snap.ADX.PrevADX = 32
	require.False(t, c.Classify(snap).ADXRising)

	require.False(t, c.Classify(adxSnapshot(30, 25, 15)).ADXRising)
}

func TestNewClassifierRejectsBadThresholds(t *testing.T) {
	c := NewClassifier(Thresholds{Ranging: 40, Breakout: 20})
	require.Equal(t, models.RegimeTrending, c.Classify(adxSnapshot(30, 25, 15)).Regime)
}
