package indicators

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEMASeedsWithSMA(t *testing.T) {
	e := NewEMA(3)
	for _, v := range []float64{1, 2, 3} {
		e.Update(v)
	}
	require.True(t, e.Ready())
	require.InDelta(t, 2.0, e.Value(), 1e-12)

	// alpha = 2/(3+1) = 0.5
	e.Update(4)
	require.InDelta(t, 3.0, e.Value(), 1e-12)
}

func TestEMANotReadyBeforePeriod(t *testing.T) {
	e := NewEMA(3)
	e.Update(1)
	e.Update(2)
	require.False(t, e.Ready())
}

func TestRSISaturatesWithoutLosses(t *testing.T) {
	r := NewRSI(2)
	for _, v := range []float64{1, 2, 3} {
		r.Update(v)
	}
	require.True(t, r.Ready())
	require.InDelta(t, 100.0, r.Value(), 1e-12)
}

func TestRSIWilderSmoothing(t *testing.T) {
	r := NewRSI(2)
	for _, v := range []float64{1, 2, 3, 2} {
		r.Update(v)
	}
	// avg gain (1*1+0)/2 = 0.5, avg loss (0*1+1)/2 = 0.5, RS = 1
	require.InDelta(t, 50.0, r.Value(), 1e-12)
}

func TestKDJFlatWindowReadsFifty(t *testing.T) {
	k := NewKDJ(2, 1)
	for i := 0; i < 4; i++ {
		k.Update(5, 5, 5)
	}
	require.True(t, k.Ready())
	kv, dv, jv := k.Values()
	require.InDelta(t, 50.0, kv, 1e-12)
	require.InDelta(t, 50.0, dv, 1e-12)
	require.InDelta(t, 50.0, jv, 1e-12)
}

func TestKDJTopOfRange(t *testing.T) {
	// smooth 1 collapses the bcwsma chain, so K = D = RSV.
	k := NewKDJ(2, 1)
	k.Update(1, 1, 1)
	k.Update(2, 2, 2)
	k.Update(3, 3, 3)
	require.True(t, k.Ready())
	kv, dv, jv := k.Values()
	require.InDelta(t, 100.0, kv, 1e-12)
	require.InDelta(t, 100.0, dv, 1e-12)
	require.InDelta(t, 100.0, jv, 1e-12)
}

func TestMACDSmallConfig(t *testing.T) {
	m := NewMACD(1, 2, 1)
	m.Update(2)
	require.False(t, m.Ready())
	m.Update(4)
	require.True(t, m.Ready())
	macd, signal, hist := m.Values()
	// fast EMA(1) = 4, slow EMA(2) seed = 3
	require.InDelta(t, 1.0, macd, 1e-12)
	require.InDelta(t, 1.0, signal, 1e-12)
	require.InDelta(t, 0.0, hist, 1e-12)
}

func TestBollBandsAndPercentB(t *testing.T) {
	b := NewBoll(2, 2.0)
	b.Update(1)
	b.Update(3)
	require.True(t, b.Ready())
	upper, middle, lower, percentB := b.Values()
	// mid 2, population sigma 1
	require.InDelta(t, 4.0, upper, 1e-12)
	require.InDelta(t, 2.0, middle, 1e-12)
	require.InDelta(t, 0.0, lower, 1e-12)
	require.InDelta(t, 0.75, percentB, 1e-12)
}

func TestBollFlatWindowCentersPercentB(t *testing.T) {
	b := NewBoll(3, 2.0)
	for i := 0; i < 3; i++ {
		b.Update(7)
	}
	_, _, _, percentB := b.Values()
	require.InDelta(t, 0.5, percentB, 1e-12)
}

func TestCCIKnownValue(t *testing.T) {
	c := NewCCI(2)
	c.Update(1, 1, 1)
	c.Update(3, 3, 3)
	require.True(t, c.Ready())
	// tp window [1 3], ma 2, mean deviation 1
	require.InDelta(t, 1.0/0.015, c.Value(), 1e-9)
}

func TestCCIZeroDeviation(t *testing.T) {
	c := NewCCI(2)
	c.Update(2, 2, 2)
	c.Update(2, 2, 2)
	require.InDelta(t, 0.0, c.Value(), 1e-12)
}

func TestATRUsesPrevCloseGaps(t *testing.T) {
	a := NewATR(1)
	a.Update(2, 1, 1.5)
	require.False(t, a.Ready())
	a.Update(3, 2, 2.5)
	require.True(t, a.Ready())
	// tr = max(1, |3-1.5|, |2-1.5|) = 1.5
	require.InDelta(t, 1.5, a.Value(), 1e-12)
}

func TestVWAPWeightsByVolume(t *testing.T) {
	v := NewVWAP()
	require.False(t, v.Ready())
	v.Update(2, 2, 2, 1)
	v.Update(4, 4, 4, 3)
	require.True(t, v.Ready())
	require.InDelta(t, 3.5, v.Value(), 1e-12)

	v.Reset()
	require.False(t, v.Ready())
}

func TestADXWarmupAndDirection(t *testing.T) {
	period := 3
	a := NewADX(period)
	close := 100.0
	for i := 0; i < 2*period; i++ {
		require.False(t, a.Ready(), "bar %d", i)
		close += 1.0
		a.Update(close+0.5, close-0.5, close)
	}
	require.True(t, a.Ready())
	adx, plusDI, minusDI := a.Values()
	require.Greater(t, adx, 0.0)
	require.Greater(t, plusDI, minusDI)
}

func TestVolumeConditionBands(t *testing.T) {
	cases := []struct {
		ratio float64
		want  string
	}{
		{2.5, "SPIKE"},
		{1.6, "HIGH"},
		{1.0, "NORMAL"},
		{0.6, "LOW"},
		{0.4, "VERY_LOW"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, string(condition(tc.ratio)), "ratio %v", tc.ratio)
	}
}

func TestVolumeAnalyzerRatioAndChange(t *testing.T) {
	v := NewVolumeAnalyzer(2)
	v.Update(10, 1)
	require.False(t, v.Ready())
	v.Update(11, 3)
	require.True(t, v.Ready())

	out := v.Values()
	require.InDelta(t, 2.0, out.MA, 1e-12)
	require.InDelta(t, 1.5, out.Ratio, 1e-12)
	require.InDelta(t, 2.0, out.Change, 1e-12)
	require.Equal(t, "HIGH", string(out.Condition))
}

func TestVolumeTrendNeedsMonotonicRatios(t *testing.T) {
	v := NewVolumeAnalyzer(2)
	// ratios over the last three bars: 1.333, 1.428, 1.473
	for _, vol := range []float64{1, 1, 2, 5, 14} {
		v.Update(10, vol)
	}
	require.Equal(t, "INCREASING", string(v.Values().Trend))
}

func TestVolumeDivergenceBearish(t *testing.T) {
	v := NewVolumeAnalyzer(2)
	closes := []float64{100, 101, 102, 103, 104}
	volumes := []float64{10, 10, 6, 5, 5}
	for i := range closes {
		v.Update(closes[i], volumes[i])
	}
	out := v.Values()
	// price +4% while the late volume pair halved
	require.Equal(t, "BEARISH", string(out.Divergence))
}
