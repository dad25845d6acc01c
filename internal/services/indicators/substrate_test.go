package indicators

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"TrendPulse/internal/domain/models"
)

func syntheticBars(n int, seed int64) []models.Bar {
	rng := rand.New(rand.NewSource(seed))
	bars := make([]models.Bar, 0, n)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	price := 100.0
	for i := 0; i < n; i++ {
		drift := 0.8*math.Sin(float64(i)/9) + rng.Float64() - 0.5
		open := price
		price += drift
		high := math.Max(open, price) + rng.Float64()*0.4
		low := math.Min(open, price) - rng.Float64()*0.4
		bars = append(bars, models.Bar{
			OpenTime: base.Add(time.Duration(i) * 5 * time.Minute),
			Open:     open,
			High:     high,
			Low:      low,
			Close:    price,
			Volume:   50 + rng.Float64()*100,
			Closed:   true,
		})
	}
	return bars
}

func allEnabledParams() Params {
	p := DefaultParams()
	p.UseBoll = true
	p.UseCCI = true
	p.UseVWAP = true
	return p
}

func feed(t *testing.T, p Params, bars []models.Bar) *models.Snapshot {
	t.Helper()
	s, err := New(p)
	require.NoError(t, err)
	series := models.Series{}
	var ts time.Time
	for _, b := range bars {
		s.Advance(b)
		series.Highs = append(series.Highs, b.High)
		series.Lows = append(series.Lows, b.Low)
		series.Closes = append(series.Closes, b.Close)
		series.Volumes = append(series.Volumes, b.Volume)
		ts = b.OpenTime
	}
	return s.Snapshot("BTCUSDT", "5m", ts, series)
}

func requireSnapshotsEqual(t *testing.T, want, got *models.Snapshot) {
	t.Helper()
	const tol = 1e-9

	require.Equal(t, want.EMA.Ready, got.EMA.Ready)
	if want.EMA.Ready {
		require.InDelta(t, want.EMA.UltraFast, got.EMA.UltraFast, tol)
		require.InDelta(t, want.EMA.Fast, got.EMA.Fast, tol)
		require.InDelta(t, want.EMA.Medium, got.EMA.Medium, tol)
		require.Equal(t, want.EMA.HasSlow, got.EMA.HasSlow)
		if want.EMA.HasSlow {
			require.InDelta(t, want.EMA.Slow, got.EMA.Slow, tol)
		}
	}
	require.Equal(t, want.RSI.Ready, got.RSI.Ready)
	if want.RSI.Ready {
		require.InDelta(t, want.RSI.Cur, got.RSI.Cur, tol)
	}
	require.Equal(t, want.KDJ.Ready, got.KDJ.Ready)
	if want.KDJ.Ready {
		require.InDelta(t, want.KDJ.K, got.KDJ.K, tol)
		require.InDelta(t, want.KDJ.D, got.KDJ.D, tol)
		require.InDelta(t, want.KDJ.J, got.KDJ.J, tol)
	}
	require.Equal(t, want.MACD.Ready, got.MACD.Ready)
	if want.MACD.Ready {
		require.InDelta(t, want.MACD.MACD, got.MACD.MACD, tol)
		require.InDelta(t, want.MACD.Signal, got.MACD.Signal, tol)
		require.InDelta(t, want.MACD.Hist, got.MACD.Hist, tol)
	}
	require.Equal(t, want.Boll.Ready, got.Boll.Ready)
	if want.Boll.Ready {
		require.InDelta(t, want.Boll.Upper, got.Boll.Upper, tol)
		require.InDelta(t, want.Boll.Middle, got.Boll.Middle, tol)
		require.InDelta(t, want.Boll.Lower, got.Boll.Lower, tol)
		require.InDelta(t, want.Boll.PercentB, got.Boll.PercentB, tol)
	}
	require.Equal(t, want.CCI.Ready, got.CCI.Ready)
	if want.CCI.Ready {
		require.InDelta(t, want.CCI.Cur, got.CCI.Cur, tol)
	}
	require.Equal(t, want.ATR.Ready, got.ATR.Ready)
	if want.ATR.Ready {
		require.InDelta(t, want.ATR.Cur, got.ATR.Cur, tol)
		require.Equal(t, len(want.ATR.Recent), len(got.ATR.Recent))
	}
	require.Equal(t, want.VWAP.Ready, got.VWAP.Ready)
	if want.VWAP.Ready {
		require.InDelta(t, want.VWAP.Cur, got.VWAP.Cur, tol)
	}
	require.Equal(t, want.ADX.Ready, got.ADX.Ready)
	if want.ADX.Ready {
		require.InDelta(t, want.ADX.ADX, got.ADX.ADX, tol)
		require.InDelta(t, want.ADX.PlusDI, got.ADX.PlusDI, tol)
		require.InDelta(t, want.ADX.MinusDI, got.ADX.MinusDI, tol)
	}
	require.Equal(t, want.Volume.Ready, got.Volume.Ready)
	if want.Volume.Ready {
		require.InDelta(t, want.Volume.Ratio, got.Volume.Ratio, tol)
		require.Equal(t, want.Volume.Condition, got.Volume.Condition)
		require.Equal(t, want.Volume.Trend, got.Volume.Trend)
	}
}

func TestBatchMatchesIncrementalAtAnySplit(t *testing.T) {
	p := allEnabledParams()
	bars := syntheticBars(160, 7)

	for _, split := range []int{1, 7, 15, 28, 34, 60, 119, 160} {
		batch, err := Compute(p, "BTCUSDT", "5m", bars[:split])
		require.NoError(t, err)
		incremental := feed(t, p, bars[:split])
		requireSnapshotsEqual(t, batch, incremental)
	}
}

func TestWarmupGates(t *testing.T) {
	p := allEnabledParams()
	s, err := New(p)
	require.NoError(t, err)
	bars := syntheticBars(140, 11)

	gates := map[string]int{
		"ema":    p.EMAMedium,
		"slow":   p.EMASlow,
		"rsi":    p.RSIPeriod + 1,
		"kdj":    p.KDJPeriod + p.KDJSmooth,
		"macd":   p.MACDSlow + p.MACDSignal - 1,
		"boll":   p.BollPeriod,
		"cci":    p.CCIPeriod,
		"atr":    p.ATRPeriod + 1,
		"adx":    2 * p.ADXPeriod,
		"volume": p.VolumeMA,
	}

	ready := func(snap *models.Snapshot, key string) bool {
		switch key {
		case "ema":
			return snap.EMA.Ready
		case "slow":
			return snap.EMA.HasSlow
		case "rsi":
			return snap.RSI.Ready
		case "kdj":
			return snap.KDJ.Ready
		case "macd":
			return snap.MACD.Ready
		case "boll":
			return snap.Boll.Ready
		case "cci":
			return snap.CCI.Ready
		case "atr":
			return snap.ATR.Ready
		case "adx":
			return snap.ADX.Ready
		case "volume":
			return snap.Volume.Ready
		}
		t.Fatalf("unknown gate %q", key)
		return false
	}

	for i, b := range bars {
		s.Advance(b)
		snap := s.Snapshot("BTCUSDT", "5m", b.OpenTime, models.Series{})
		n := i + 1
		for key, gate := range gates {
			require.Equal(t, n >= gate, ready(snap, key), "%s at bar %d", key, n)
		}
	}
}

func TestPrevValuesLagOneBar(t *testing.T) {
	p := allEnabledParams()
	bars := syntheticBars(80, 3)

	prev := feed(t, p, bars[:79])
	cur := feed(t, p, bars)

	require.True(t, cur.RSI.HasPrev)
	require.InDelta(t, prev.RSI.Cur, cur.RSI.Prev, 1e-9)
	require.True(t, cur.KDJ.HasPrev)
	require.InDelta(t, prev.KDJ.K, cur.KDJ.PrevK, 1e-9)
	require.InDelta(t, prev.KDJ.D, cur.KDJ.PrevD, 1e-9)
	require.True(t, cur.MACD.HasPrev)
	require.InDelta(t, prev.MACD.MACD, cur.MACD.PrevMACD, 1e-9)
	require.InDelta(t, prev.MACD.Signal, cur.MACD.PrevSignal, 1e-9)
	require.True(t, cur.ATR.HasPrev)
	require.InDelta(t, prev.ATR.Cur, cur.ATR.Prev, 1e-9)
	require.True(t, cur.ADX.HasPrev)
	require.InDelta(t, prev.ADX.ADX, cur.ADX.PrevADX, 1e-9)
}

func TestAdvanceIsDeterministic(t *testing.T) {
	p := allEnabledParams()
	bars := syntheticBars(100, 21)
	a := feed(t, p, bars)
	b := feed(t, p, bars)
	requireSnapshotsEqual(t, a, b)
}

func TestVWAPResetsAtDayBoundary(t *testing.T) {
	p := DefaultParams()
	p.UseVWAP = true
	s, err := New(p)
	require.NoError(t, err)

	day1 := time.Date(2024, 3, 1, 23, 55, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

	s.Advance(models.Bar{OpenTime: day1, High: 10, Low: 10, Close: 10, Volume: 5, Closed: true})
	s.Advance(models.Bar{OpenTime: day2, High: 20, Low: 20, Close: 20, Volume: 5, Closed: true})

	snap := s.Snapshot("BTCUSDT", "5m", day2, models.Series{})
	// only the second session contributes
	require.InDelta(t, 20.0, snap.VWAP.Cur, 1e-12)
}

func TestParamsValidate(t *testing.T) {
	p := DefaultParams()
	p.RSIPeriod = 0
	_, err := New(p)
	require.ErrorIs(t, err, models.ErrInvalidParameter)

	p = DefaultParams()
	p.MACDFast, p.MACDSlow = 30, 26
	require.ErrorIs(t, p.Validate(), models.ErrInvalidParameter)

	p = DefaultParams()
	p.EMAFast = 4 // below ultra fast
	require.ErrorIs(t, p.Validate(), models.ErrInvalidParameter)

	require.NoError(t, DefaultParams().Validate())
}
