package strategy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"TrendPulse/internal/domain/models"
)

func TestTrendVoteStackOrdering(t *testing.T) {
	bull := models.EMAValues{Ready: true, HasSlow: true, UltraFast: 110, Fast: 108, Medium: 105, Slow: 100}
	r := trendVote(bull, 112)
	require.Equal(t, models.DirectionBuy, r.Direction)
	require.InDelta(t, 100.0, r.Strength, 1e-9)

	bear := models.EMAValues{Ready: true, HasSlow: true, UltraFast: 100, Fast: 102, Medium: 105, Slow: 108}
	r = trendVote(bear, 99)
	require.Equal(t, models.DirectionSell, r.Direction)
	require.InDelta(t, 100.0, r.Strength, 1e-9)
}

func TestTrendVotePartialStack(t *testing.T) {
	ema := models.EMAValues{Ready: true, HasSlow: true, UltraFast: 110, Fast: 108, Medium: 105, Slow: 106}
	r := trendVote(ema, 112)
	require.Equal(t, models.DirectionBuy, r.Direction)
	require.InDelta(t, 5.0/6*100, r.Strength, 1e-9)
}

func TestTrendVoteTieIsNeutral(t *testing.T) {
	ema := models.EMAValues{Ready: true, HasSlow: true, UltraFast: 101, Fast: 100, Medium: 102, Slow: 101.5}
	r := trendVote(ema, 101.2)
	require.Equal(t, models.DirectionNeutral, r.Direction)
	require.Zero(t, r.Strength)
}

func TestRSIVoteBands(t *testing.T) {
	r := rsiVote(models.RSIValues{Ready: true, Cur: 15})
	require.Equal(t, models.DirectionBuy, r.Direction)
	require.InDelta(t, 100.0, r.Strength, 1e-9)

	r = rsiVote(models.RSIValues{Ready: true, Cur: 25})
	require.Equal(t, models.DirectionBuy, r.Direction)
	require.InDelta(t, 85.0, r.Strength, 1e-9)

	r = rsiVote(models.RSIValues{Ready: true, Cur: 85})
	require.Equal(t, models.DirectionSell, r.Direction)
	require.InDelta(t, 100.0, r.Strength, 1e-9)

	r = rsiVote(models.RSIValues{Ready: true, Cur: 75})
	require.Equal(t, models.DirectionSell, r.Direction)
	require.InDelta(t, 85.0, r.Strength, 1e-9)
}

func TestRSIVoteFastMove(t *testing.T) {
	r := rsiVote(models.RSIValues{Ready: true, Cur: 45, Prev: 38, HasPrev: true})
	require.Equal(t, models.DirectionBuy, r.Direction)
	require.InDelta(t, 50.0, r.Strength, 1e-9)

	r = rsiVote(models.RSIValues{Ready: true, Cur: 55, Prev: 62, HasPrev: true})
	require.Equal(t, models.DirectionSell, r.Direction)

	r = rsiVote(models.RSIValues{Ready: true, Cur: 45, Prev: 42, HasPrev: true})
	require.Equal(t, models.DirectionNeutral, r.Direction)
}

func TestKDJVoteOversoldAndExtremeJ(t *testing.T) {
	r := kdjVote(models.KDJValues{Ready: true, K: 15, D: 18, J: 9})
	require.Equal(t, models.DirectionBuy, r.Direction)
	require.InDelta(t, 80.0, r.Strength, 1e-9)

	r = kdjVote(models.KDJValues{Ready: true, K: 15, D: 18, J: -5})
	require.Equal(t, models.DirectionBuy, r.Direction)
	require.InDelta(t, 100.0, r.Strength, 1e-9)

	r = kdjVote(models.KDJValues{Ready: true, K: 50, D: 50, J: -2})
	require.Equal(t, models.DirectionBuy, r.Direction)
	require.InDelta(t, 90.0, r.Strength, 1e-9)
}

func TestKDJVoteCrosses(t *testing.T) {
	r := kdjVote(models.KDJValues{Ready: true, K: 52, D: 51, J: 54, PrevK: 48, PrevD: 50, HasPrev: true})
	require.Equal(t, models.DirectionBuy, r.Direction)
	require.InDelta(t, 85.0, r.Strength, 1e-9)

	r = kdjVote(models.KDJValues{Ready: true, K: 25, D: 24, J: 27, PrevK: 18, PrevD: 22, HasPrev: true})
	require.Equal(t, models.DirectionBuy, r.Direction)
	require.InDelta(t, 100.0, r.Strength, 1e-9)

	r = kdjVote(models.KDJValues{Ready: true, K: 76, D: 77, J: 74, PrevK: 82, PrevD: 78, HasPrev: true})
	require.Equal(t, models.DirectionSell, r.Direction)
	require.InDelta(t, 100.0, r.Strength, 1e-9)

	r = kdjVote(models.KDJValues{Ready: true, K: 19, D: 18, J: 12, PrevK: 14, PrevD: 19, HasPrev: true})
	require.Equal(t, models.DirectionBuy, r.Direction)
	require.InDelta(t, 100.0, r.Strength, 1e-9)
}

func TestMACDVoteCrosses(t *testing.T) {
	r := macdVote(models.MACDValues{Ready: true, MACD: 0.2, Signal: 0.1, Hist: 0.1,
		PrevMACD: -0.1, PrevSignal: 0.05, HasPrev: true})
	require.Equal(t, models.DirectionBuy, r.Direction)
	require.InDelta(t, 100.0, r.Strength, 1e-9)

	r = macdVote(models.MACDValues{Ready: true, MACD: -0.1, Signal: -0.15, Hist: 0.05,
		PrevMACD: -0.3, PrevSignal: -0.2, HasPrev: true})
	require.Equal(t, models.DirectionBuy, r.Direction)
	require.InDelta(t, 85.0, r.Strength, 1e-9)

	r = macdVote(models.MACDValues{Ready: true, MACD: -0.3, Signal: -0.25, Hist: -0.05,
		PrevMACD: -0.1, PrevSignal: -0.2, HasPrev: true})
	require.Equal(t, models.DirectionSell, r.Direction)
	require.InDelta(t, 100.0, r.Strength, 1e-9)
}

func TestMACDVoteAlignment(t *testing.T) {
	r := macdVote(models.MACDValues{Ready: true, MACD: 0.3, Signal: 0.2, Hist: 0.1})
	require.Equal(t, models.DirectionBuy, r.Direction)
	require.InDelta(t, 60.0, r.Strength, 1e-9)

	r = macdVote(models.MACDValues{Ready: true, MACD: 0.1, Signal: 0.2, Hist: -0.1})
	require.Equal(t, models.DirectionSell, r.Direction)
	require.InDelta(t, 60.0, r.Strength, 1e-9)
}

func TestBollVoteBands(t *testing.T) {
	cases := []struct {
		pb       float64
		dir      models.Direction
		strength float64
	}{
		{-0.1, models.DirectionBuy, 100},
		{0.05, models.DirectionBuy, 90},
		{0.15, models.DirectionBuy, 70},
		{0.5, models.DirectionNeutral, 0},
		{0.85, models.DirectionSell, 70},
		{0.95, models.DirectionSell, 90},
		{1.1, models.DirectionSell, 100},
	}
	for _, tc := range cases {
		r := bollVote(models.BollValues{Ready: true, PercentB: tc.pb})
		require.Equal(t, tc.dir, r.Direction, "%%B=%v", tc.pb)
		require.InDelta(t, tc.strength, r.Strength, 1e-9, "%%B=%v", tc.pb)
	}
}

func TestCCIVoteBandsAndCrosses(t *testing.T) {
	r := cciVote(models.CCIValues{Ready: true, Cur: -250})
	require.Equal(t, models.DirectionBuy, r.Direction)
	require.InDelta(t, 100.0, r.Strength, 1e-9)

	r = cciVote(models.CCIValues{Ready: true, Cur: -150})
	require.Equal(t, models.DirectionBuy, r.Direction)
	require.InDelta(t, 90.0, r.Strength, 1e-9)

	r = cciVote(models.CCIValues{Ready: true, Cur: 150})
	require.Equal(t, models.DirectionSell, r.Direction)
	require.InDelta(t, 90.0, r.Strength, 1e-9)

	r = cciVote(models.CCIValues{Ready: true, Cur: 15, Prev: -20, HasPrev: true})
	require.Equal(t, models.DirectionBuy, r.Direction)
	require.InDelta(t, 75.0, r.Strength, 1e-9)

	r = cciVote(models.CCIValues{Ready: true, Cur: -50, Prev: -120, HasPrev: true})
	require.Equal(t, models.DirectionBuy, r.Direction)
	require.InDelta(t, 85.0, r.Strength, 1e-9)

	r = cciVote(models.CCIValues{Ready: true, Cur: -20, Prev: -80, HasPrev: true})
	require.Equal(t, models.DirectionBuy, r.Direction)
	require.InDelta(t, 60.0, r.Strength, 1e-9)

	r = cciVote(models.CCIValues{Ready: true, Cur: 20, Prev: 10, HasPrev: true})
	require.Equal(t, models.DirectionNeutral, r.Direction)
}

func TestATRVoteExpansionFollowsClose(t *testing.T) {
	v := models.ATRValues{Ready: true, Cur: 1.2, Prev: 1.0, HasPrev: true}

	r := atrVote(v, 101, 100.2, 100.9)
	require.Equal(t, models.DirectionBuy, r.Direction)
	require.InDelta(t, 70.0, r.Strength, 1e-9)

	r = atrVote(v, 101, 100.2, 100.3)
	require.Equal(t, models.DirectionSell, r.Direction)
	require.InDelta(t, 70.0, r.Strength, 1e-9)
}

func TestATRVoteWideBar(t *testing.T) {
	r := atrVote(models.ATRValues{Ready: true, Cur: 1.0}, 102, 100, 101.8)
	require.Equal(t, models.DirectionBuy, r.Direction)
	require.InDelta(t, 75.0, r.Strength, 1e-9)

	r = atrVote(models.ATRValues{Ready: true, Cur: 1.2, Prev: 1.0, HasPrev: true}, 102.4, 100, 102)
	require.Equal(t, models.DirectionBuy, r.Direction)
	require.InDelta(t, 100.0, r.Strength, 1e-9)
}

func TestATRVoteQuietBars(t *testing.T) {
	r := atrVote(models.ATRValues{Ready: true, Cur: 2.0}, 100.5, 100, 100.2)
	require.Equal(t, models.DirectionNeutral, r.Direction)
	require.InDelta(t, 20.0, r.Strength, 1e-9)

	r = atrVote(models.ATRValues{Ready: true, Cur: 0.8, Prev: 1.0, HasPrev: true}, 101, 100, 100.5)
	require.Equal(t, models.DirectionNeutral, r.Direction)
	require.InDelta(t, 40.0, r.Strength, 1e-9)
}

func TestVWAPVoteCrossAndDeviation(t *testing.T) {
	v := models.VWAPValues{Ready: true, Cur: 100}

	r := vwapVote(v, 100.5, 99.5, true)
	require.Equal(t, models.DirectionBuy, r.Direction)
	require.InDelta(t, 90.0, r.Strength, 1e-9)

	r = vwapVote(v, 103, 102.5, true)
	require.Equal(t, models.DirectionSell, r.Direction)
	require.InDelta(t, 70.0, r.Strength, 1e-9)

	r = vwapVote(v, 100.7, 100.6, true)
	require.Equal(t, models.DirectionBuy, r.Direction)
	require.InDelta(t, 60.0, r.Strength, 1e-9)

	r = vwapVote(v, 100.1, 100.2, true)
	require.Equal(t, models.DirectionNeutral, r.Direction)
}

func TestMomentumScore(t *testing.T) {
	confirmed, score := momentumScore(101, 100, true, 100, true)
	require.True(t, confirmed)
	require.InDelta(t, 15.0, score, 1e-9)

	confirmed, score = momentumScore(101, 0, false, 100, true)
	require.False(t, confirmed)
	require.Zero(t, score)

	confirmed, score = momentumScore(100.05, 100, true, 100.04, true)
	require.False(t, confirmed)
	require.Zero(t, score)
}

func TestAutoMinResonance(t *testing.T) {
	require.Equal(t, 5, AutoMinResonance(7))
	require.Equal(t, 4, AutoMinResonance(5))
	require.Equal(t, 3, AutoMinResonance(3))
	require.Equal(t, 2, AutoMinResonance(1))
	require.Equal(t, 2, AutoMinResonance(0))
}
