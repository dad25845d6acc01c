package market

import (
	"math"

	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/domain/service"
)

// confidenceScale converts ADX distance from the nearest band boundary into
// the [0,1] confidence range. Ten ADX points away from a boundary is full
// confidence.
const confidenceScale = 10.0

// Thresholds are the ADX band edges and the DI dead-band.
type Thresholds struct {
	Ranging  float64 // below this ADX the market is RANGING
	Breakout float64 // above this ADX the market is BREAKOUT
	DeadBand float64 // |+DI - -DI| at or below this reports no direction
}

func DefaultThresholds() Thresholds {
	return Thresholds{Ranging: 20, Breakout: 40, DeadBand: 0}
}

// Classifier maps the ADX block of a snapshot onto a discrete market regime.
// It is a pure function of the snapshot and keeps no state of its own.
type Classifier struct {
	th Thresholds
}

var _ service.RegimeClassifier = (*Classifier)(nil)

func NewClassifier(th Thresholds) *Classifier {
	if th.Ranging <= 0 || th.Breakout <= th.Ranging {
		th = DefaultThresholds()
	}
	return &Classifier{th: th}
}

func (c *Classifier) Classify(snap *models.Snapshot) models.MarketState {
	if snap == nil || !snap.ADX.Ready {
		return models.MarketState{Regime: models.RegimeUnknown, Trend: models.TrendNone}
	}

	st := models.MarketState{
		ADX:     snap.ADX.ADX,
		PlusDI:  snap.ADX.PlusDI,
		MinusDI: snap.ADX.MinusDI,
	}
	if snap.ADX.HasPrev {
		st.ADXRising = st.ADX > snap.ADX.PrevADX
	}

	switch {
	case st.ADX < c.th.Ranging:
		st.Regime = models.RegimeRanging
	case st.ADX <= c.th.Breakout:
		st.Regime = models.RegimeTrending
	default:
		st.Regime = models.RegimeBreakout
	}

	st.Trend = c.direction(st.PlusDI, st.MinusDI)
	st.Confidence = c.confidence(st.ADX)
	return st
}

func (c *Classifier) direction(plusDI, minusDI float64) models.TrendDirection {
	diff := plusDI - minusDI
	switch {
	case diff > c.th.DeadBand:
		return models.TrendUp
	case diff < -c.th.DeadBand:
		return models.TrendDown
	default:
		return models.TrendNone
	}
}

// confidence grows linearly with the ADX distance from the nearest band
// boundary, so readings just across an edge stay tentative.
func (c *Classifier) confidence(adx float64) float64 {
	dist := math.Min(math.Abs(adx-c.th.Ranging), math.Abs(adx-c.th.Breakout))
	conf := dist / confidenceScale
	if conf > 1 {
		conf = 1
	}
	return conf
}
