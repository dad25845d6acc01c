package models

type Regime string

const (
	RegimeUnknown  Regime = "UNKNOWN" // ADX not warm yet
	RegimeRanging  Regime = "RANGING"
	RegimeTrending Regime = "TRENDING"
	RegimeBreakout Regime = "BREAKOUT"
)

type TrendDirection string

const (
	TrendUp   TrendDirection = "UP"
	TrendDown TrendDirection = "DOWN"
	TrendNone TrendDirection = "NONE"
)

// MarketState is the classified regime for one evaluation step.
type MarketState struct {
	Regime     Regime
	Trend      TrendDirection
	ADX        float64
	PlusDI     float64
	MinusDI    float64
	ADXRising  bool
	Confidence float64 // [0,1], distance from the nearest band boundary
}
