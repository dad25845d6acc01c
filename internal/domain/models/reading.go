package models

type Direction string

const (
	DirectionBuy     Direction = "BUY"
	DirectionSell    Direction = "SELL"
	DirectionNeutral Direction = "NEUTRAL"
)

// Opposite returns the mirrored direction; NEUTRAL maps to itself.
func (d Direction) Opposite() Direction {
	switch d {
	case DirectionBuy:
		return DirectionSell
	case DirectionSell:
		return DirectionBuy
	default:
		return DirectionNeutral
	}
}

type IndicatorKind string

const (
	KindTrend  IndicatorKind = "trend"
	KindRSI    IndicatorKind = "rsi"
	KindKDJ    IndicatorKind = "kdj"
	KindMACD   IndicatorKind = "macd"
	KindBoll   IndicatorKind = "boll"
	KindCCI    IndicatorKind = "cci"
	KindATR    IndicatorKind = "atr"
	KindVWAP   IndicatorKind = "vwap"
	KindVolume IndicatorKind = "volume"
)

// IndicatorReading is one indicator's vote for an evaluation step.
type IndicatorReading struct {
	Kind      IndicatorKind
	Values    map[string]float64
	Strength  float64 // 0..100
	Direction Direction
	Rationale string
}

// CompositeScore is the aggregated outcome of one evaluation step. Resonance
// holds the weighted indicator votes in resonance mode, or the rule
// evaluator's scaled score in regime mode.
type CompositeScore struct {
	Trend         float64 // 0..25
	Resonance     float64
	Momentum      float64 // 0..15
	Timing        float64 // 0..10
	Total         float64 // 0..100
	Direction     Direction
	BuyVotes      int
	SellVotes     int
	PassedFilters bool
}

// ResonanceCount is the vote count backing the winning direction.
func (c CompositeScore) ResonanceCount() int {
	if c.BuyVotes > c.SellVotes {
		return c.BuyVotes
	}
	return c.SellVotes
}

// Candidate is an evaluator's verdict on one closed bar. A NEUTRAL direction
// means no actionable setup. StopLoss and TakeProfit are zero when the
// evaluator could not derive them. Score is set in resonance mode only.
type Candidate struct {
	Direction  Direction
	Strength   float64 // 0..1
	Checks     int
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
	Reasons    []string
	Score      *CompositeScore
}
