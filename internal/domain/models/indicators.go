package models

import "time"

// Series holds aligned OHLCV arrays, oldest first.
type Series struct {
	Highs   []float64
	Lows    []float64
	Closes  []float64
	Volumes []float64
}

// Len returns the number of aligned samples.
func (s Series) Len() int { return len(s.Closes) }

type VolumeCondition string

const (
	VolumeSpike   VolumeCondition = "SPIKE"    // >= 2.0x the volume MA
	VolumeHigh    VolumeCondition = "HIGH"     // >= 1.5x
	VolumeNormal  VolumeCondition = "NORMAL"
	VolumeLow     VolumeCondition = "LOW"      // <= 0.7x
	VolumeVeryLow VolumeCondition = "VERY_LOW" // <= 0.5x
)

type VolumeTrend string

const (
	VolumeIncreasing VolumeTrend = "INCREASING"
	VolumeDecreasing VolumeTrend = "DECREASING"
	VolumeStable     VolumeTrend = "STABLE"
)

// Per-indicator value blocks. Fields are meaningful only while Ready is set;
// Prev* fields only while HasPrev is set.

type EMAValues struct {
	Ready     bool
	UltraFast float64
	Fast      float64
	Medium    float64
	Slow      float64
	HasSlow   bool
}

type RSIValues struct {
	Ready   bool
	Cur     float64
	Prev    float64
	HasPrev bool
}

type KDJValues struct {
	Ready   bool
	K, D, J float64
	PrevK   float64
	PrevD   float64
	PrevJ   float64
	HasPrev bool
}

type MACDValues struct {
	Ready      bool
	MACD       float64
	Signal     float64
	Hist       float64
	PrevMACD   float64
	PrevSignal float64
	PrevHist   float64
	HasPrev    bool
}

type BollValues struct {
	Ready    bool
	Upper    float64
	Middle   float64
	Lower    float64
	PercentB float64
}

type CCIValues struct {
	Ready   bool
	Cur     float64
	Prev    float64
	HasPrev bool
}

type ATRValues struct {
	Ready   bool
	Cur     float64
	Prev    float64
	HasPrev bool
	Recent  []float64 // trailing window incl. Cur, oldest first
}

type VWAPValues struct {
	Ready   bool
	Cur     float64
	Prev    float64
	HasPrev bool
}

type VolumeDivergence string

const (
	DivergenceBullish VolumeDivergence = "BULLISH" // price falling on shrinking volume
	DivergenceBearish VolumeDivergence = "BEARISH" // price rising on shrinking volume
	DivergenceNone    VolumeDivergence = "NONE"
)

type VolumeValues struct {
	Ready      bool
	Last       float64
	MA         float64
	Ratio      float64 // Last / MA, zero when MA is zero
	Change     float64 // relative change vs the previous bar
	Condition  VolumeCondition
	Trend      VolumeTrend
	Divergence VolumeDivergence
}

type ADXValues struct {
	Ready       bool
	ADX         float64
	PlusDI      float64
	MinusDI     float64
	PrevADX     float64
	PrevPlusDI  float64
	PrevMinusDI float64
	HasPrev     bool
}

// Snapshot bundles the latest indicator values for one symbol and timeframe
// with the price window they were computed from. Evaluators read snapshots,
// never the raw buffers.
type Snapshot struct {
	Symbol    string
	Timeframe string
	Timestamp time.Time
	Series

	EMA    EMAValues
	RSI    RSIValues
	KDJ    KDJValues
	MACD   MACDValues
	Boll   BollValues
	CCI    CCIValues
	ATR    ATRValues
	VWAP   VWAPValues
	Volume VolumeValues
	ADX    ADXValues
}

// Price returns the latest close, or zero for an empty snapshot.
func (s *Snapshot) Price() float64 {
	if len(s.Closes) == 0 {
		return 0
	}
	return s.Closes[len(s.Closes)-1]
}

// PrevPrice returns the close one bar back and whether it exists.
func (s *Snapshot) PrevPrice() (float64, bool) {
	if len(s.Closes) < 2 {
		return 0, false
	}
	return s.Closes[len(s.Closes)-2], true
}
