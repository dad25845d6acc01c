package models

import "time"

type Grade string

const (
	GradeA    Grade = "A"
	GradeB    Grade = "B"
	GradeC    Grade = "C"
	GradeNone Grade = "NONE" // computed for diagnostics, never emitted
)

// Emittable reports whether signals of this grade leave the engine.
func (g Grade) Emittable() bool { return g == GradeA || g == GradeB || g == GradeC }

// Prediction is one horizon's forward-looking call attached to a signal.
type Prediction struct {
	HorizonMinutes int
	Direction      PriceDirection
	Confidence     float64 // 0..1, decays with horizon
	TargetPrice    float64
}

// TradingSignal is the engine's final product for one evaluation step.
type TradingSignal struct {
	ID                string
	Timestamp         time.Time
	Symbol            string
	Timeframe         string
	Direction         Direction
	Strength          float64 // raw candidate strength, 0..1
	AdjustedStrength  float64 // after multi-timeframe blending, 0..1
	Grade             Grade
	MarketState       MarketState
	StrategyUsed      string
	IsConfirmed       bool
	ConfirmationCount int
	EntryPrice        float64
	StopLoss          float64
	TakeProfit        float64
	Score             CompositeScore
	Predictions       []Prediction
	Reasons           []string
	Warnings          []string
}
