package models

import "time"

type PriceDirection string

const (
	PriceHigher PriceDirection = "HIGHER"
	PriceLower  PriceDirection = "LOWER"
	PriceEqual  PriceDirection = "EQUAL"
)

// PredictionRecord tracks one (signal, horizon) pair until it resolves.
type PredictionRecord struct {
	SignalID       string
	Symbol         string
	HorizonMinutes int
	DueTime        time.Time
	EntryPrice     float64
	Predicted      PriceDirection
	Resolved       bool
	Expired        bool // no price arrived within the grace window
	Actual         PriceDirection
	Correct        bool
	ResolvedAt     time.Time
}

// HorizonAccuracy aggregates verification outcomes for one horizon.
// Expired records count toward Total but never toward Resolved or Correct.
type HorizonAccuracy struct {
	HorizonMinutes int
	Total          int
	Resolved       int
	Correct        int
	Expired        int
	Accuracy       float64 // Correct / Resolved, zero while Resolved is zero
}

// VerificationStats is the tracker's reportable state.
type VerificationStats struct {
	Pending  int
	Horizons []HorizonAccuracy
}
