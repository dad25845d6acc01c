package models

// TFStatus is one confirmation timeframe's verdict on a candidate.
type TFStatus string

const (
	TFConfirmed TFStatus = "CONFIRMED"
	TFNeutral   TFStatus = "NEUTRAL"
	TFRejected  TFStatus = "REJECTED"
)

// TFCheck is the outcome of checking a candidate on one higher timeframe.
type TFCheck struct {
	Timeframe string
	Status    TFStatus
	Score     float64 // 0..1
	PassRate  float64 // passed checks over applicable checks
	Notes     []string
}

// Confirmation is the multi timeframe verdict for a candidate. Adjusted is
// the weight-blended strength across the primary and confirmation timeframes
// after rejection penalties, in 0..1. Timeframes with no usable data abstain:
// they are absent from Checks and carry no weight.
type Confirmation struct {
	Confirmed  bool
	Count      int
	Rejections int
	Stale      int
	Adjusted   float64
	Checks     []TFCheck
	Warnings   []string
}
