package service

import (
	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/domain/repository"
)

// RegimeClassifier derives the market state for a snapshot from its ADX block.
type RegimeClassifier interface {
	Classify(snap *models.Snapshot) models.MarketState
}

// Evaluator turns a snapshot and its market state into a trade candidate.
// Implementations wrap models.ErrInsufficientData while their warm-up window
// is not yet filled.
type Evaluator interface {
	Name() string
	Evaluate(snap *models.Snapshot, state models.MarketState) (models.Candidate, error)
}

// EvaluatorSelector picks the evaluator responsible for a market state.
// The second return is false when no evaluator covers the state, for example
// when the matching strategy is disabled.
type EvaluatorSelector interface {
	Select(state models.MarketState) (Evaluator, bool)
}

// Confirmer checks a candidate direction against higher timeframe snapshots
// and blends the final strength.
type Confirmer interface {
	Confirm(dir models.Direction, strength float64, primary *models.Snapshot, higher map[repository.Timeframe]*models.Snapshot) models.Confirmation
}
