package usecase

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/domain/repository"
	"TrendPulse/internal/domain/service"
	enginemetrics "TrendPulse/internal/service/metrics"
	"TrendPulse/pkg/logger"
)

// engineMinBars is the closed-bar depth required before the engine evaluates
// at all. It covers the slowest EMA so every strategy sees a warm stack.
const engineMinBars = 60

// DefaultHorizons are the prediction horizons in minutes.
var DefaultHorizons = []int{10, 30, 60}

// SignalEngine runs the full evaluation pipeline for one closed primary bar:
// classify the regime, pick a strategy, confirm the candidate on higher
// timeframes, grade it and attach predictions. A nil signal with a nil error
// means the step completed without an emittable signal.
type SignalEngine struct {
	classifier service.RegimeClassifier
	selector   service.EvaluatorSelector
	confirmer  service.Confirmer
	thresholds GradeThresholds
	horizons   []int
	log        *logger.Logger
}

func NewSignalEngine(
	classifier service.RegimeClassifier,
	selector service.EvaluatorSelector,
	confirmer service.Confirmer,
	thresholds GradeThresholds,
	horizons []int,
	log *logger.Logger,
) *SignalEngine {
	if len(horizons) == 0 {
		horizons = DefaultHorizons
	}
	return &SignalEngine{
		classifier: classifier,
		selector:   selector,
		confirmer:  confirmer,
		thresholds: thresholds,
		horizons:   horizons,
		log:        log,
	}
}

// Classify exposes the engine's regime classifier for state inspection.
func (e *SignalEngine) Classify(snap *models.Snapshot) models.MarketState {
	return e.classifier.Classify(snap)
}

func (e *SignalEngine) Evaluate(snap *models.Snapshot, higher map[repository.Timeframe]*models.Snapshot) (*models.TradingSignal, error) {
	if snap == nil || snap.Len() < engineMinBars {
		have := 0
		if snap != nil {
			have = snap.Len()
		}
		return nil, fmt.Errorf("signal engine: %d of %d closed bars: %w",
			have, engineMinBars, models.ErrInsufficientData)
	}

	state := e.classifier.Classify(snap)

	ev, ok := e.selector.Select(state)
	if !ok {
		e.log.Debug("no evaluator for market state",
			logger.String("symbol", snap.Symbol),
			logger.String("regime", string(state.Regime)))
		return nil, nil
	}

	cand, err := ev.Evaluate(snap, state)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", ev.Name(), err)
	}
	if cand.Direction == models.DirectionNeutral {
		enginemetrics.CandidatesTotal.WithLabelValues(ev.Name(), "neutral").Inc()
		e.log.Debug("no candidate",
			logger.String("symbol", snap.Symbol),
			logger.String("strategy", ev.Name()),
			logger.Strings("reasons", firstN(cand.Reasons, 3)))
		return nil, nil
	}

	conf := e.confirmer.Confirm(cand.Direction, cand.Strength, snap, higher)
	adjusted := conf.Adjusted

	grade := gradeSignal(adjusted, conf, e.thresholds)
	if !grade.Emittable() {
		enginemetrics.CandidatesTotal.WithLabelValues(ev.Name(), "below_grade").Inc()
		e.log.Debug("candidate below emission grade",
			logger.String("symbol", snap.Symbol),
			logger.String("strategy", ev.Name()),
			logger.String("direction", string(cand.Direction)),
			logger.Any("adjusted", adjusted))
		return nil, nil
	}

	entry := cand.EntryPrice
	if entry == 0 {
		entry = snap.Price()
	}
	stop, take := cand.StopLoss, cand.TakeProfit
	if snap.ATR.Ready {
		if stop == 0 {
			stop = atrLevel(cand.Direction, entry, snap.ATR.Cur, -2)
		}
		if take == 0 {
			take = atrLevel(cand.Direction, entry, snap.ATR.Cur, 3)
		}
	}

	sig := &models.TradingSignal{
		ID:                uuid.New().String()[:8],
		Timestamp:         snap.Timestamp,
		Symbol:            snap.Symbol,
		Timeframe:         snap.Timeframe,
		Direction:         cand.Direction,
		Strength:          cand.Strength,
		AdjustedStrength:  adjusted,
		Grade:             grade,
		MarketState:       state,
		StrategyUsed:      ev.Name(),
		IsConfirmed:       conf.Confirmed,
		ConfirmationCount: conf.Count,
		EntryPrice:        entry,
		StopLoss:          stop,
		TakeProfit:        take,
		Predictions:       e.predictions(cand.Direction, adjusted, entry, snap),
		Reasons:           cand.Reasons,
		Warnings:          e.warnings(state, conf, grade, snap),
	}
	if cand.Score != nil {
		sig.Score = *cand.Score
	}
	enginemetrics.CandidatesTotal.WithLabelValues(ev.Name(), "emitted").Inc()
	return sig, nil
}

// predictions projects the adjusted strength over every horizon. Confidence
// decays 30% across two hours; the target moves one ATR per 30 minutes.
func (e *SignalEngine) predictions(dir models.Direction, strength, price float64, snap *models.Snapshot) []models.Prediction {
	predicted := models.PriceHigher
	if dir == models.DirectionSell {
		predicted = models.PriceLower
	}

	preds := make([]models.Prediction, 0, len(e.horizons))
	for _, h := range e.horizons {
		decay := 1 - float64(h)/120*0.3
		p := models.Prediction{
			HorizonMinutes: h,
			Direction:      predicted,
			Confidence:     round(strength*decay, 3),
		}
		if snap.ATR.Ready {
			delta := snap.ATR.Cur * float64(h) / 30
			if dir == models.DirectionBuy {
				p.TargetPrice = round(price+delta, 2)
			} else {
				p.TargetPrice = round(price-delta, 2)
			}
		}
		preds = append(preds, p)
	}
	return preds
}

func (e *SignalEngine) warnings(state models.MarketState, conf models.Confirmation, grade models.Grade, snap *models.Snapshot) []string {
	ws := append([]string(nil), conf.Warnings...)

	if state.Confidence < 0.6 {
		ws = append(ws, fmt.Sprintf("market state unclear (confidence %.0f%%)", state.Confidence*100))
	}
	if len(conf.Checks) > 0 && !conf.Confirmed {
		ws = append(ws, fmt.Sprintf("higher timeframes did not confirm (%d of %d)", conf.Count, len(conf.Checks)))
	}
	if grade == models.GradeC {
		ws = append(ws, "weak signal, consider staying out")
	}
	if state.Regime == models.RegimeBreakout &&
		!(snap.Volume.Ready && snap.Volume.Condition == models.VolumeSpike) {
		ws = append(ws, "breakout without a volume spike")
	}
	return ws
}

// atrLevel offsets entry by mult ATRs in trade direction for a buy; sells
// mirror. Negative mult lands on the protective side.
func atrLevel(dir models.Direction, entry, atr, mult float64) float64 {
	if dir == models.DirectionSell {
		mult = -mult
	}
	return entry + atr*mult
}

func round(x float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(x*pow) / pow
}

func firstN(xs []string, n int) []string {
	if len(xs) <= n {
		return xs
	}
	return xs[:n]
}
