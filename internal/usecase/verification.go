package usecase

import (
	"container/heap"
	"context"
	"sort"
	"sync"
	"time"

	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/domain/repository"
	enginemetrics "TrendPulse/internal/service/metrics"
	"TrendPulse/pkg/logger"
)

// DefaultVerifyInterval is how often due predictions are checked.
const DefaultVerifyInterval = 30 * time.Second

// DefaultVerifyGrace is how long past due time a record may wait for a price
// sample before it expires.
const DefaultVerifyGrace = 5 * time.Minute

// PriceSource yields the latest known price for a symbol. It must be safe to
// call from the verifier goroutine while ingestion keeps writing.
type PriceSource interface {
	LastPrice(symbol string) (float64, bool)
}

// Enqueuer is the slice of the job queue the tracker needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, msgType string, payload interface{}) error
}

// pendingHeap orders prediction records by due time.
type pendingHeap []*models.PredictionRecord

func (h pendingHeap) Len() int            { return len(h) }
func (h pendingHeap) Less(i, j int) bool  { return h[i].DueTime.Before(h[j].DueTime) }
func (h pendingHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *pendingHeap) Push(x interface{}) { *h = append(*h, x.(*models.PredictionRecord)) }
func (h *pendingHeap) Pop() interface{} {
	old := *h
	n := len(old)
	rec := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return rec
}

// Verifier tracks every emitted signal's predictions until their horizons
// pass, then scores them against the realized price. A single heap polled by
// one ticker bounds the cost no matter how many signals are in flight. It
// never takes a lock the ingestion path holds: prices arrive through the
// read-only PriceSource.
type Verifier struct {
	prices   PriceSource
	archive  Enqueuer
	metrics  repository.Metrics
	log      *logger.Logger
	interval time.Duration
	grace    time.Duration

	mu        sync.Mutex
	pending   pendingHeap
	bySignal  map[string][]*models.PredictionRecord
	signals   map[string]*models.TradingSignal
	stats     map[int]*models.HorizonAccuracy
	history   []*models.PredictionRecord
	clock     func() time.Time
}

type VerifierOption func(*Verifier)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) VerifierOption {
	return func(v *Verifier) { v.clock = now }
}

func WithVerifyWindow(interval, grace time.Duration) VerifierOption {
	return func(v *Verifier) {
		if interval > 0 {
			v.interval = interval
		}
		if grace > 0 {
			v.grace = grace
		}
	}
}

func NewVerifier(prices PriceSource, archive Enqueuer, metrics repository.Metrics, log *logger.Logger, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		prices:   prices,
		archive:  archive,
		metrics:  metrics,
		log:      log,
		interval: DefaultVerifyInterval,
		grace:    DefaultVerifyGrace,
		bySignal: make(map[string][]*models.PredictionRecord),
		signals:  make(map[string]*models.TradingSignal),
		stats:    make(map[int]*models.HorizonAccuracy),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	heap.Init(&v.pending)
	return v
}

// Track schedules one prediction record per horizon of the signal.
func (v *Verifier) Track(s *models.TradingSignal) {
	if s == nil || len(s.Predictions) == 0 {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	v.signals[s.ID] = s
	for _, p := range s.Predictions {
		rec := &models.PredictionRecord{
			SignalID:       s.ID,
			Symbol:         s.Symbol,
			HorizonMinutes: p.HorizonMinutes,
			DueTime:        s.Timestamp.Add(time.Duration(p.HorizonMinutes) * time.Minute),
			EntryPrice:     s.EntryPrice,
			Predicted:      p.Direction,
		}
		heap.Push(&v.pending, rec)
		v.bySignal[s.ID] = append(v.bySignal[s.ID], rec)
		v.horizon(p.HorizonMinutes).Total++
	}
	enginemetrics.PendingPredictions.Set(float64(v.pending.Len()))
}

// Start runs the periodic check until the context ends.
func (v *Verifier) Start(ctx context.Context) {
	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v.Tick(ctx)
		}
	}
}

// Tick resolves every record whose due time has passed. Records without a
// price sample stay queued until the grace deadline, then expire.
func (v *Verifier) Tick(ctx context.Context) {
	now := v.clock()

	v.mu.Lock()
	var completed []string
	for v.pending.Len() > 0 && !v.pending[0].DueTime.After(now) {
		rec := heap.Pop(&v.pending).(*models.PredictionRecord)

		price, ok := v.prices.LastPrice(rec.Symbol)
		switch {
		case ok:
			v.resolve(rec, price, now)
		case now.After(rec.DueTime.Add(v.grace)):
			v.expire(rec, now)
		default:
			// no sample yet, retry next tick
			heap.Push(&v.pending, rec)
			goto done
		}

		if id := rec.SignalID; v.signalDone(id) {
			completed = append(completed, id)
		}
	}
done:
	enginemetrics.PendingPredictions.Set(float64(v.pending.Len()))
	jobs := v.collectCompleted(completed)
	v.mu.Unlock()

	for _, job := range jobs {
		if err := v.archive.Enqueue(ctx, ArchiveJobType, job); err != nil {
			v.log.Warn("archive enqueue failed",
				logger.String("signal", job.Signal.ID),
				logger.Error(err))
		}
	}
}

// resolve scores one record against the sampled price. Called with the lock
// held; a record reaches here exactly once.
func (v *Verifier) resolve(rec *models.PredictionRecord, price float64, now time.Time) {
	switch {
	case price > rec.EntryPrice:
		rec.Actual = models.PriceHigher
	case price < rec.EntryPrice:
		rec.Actual = models.PriceLower
	default:
		rec.Actual = models.PriceEqual
	}
	rec.Correct = rec.Actual == rec.Predicted
	rec.Resolved = true
	rec.ResolvedAt = now
	v.history = append(v.history, rec)

	h := v.horizon(rec.HorizonMinutes)
	h.Resolved++
	if rec.Correct {
		h.Correct++
	}
	h.Accuracy = float64(h.Correct) / float64(h.Resolved)

	outcome := "incorrect"
	if rec.Correct {
		outcome = "correct"
	}
	v.metrics.RecordVerification(rec.HorizonMinutes, outcome)
	v.log.Debug("prediction resolved",
		logger.String("signal", rec.SignalID),
		logger.Int("horizon_minutes", rec.HorizonMinutes),
		logger.Bool("correct", rec.Correct))
}

// expire marks a record unresolved-expired. It counts in the expired bucket,
// never in accuracy.
func (v *Verifier) expire(rec *models.PredictionRecord, now time.Time) {
	rec.Expired = true
	rec.ResolvedAt = now
	v.history = append(v.history, rec)
	v.horizon(rec.HorizonMinutes).Expired++
	v.metrics.RecordVerification(rec.HorizonMinutes, "expired")
	v.log.Warn("prediction expired without a price sample",
		logger.String("signal", rec.SignalID),
		logger.Int("horizon_minutes", rec.HorizonMinutes))
}

func (v *Verifier) signalDone(id string) bool {
	for _, rec := range v.bySignal[id] {
		if !rec.Resolved && !rec.Expired {
			return false
		}
	}
	return true
}

func (v *Verifier) collectCompleted(ids []string) []ArchivePayload {
	jobs := make([]ArchivePayload, 0, len(ids))
	for _, id := range ids {
		sig := v.signals[id]
		if sig == nil {
			continue
		}
		recs := make([]models.PredictionRecord, 0, len(v.bySignal[id]))
		for _, r := range v.bySignal[id] {
			recs = append(recs, *r)
		}
		jobs = append(jobs, ArchivePayload{Signal: sig, Records: recs})
		delete(v.signals, id)
		delete(v.bySignal, id)
	}
	return jobs
}

func (v *Verifier) horizon(minutes int) *models.HorizonAccuracy {
	h, ok := v.stats[minutes]
	if !ok {
		h = &models.HorizonAccuracy{HorizonMinutes: minutes}
		v.stats[minutes] = h
	}
	return h
}

// Stats reports the per-horizon accuracy counters, sorted by horizon.
func (v *Verifier) Stats() models.VerificationStats {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := models.VerificationStats{Pending: v.pending.Len()}
	for _, h := range v.stats {
		out.Horizons = append(out.Horizons, *h)
	}
	sort.Slice(out.Horizons, func(i, j int) bool {
		return out.Horizons[i].HorizonMinutes < out.Horizons[j].HorizonMinutes
	})
	return out
}

// Recent returns the newest resolved or expired records, newest first.
func (v *Verifier) Recent(limit int) []models.PredictionRecord {
	v.mu.Lock()
	defer v.mu.Unlock()

	if limit <= 0 || limit > len(v.history) {
		limit = len(v.history)
	}
	out := make([]models.PredictionRecord, 0, limit)
	for i := len(v.history) - 1; i >= len(v.history)-limit; i-- {
		out = append(out, *v.history[i])
	}
	return out
}
