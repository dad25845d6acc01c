package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/domain/repository"
	"TrendPulse/internal/service/barbuffer"
	enginemetrics "TrendPulse/internal/service/metrics"
	"TrendPulse/internal/services/indicators"
	"TrendPulse/pkg/logger"
)

// ProcessorConfig describes the symbol/timeframe grid the processor runs.
type ProcessorConfig struct {
	PrimaryTimeframe repository.Timeframe
	Timeframes       []repository.Timeframe // primary plus confirmation timeframes
	BufferSize       int
	BackfillBars     int
	Params           indicators.Params
}

func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PrimaryTimeframe: repository.TF5m,
		Timeframes:       []repository.Timeframe{repository.TF5m, repository.TF15m, repository.TF1h},
		BufferSize:       barbuffer.DefaultMaxClosed,
		BackfillBars:     300,
		Params:           indicators.DefaultParams(),
	}
}

// streamState is one (symbol, timeframe) leg: the bar buffer and the
// indicator substrate advancing in lockstep with its closed bars.
type streamState struct {
	buf *barbuffer.Buffer
	sub *indicators.Substrate
}

// symbolWorker serializes all bar events of one symbol. The worker goroutine
// is the only writer of the symbol's buffers and indicator state; mu guards
// the buffers against concurrent API reads.
type symbolWorker struct {
	symbol  string
	events  chan *models.BarEvent
	mu      sync.Mutex
	streams map[repository.Timeframe]*streamState
}

// BarProcessor routes bar events into per-symbol workers and runs the signal
// pipeline on every primary bar close. Symbols advance independently and in
// parallel; one symbol's events are strictly ordered.
type BarProcessor struct {
	cfg      ProcessorConfig
	engine   *SignalEngine
	store    repository.SignalStore
	pub      repository.SignalPublisher
	notifier repository.Notifier
	barStore repository.BarStore
	fetcher  repository.BarFetcher
	verifier *Verifier
	metrics  repository.Metrics
	log      *logger.Logger

	mu      sync.RWMutex
	workers map[string]*symbolWorker
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc

	prices sync.Map // symbol -> float64, read by the verifier

	stateMu    sync.RWMutex
	snapshots  map[string]map[repository.Timeframe]*models.Snapshot
	lastSignal map[string]*models.TradingSignal
	lastState  map[string]*models.MarketState
}

func NewBarProcessor(
	cfg ProcessorConfig,
	engine *SignalEngine,
	store repository.SignalStore,
	pub repository.SignalPublisher,
	notifier repository.Notifier,
	barStore repository.BarStore,
	fetcher repository.BarFetcher,
	verifier *Verifier,
	metrics repository.Metrics,
	log *logger.Logger,
) (*BarProcessor, error) {
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}
	if cfg.PrimaryTimeframe == "" {
		cfg.PrimaryTimeframe = repository.DefaultTimeframe()
	}
	if len(cfg.Timeframes) == 0 {
		cfg.Timeframes = []repository.Timeframe{cfg.PrimaryTimeframe}
	}
	return &BarProcessor{
		cfg:        cfg,
		engine:     engine,
		store:      store,
		pub:        pub,
		notifier:   notifier,
		barStore:   barStore,
		fetcher:    fetcher,
		verifier:   verifier,
		metrics:    metrics,
		log:        log,
		workers:    make(map[string]*symbolWorker),
		snapshots:  make(map[string]map[repository.Timeframe]*models.Snapshot),
		lastSignal: make(map[string]*models.TradingSignal),
		lastState:  make(map[string]*models.MarketState),
	}, nil
}

// AttachVerifier connects the verifier after construction. The verifier reads
// last prices from this processor, so the two are built in that order and
// joined here before Start.
func (p *BarProcessor) AttachVerifier(v *Verifier) { p.verifier = v }

// Start spins up workers for the given symbols and warms their buffers from
// the batch fetch API.
func (p *BarProcessor) Start(ctx context.Context, symbols []string) error {
	p.ctx, p.cancel = context.WithCancel(ctx)
	for _, s := range symbols {
		w, err := p.newWorker(ctx, s)
		if err != nil {
			return err
		}
		p.mu.Lock()
		p.workers[s] = w
		p.mu.Unlock()
		p.wg.Add(1)
		go p.runWorker(w)
	}
	return nil
}

// Stop drains the workers.
func (p *BarProcessor) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

// Process routes one validated bar event to its symbol worker. Events for
// unknown symbols are dropped with a debug log: the stream can carry symbols
// the engine was not configured for.
func (p *BarProcessor) Process(ctx context.Context, ev *models.BarEvent) error {
	p.mu.RLock()
	w, ok := p.workers[ev.Symbol]
	p.mu.RUnlock()
	if !ok {
		p.log.Debug("event for unconfigured symbol", logger.String("symbol", ev.Symbol))
		return nil
	}
	select {
	case w.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LastPrice implements PriceSource for the verifier.
func (p *BarProcessor) LastPrice(symbol string) (float64, bool) {
	v, ok := p.prices.Load(symbol)
	if !ok {
		return 0, false
	}
	return v.(float64), true
}

func (p *BarProcessor) newWorker(ctx context.Context, symbol string) (*symbolWorker, error) {
	w := &symbolWorker{
		symbol:  symbol,
		events:  make(chan *models.BarEvent, 256),
		streams: make(map[repository.Timeframe]*streamState),
	}
	for _, tf := range p.cfg.Timeframes {
		sub, err := indicators.New(p.cfg.Params)
		if err != nil {
			return nil, err
		}
		w.streams[tf] = &streamState{
			buf: barbuffer.New(p.cfg.BufferSize),
			sub: sub,
		}
		if err := p.warmup(ctx, w, tf); err != nil {
			// a cold buffer only delays the first signals
			p.log.Warn("backfill failed, starting cold",
				logger.String("symbol", symbol),
				logger.String("timeframe", string(tf)),
				logger.Error(err))
		}
	}
	return w, nil
}

func (p *BarProcessor) warmup(ctx context.Context, w *symbolWorker, tf repository.Timeframe) error {
	if p.fetcher == nil || p.cfg.BackfillBars <= 0 {
		return nil
	}
	bars, err := p.fetcher.RecentBars(ctx, w.symbol, tf, p.cfg.BackfillBars)
	if err != nil {
		return err
	}
	st := w.streams[tf]
	for _, bar := range bars {
		finalized, err := st.buf.Apply(bar)
		if err != nil {
			continue
		}
		for _, b := range finalized {
			st.sub.Advance(b)
		}
	}
	p.log.Info("buffer warmed",
		logger.String("symbol", w.symbol),
		logger.String("timeframe", string(tf)),
		logger.Int("bars", st.buf.Len()))
	return nil
}

func (p *BarProcessor) runWorker(w *symbolWorker) {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case ev := <-w.events:
			if ev == nil {
				continue
			}
			p.handleEvent(w, ev)
		}
	}
}

// handleEvent is the single-writer step for one symbol: fold the event into
// its buffer, advance indicators on every finalized bar, and evaluate when
// the primary timeframe closes a bar.
func (p *BarProcessor) handleEvent(w *symbolWorker, ev *models.BarEvent) {
	tf := repository.Timeframe(ev.Timeframe)
	st, ok := w.streams[tf]
	if !ok {
		p.log.Debug("event for unconfigured timeframe",
			logger.String("symbol", ev.Symbol),
			logger.String("timeframe", ev.Timeframe))
		return
	}

	p.prices.Store(w.symbol, ev.Bar.Close)
	p.metrics.RecordLastPrice(w.symbol, ev.Bar.Close)

	w.mu.Lock()
	finalized, err := st.buf.Apply(ev.Bar)
	w.mu.Unlock()
	if err != nil {
		if errors.Is(err, models.ErrDuplicateBar) {
			p.log.Debug("duplicate bar dropped",
				logger.String("symbol", w.symbol),
				logger.String("timeframe", ev.Timeframe))
			p.metrics.RecordError(models.ErrorKind(err))
			return
		}
		p.metrics.RecordError(models.ErrorKind(err))
		p.log.Warn("bar apply failed", logger.Error(err))
		return
	}
	if len(finalized) == 0 {
		return
	}

	for _, bar := range finalized {
		st.sub.Advance(bar)
		p.metrics.RecordBar(w.symbol, string(tf))
	}
	p.archiveBars(w.symbol, tf, finalized)

	w.mu.Lock()
	series := st.buf.Series(false)
	w.mu.Unlock()
	snap := st.sub.Snapshot(w.symbol, string(tf), finalized[len(finalized)-1].OpenTime, series)
	p.stateMu.Lock()
	if p.snapshots[w.symbol] == nil {
		p.snapshots[w.symbol] = make(map[repository.Timeframe]*models.Snapshot)
	}
	p.snapshots[w.symbol][tf] = snap
	p.stateMu.Unlock()

	if tf == p.cfg.PrimaryTimeframe {
		p.evaluate(w, snap)
	}
}

func (p *BarProcessor) archiveBars(symbol string, tf repository.Timeframe, bars []models.Bar) {
	if p.barStore == nil {
		return
	}
	ctx, cancel := context.WithTimeout(p.ctx, 5*time.Second)
	defer cancel()
	if err := p.barStore.StoreBatch(ctx, symbol, tf, bars); err != nil {
		p.metrics.RecordError("bar_store")
		p.log.Warn("bar archive failed",
			logger.String("symbol", symbol),
			logger.Error(err))
	}
}

func (p *BarProcessor) evaluate(w *symbolWorker, snap *models.Snapshot) {
	start := time.Now()

	higher := make(map[repository.Timeframe]*models.Snapshot, len(w.streams)-1)
	p.stateMu.RLock()
	for tf := range w.streams {
		if tf == p.cfg.PrimaryTimeframe {
			continue
		}
		if s := p.snapshots[w.symbol][tf]; s != nil {
			higher[tf] = s
		}
	}
	p.stateMu.RUnlock()

	sig, err := p.engine.Evaluate(snap, higher)
	enginemetrics.EngineLatency.WithLabelValues("evaluate").Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, models.ErrInsufficientData) {
			p.log.Debug("engine warming up",
				logger.String("symbol", w.symbol),
				logger.Int("bars", snap.Len()))
			return
		}
		enginemetrics.EngineErrors.WithLabelValues("evaluate").Inc()
		p.metrics.RecordError(models.ErrorKind(err))
		p.log.Error("evaluation failed", logger.String("symbol", w.symbol), logger.Error(err))
		return
	}

	p.stateMu.Lock()
	state := p.engine.Classify(snap)
	p.lastState[w.symbol] = &state
	if sig != nil {
		p.lastSignal[w.symbol] = sig
	}
	p.stateMu.Unlock()

	if sig == nil {
		return
	}
	p.emit(sig)
}

// emit publishes one graded signal to every sink. Sinks are independent: a
// failing store does not stop publication or verification tracking.
func (p *BarProcessor) emit(sig *models.TradingSignal) {
	ctx, cancel := context.WithTimeout(p.ctx, 10*time.Second)
	defer cancel()

	p.metrics.RecordSignal(sig.Symbol, string(sig.Grade), string(sig.Direction))
	p.log.Info("signal emitted",
		logger.String("id", sig.ID),
		logger.String("symbol", sig.Symbol),
		logger.String("direction", string(sig.Direction)),
		logger.String("grade", string(sig.Grade)),
		logger.Any("adjusted_strength", sig.AdjustedStrength))

	if p.store != nil {
		if err := p.store.Save(ctx, sig); err != nil {
			p.metrics.RecordError("signal_store")
			p.log.Warn("signal store failed", logger.String("id", sig.ID), logger.Error(err))
		}
	}
	if p.pub != nil {
		if err := p.pub.Publish(ctx, sig); err != nil {
			p.metrics.RecordError("signal_publish")
			p.log.Warn("signal publish failed", logger.String("id", sig.ID), logger.Error(err))
		}
	}
	if p.notifier != nil {
		if err := p.notifier.Notify(ctx, sig); err != nil {
			p.metrics.RecordError("signal_notify")
		}
	}
	if p.verifier != nil {
		p.verifier.Track(sig)
	}
}

// Generate runs one batch evaluation over caller-supplied history, the
// offline twin of the live pipeline. Higher timeframe history is optional;
// absent timeframes abstain from confirmation.
func (p *BarProcessor) Generate(symbol string, bars []models.Bar, higherBars map[repository.Timeframe][]models.Bar) (*models.TradingSignal, error) {
	snap, err := indicators.Compute(p.cfg.Params, symbol, string(p.cfg.PrimaryTimeframe), bars)
	if err != nil {
		return nil, fmt.Errorf("primary snapshot: %w", err)
	}
	higher := make(map[repository.Timeframe]*models.Snapshot, len(higherBars))
	for tf, hb := range higherBars {
		hs, err := indicators.Compute(p.cfg.Params, symbol, string(tf), hb)
		if err != nil {
			return nil, fmt.Errorf("%s snapshot: %w", tf, err)
		}
		higher[tf] = hs
	}
	return p.engine.Evaluate(snap, higher)
}

// Overview assembles the symbol's current engine state for the API layer.
func (p *BarProcessor) Overview(symbol string, tf repository.Timeframe) *models.SymbolOverview {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()

	out := &models.SymbolOverview{
		Symbol:    symbol,
		Timeframe: string(tf),
		Timestamp: time.Now().UTC(),
		Last:      p.lastSignal[symbol],
		State:     p.lastState[symbol],
	}
	if snaps := p.snapshots[symbol]; snaps != nil {
		out.Snapshot = snaps[tf]
	}
	if p.verifier != nil {
		stats := p.verifier.Stats()
		out.Stats = &stats
	}
	return out
}

// Bars returns the closed bars currently buffered for a stream, newest last.
func (p *BarProcessor) Bars(symbol string, tf repository.Timeframe, limit int) []models.Bar {
	p.mu.RLock()
	w, ok := p.workers[symbol]
	p.mu.RUnlock()
	if !ok {
		return nil
	}
	st, ok := w.streams[tf]
	if !ok {
		return nil
	}
	w.mu.Lock()
	bars := st.buf.Bars(true)
	w.mu.Unlock()
	if limit > 0 && len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return bars
}
