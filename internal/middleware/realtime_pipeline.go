package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"TrendPulse/internal/domain/models"
	domrepo "TrendPulse/internal/domain/repository"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, ev *models.BarEvent) error
}

// RealtimePipeline sits between the transport and the engine. It validates
// bar events, throttles per stream, and buffers when downstream is
// temporarily unavailable. Malformed events are dropped here and counted, so
// engine state never changes on bad input.
type RealtimePipeline struct {
	proc     Proc
	metrics  domrepo.Metrics
	maxRPS   int
	bufSize  int
	bufCh    chan *models.BarEvent
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSeen map[string]time.Time // per-stream last accepted time
	// metrics
	bufDepthGauge func(int)
	throttleWarn  func(string)
}

type PipelineOption func(*RealtimePipeline)

// WithMaxRPS sets the max events per second per (symbol, timeframe) stream.
func WithMaxRPS(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewRealtimePipeline creates a new pipeline.
func NewRealtimePipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *RealtimePipeline {
	p := &RealtimePipeline{
		proc:     proc,
		metrics:  metrics,
		maxRPS:   20,   // default throttle per stream
		bufSize:  1000, // default buffer
		bufCh:    make(chan *models.BarEvent, 1000),
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize != cap(p.bufCh) {
		p.bufCh = make(chan *models.BarEvent, p.bufSize)
	}
	// metrics hooks using domain metrics if available
	p.bufDepthGauge = func(n int) { p.metrics.RecordLatency("pipeline_buffer_depth", float64(n)) }
	p.throttleWarn = func(stream string) { p.metrics.RecordError("pipeline_throttle_" + stream) }
	return p
}

// Start launches background flushing of buffered events.
func (p *RealtimePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case ev := <-p.bufCh:
				if ev == nil {
					continue
				}
				if err := p.proc.Process(ctx, ev); err != nil {
					// exponential backoff with cap
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- ev:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *RealtimePipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, throttles, and forwards a bar event downstream,
// buffering on errors.
func (p *RealtimePipeline) Process(ctx context.Context, ev *models.BarEvent) error {
	start := time.Now()
	if err := ValidateBarEvent(ev); err != nil {
		p.metrics.RecordError(models.ErrorKind(err))
		return err
	}
	// throttle open-bar churn only; closed bars always pass so the engine
	// never misses a close event
	if !ev.Bar.Closed && !p.allow(streamKey(ev), start) {
		p.metrics.RecordError("pipeline_throttle")
		if p.throttleWarn != nil {
			p.throttleWarn(streamKey(ev))
		}
		return nil
	}

	if err := p.proc.Process(ctx, ev); err != nil {
		p.metrics.RecordError("pipeline_process")
		// buffer non-blocking
		select {
		case p.bufCh <- ev:
			if p.bufDepthGauge != nil {
				p.bufDepthGauge(len(p.bufCh))
			}
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

// ValidateBarEvent rejects events the engine must never see. Every failure
// wraps models.ErrMalformedBar.
func ValidateBarEvent(ev *models.BarEvent) error {
	if ev == nil {
		return fmt.Errorf("%w: nil event", models.ErrMalformedBar)
	}
	if ev.Symbol == "" {
		return fmt.Errorf("%w: symbol empty", models.ErrMalformedBar)
	}
	if ev.Timeframe == "" {
		return fmt.Errorf("%w: timeframe empty", models.ErrMalformedBar)
	}
	b := ev.Bar
	if b.OpenTime.IsZero() {
		return fmt.Errorf("%w: open time missing", models.ErrMalformedBar)
	}
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
		return fmt.Errorf("%w: non-positive price", models.ErrMalformedBar)
	}
	if b.Volume < 0 {
		return fmt.Errorf("%w: negative volume", models.ErrMalformedBar)
	}
	if b.High < b.Low {
		return fmt.Errorf("%w: high %g below low %g", models.ErrMalformedBar, b.High, b.Low)
	}
	return nil
}

func streamKey(ev *models.BarEvent) string {
	return ev.Symbol + ":" + ev.Timeframe
}

func (p *RealtimePipeline) allow(stream string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	// simple throttle: ensure at most maxRPS per second
	last := p.lastSeen[stream]
	if last.IsZero() {
		p.lastSeen[stream] = now
		return true
	}
	// compute elapsed events per second window
	if now.Sub(last) < time.Second/time.Duration(p.maxRPS) {
		return false
	}
	p.lastSeen[stream] = now
	return true
}
