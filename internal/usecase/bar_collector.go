package usecase

import (
	"context"

	"TrendPulse/internal/domain/models"
	drepo "TrendPulse/internal/domain/repository"
	mid "TrendPulse/internal/middleware"
)

// BarCollector pulls bar events from the live stream and feeds them through
// the validation pipeline into the processor.
type BarCollector struct {
	stream  drepo.BarStream
	proc    *BarProcessor
	metrics drepo.Metrics
	pipe    *mid.RealtimePipeline
}

// NewBarCollector creates a new BarCollector instance.
func NewBarCollector(stream drepo.BarStream, proc *BarProcessor, metrics drepo.Metrics, pipe *mid.RealtimePipeline) *BarCollector {
	return &BarCollector{stream: stream, proc: proc, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the bar stream is connected.
func (c *BarCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *BarCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	evCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, evCh, errCh)
	return nil
}

func (c *BarCollector) consume(ctx context.Context, evCh <-chan *models.BarEvent, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case ev := <-evCh:
			if ev == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, ev)
			} else {
				_ = c.proc.Process(ctx, ev)
			}
		}
	}
}

func (c *BarCollector) Stop() error { return c.stream.Close() }

// Processor returns the underlying BarProcessor for lifecycle management.
func (c *BarCollector) Processor() *BarProcessor { return c.proc }

// Shutdown stops the pipeline and closes the stream.
func (c *BarCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
