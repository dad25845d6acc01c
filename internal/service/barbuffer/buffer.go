package barbuffer

import (
	"fmt"
	"time"

	"TrendPulse/internal/domain/models"
)

// DefaultMaxClosed bounds the closed-bar history kept per symbol and
// timeframe.
const DefaultMaxClosed = 500

// Buffer keeps the live bar sequence for one symbol and timeframe: a bounded
// run of closed bars plus the single active (possibly unclosed) bar. Repeat
// pushes of the active bar merge in place, and a new open time force-closes
// whatever was active, so a missed close flag cannot wedge the sequence.
//
// A Buffer is owned by one symbol worker and is not safe for concurrent use.
// Series and Bars return copies, so published snapshots stay immutable.
type Buffer struct {
	maxClosed  int
	closed     []models.Bar
	active     *models.Bar
	lastClosed time.Time
	hasClosed  bool
}

func New(maxClosed int) *Buffer {
	if maxClosed <= 0 {
		maxClosed = DefaultMaxClosed
	}
	return &Buffer{
		maxClosed: maxClosed,
		closed:    make([]models.Bar, 0, maxClosed),
	}
}

// Apply folds one bar event into the buffer and returns the bars it
// finalized, oldest first. Events at or before the last closed open time are
// dropped with models.ErrDuplicateBar.
func (b *Buffer) Apply(bar models.Bar) ([]models.Bar, error) {
	if b.hasClosed && !bar.OpenTime.After(b.lastClosed) {
		return nil, fmt.Errorf("%w: open time %s at or before last closed %s",
			models.ErrDuplicateBar, bar.OpenTime.Format(time.RFC3339), b.lastClosed.Format(time.RFC3339))
	}

	var finalized []models.Bar
	if b.active != nil && bar.OpenTime.Equal(b.active.OpenTime) {
		b.active.Merge(bar)
	} else {
		if done, ok := b.finalizeActive(); ok {
			finalized = append(finalized, done)
		}
		clone := bar
		b.active = &clone
	}

	if b.active != nil && b.active.Closed {
		if done, ok := b.finalizeActive(); ok {
			finalized = append(finalized, done)
		}
	}
	return finalized, nil
}

func (b *Buffer) finalizeActive() (models.Bar, bool) {
	if b.active == nil {
		return models.Bar{}, false
	}
	done := *b.active
	done.Closed = true
	b.active = nil
	b.lastClosed = done.OpenTime
	b.hasClosed = true

	if len(b.closed) == b.maxClosed {
		copy(b.closed, b.closed[1:])
		b.closed[b.maxClosed-1] = done
	} else {
		b.closed = append(b.closed, done)
	}
	return done, true
}

// Len reports the number of closed bars held.
func (b *Buffer) Len() int { return len(b.closed) }

// Bars returns a copy of the closed bars, optionally with the active bar
// appended.
func (b *Buffer) Bars(includeActive bool) []models.Bar {
	out := make([]models.Bar, len(b.closed), len(b.closed)+1)
	copy(out, b.closed)
	if includeActive && b.active != nil {
		out = append(out, *b.active)
	}
	return out
}

// Series returns the aligned OHLCV arrays, optionally with the active bar
// appended.
func (b *Buffer) Series(includeActive bool) models.Series {
	n := len(b.closed)
	if includeActive && b.active != nil {
		n++
	}
	s := models.Series{
		Highs:   make([]float64, 0, n),
		Lows:    make([]float64, 0, n),
		Closes:  make([]float64, 0, n),
		Volumes: make([]float64, 0, n),
	}
	appendBar := func(bar models.Bar) {
		s.Highs = append(s.Highs, bar.High)
		s.Lows = append(s.Lows, bar.Low)
		s.Closes = append(s.Closes, bar.Close)
		s.Volumes = append(s.Volumes, bar.Volume)
	}
	for _, bar := range b.closed {
		appendBar(bar)
	}
	if includeActive && b.active != nil {
		appendBar(*b.active)
	}
	return s
}

// LastPrice returns the most recent close, preferring the active bar.
func (b *Buffer) LastPrice() (float64, bool) {
	if b.active != nil {
		return b.active.Close, true
	}
	if len(b.closed) > 0 {
		return b.closed[len(b.closed)-1].Close, true
	}
	return 0, false
}

// LastClosedTime returns the open time of the newest closed bar.
func (b *Buffer) LastClosedTime() (time.Time, bool) {
	return b.lastClosed, b.hasClosed
}
