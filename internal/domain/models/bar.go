package models

import "time"

// Bar is a single OHLCV candle in a (symbol, timeframe) stream. Closed marks
// a finalized bar; an open bar keeps receiving updates until it closes.
type Bar struct {
	OpenTime time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
	Closed   bool
}

// Merge folds an update with the same OpenTime into the bar: high and low are
// widened, close, volume and the closed flag take the latest values. Applying
// the same update twice leaves the bar unchanged.
func (b *Bar) Merge(u Bar) {
	if u.High > b.High {
		b.High = u.High
	}
	if u.Low < b.Low {
		b.Low = u.Low
	}
	b.Close = u.Close
	b.Volume = u.Volume
	b.Closed = u.Closed
}

// BarEvent is a bar update as delivered by a transport (websocket, Kafka).
type BarEvent struct {
	Symbol    string
	Timeframe string
	Bar       Bar
}
