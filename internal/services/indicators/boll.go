package indicators

import "math"

// Boll is an incremental Bollinger band over a rolling close window. The
// middle band is the SMA, the outer bands sit stdDev population sigmas away,
// and %B locates the close inside the band (0.5 when the band is flat).
type Boll struct {
	period int
	stdDev float64
	n      int
	window []float64
}

func NewBoll(period int, stdDev float64) *Boll {
	return &Boll{period: period, stdDev: stdDev, window: make([]float64, 0, period)}
}

func (b *Boll) Update(close float64) {
	b.n++
	if len(b.window) == b.period {
		copy(b.window, b.window[1:])
		b.window[b.period-1] = close
	} else {
		b.window = append(b.window, close)
	}
}

func (b *Boll) Ready() bool { return b.n >= b.period }

func (b *Boll) Values() (upper, middle, lower, percentB float64) {
	sum := 0.0
	for _, v := range b.window {
		sum += v
	}
	middle = sum / float64(b.period)

	variance := 0.0
	for _, v := range b.window {
		d := v - middle
		variance += d * d
	}
	sigma := math.Sqrt(variance / float64(b.period))

	upper = middle + b.stdDev*sigma
	lower = middle - b.stdDev*sigma

	percentB = 0.5
	if upper != lower {
		percentB = (b.window[len(b.window)-1] - lower) / (upper - lower)
	}
	return upper, middle, lower, percentB
}
