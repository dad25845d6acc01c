package indicators

// RSI is an incremental Wilder RSI. Average gain and loss are seeded with the
// SMA of the first period deltas, then smoothed as
// avg_t = (avg_{t-1}*(period-1) + x_t) / period. When the average loss is
// zero the RSI saturates at 100.
type RSI struct {
	period    int
	n         int
	prevClose float64
	gainSum   float64
	lossSum   float64
	avgGain   float64
	avgLoss   float64
}

func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

func (r *RSI) Update(close float64) {
	r.n++
	if r.n == 1 {
		r.prevClose = close
		return
	}
	diff := close - r.prevClose
	r.prevClose = close

	gain, loss := 0.0, 0.0
	if diff > 0 {
		gain = diff
	} else {
		loss = -diff
	}

	// deltas seen so far
	deltas := r.n - 1
	switch {
	case deltas < r.period:
		r.gainSum += gain
		r.lossSum += loss
	case deltas == r.period:
		r.gainSum += gain
		r.lossSum += loss
		r.avgGain = r.gainSum / float64(r.period)
		r.avgLoss = r.lossSum / float64(r.period)
	default:
		p := float64(r.period)
		r.avgGain = (r.avgGain*(p-1) + gain) / p
		r.avgLoss = (r.avgLoss*(p-1) + loss) / p
	}
}

func (r *RSI) Ready() bool { return r.n >= r.period+1 }

func (r *RSI) Value() float64 {
	if r.avgLoss == 0 {
		return 100
	}
	rs := r.avgGain / r.avgLoss
	return 100 - 100/(1+rs)
}
