package indicators

// EMA is an incremental exponential moving average. The first value is the
// SMA of the first period inputs, later values follow
// e_t = alpha*x_t + (1-alpha)*e_{t-1} with alpha = 2/(period+1).
type EMA struct {
	period  int
	alpha   float64
	n       int
	seedSum float64
	value   float64
}

func NewEMA(period int) *EMA {
	return &EMA{period: period, alpha: 2.0 / float64(period+1)}
}

func (e *EMA) Update(x float64) {
	e.n++
	if e.n < e.period {
		e.seedSum += x
		return
	}
	if e.n == e.period {
		e.seedSum += x
		e.value = e.seedSum / float64(e.period)
		return
	}
	e.value = e.alpha*x + (1-e.alpha)*e.value
}

func (e *EMA) Ready() bool { return e.n >= e.period }

func (e *EMA) Value() float64 { return e.value }

// EMASet tracks the four trend EMAs over closes. The slow line warms up last,
// so callers must check HasSlow before reading it.
type EMASet struct {
	ultraFast *EMA
	fast      *EMA
	medium    *EMA
	slow      *EMA
}

func NewEMASet(ultraFast, fast, medium, slow int) *EMASet {
	return &EMASet{
		ultraFast: NewEMA(ultraFast),
		fast:      NewEMA(fast),
		medium:    NewEMA(medium),
		slow:      NewEMA(slow),
	}
}

func (s *EMASet) Update(close float64) {
	s.ultraFast.Update(close)
	s.fast.Update(close)
	s.medium.Update(close)
	s.slow.Update(close)
}

// Ready reports whether the three faster lines are warm. The slow line is
// optional and tracked separately via HasSlow.
func (s *EMASet) Ready() bool {
	return s.ultraFast.Ready() && s.fast.Ready() && s.medium.Ready()
}

func (s *EMASet) HasSlow() bool { return s.slow.Ready() }

func (s *EMASet) Values() (ultraFast, fast, medium, slow float64) {
	return s.ultraFast.Value(), s.fast.Value(), s.medium.Value(), s.slow.Value()
}
