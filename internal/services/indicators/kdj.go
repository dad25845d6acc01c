package indicators

// KDJ is an incremental stochastic oscillator in the TradingView form.
// RSV = 100*(C - LL)/(HH - LL) over the period window (50 when the window is
// flat), then K and D are bcwsma chains seeded at 50:
// s_t = (1*x_t + (smooth-1)*s_{t-1}) / smooth, and J = 3K - 2D.
type KDJ struct {
	period int
	smooth int
	n      int
	highs  []float64
	lows   []float64
	k      float64
	d      float64
}

func NewKDJ(period, smooth int) *KDJ {
	return &KDJ{
		period: period,
		smooth: smooth,
		highs:  make([]float64, 0, period),
		lows:   make([]float64, 0, period),
		k:      50,
		d:      50,
	}
}

func (s *KDJ) Update(high, low, close float64) {
	s.n++
	if len(s.highs) == s.period {
		copy(s.highs, s.highs[1:])
		s.highs[s.period-1] = high
		copy(s.lows, s.lows[1:])
		s.lows[s.period-1] = low
	} else {
		s.highs = append(s.highs, high)
		s.lows = append(s.lows, low)
	}
	if s.n < s.period {
		return
	}

	hh, ll := s.highs[0], s.lows[0]
	for i := 1; i < s.period; i++ {
		if s.highs[i] > hh {
			hh = s.highs[i]
		}
		if s.lows[i] < ll {
			ll = s.lows[i]
		}
	}
	rsv := 50.0
	if hh != ll {
		rsv = 100 * (close - ll) / (hh - ll)
	}

	w := float64(s.smooth)
	s.k = (rsv + (w-1)*s.k) / w
	s.d = (s.k + (w-1)*s.d) / w
}

func (s *KDJ) Ready() bool { return s.n >= s.period+s.smooth }

func (s *KDJ) Values() (k, d, j float64) {
	return s.k, s.d, 3*s.k - 2*s.d
}
