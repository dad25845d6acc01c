package indicators

// CCI is an incremental commodity channel index over typical prices
// tp = (H+L+C)/3: CCI = (tp - SMA(tp)) / (0.015 * meanDeviation), or 0 when
// the window has no deviation.
type CCI struct {
	period int
	n      int
	window []float64
}

func NewCCI(period int) *CCI {
	return &CCI{period: period, window: make([]float64, 0, period)}
}

func (c *CCI) Update(high, low, close float64) {
	c.n++
	tp := (high + low + close) / 3
	if len(c.window) == c.period {
		copy(c.window, c.window[1:])
		c.window[c.period-1] = tp
	} else {
		c.window = append(c.window, tp)
	}
}

func (c *CCI) Ready() bool { return c.n >= c.period }

func (c *CCI) Value() float64 {
	sum := 0.0
	for _, v := range c.window {
		sum += v
	}
	ma := sum / float64(c.period)

	md := 0.0
	for _, v := range c.window {
		d := v - ma
		if d < 0 {
			d = -d
		}
		md += d
	}
	md /= float64(c.period)
	if md == 0 {
		return 0
	}
	return (c.window[len(c.window)-1] - ma) / (0.015 * md)
}
