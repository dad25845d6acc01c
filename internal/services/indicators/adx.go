package indicators

import "math"

// wilder is a Wilder smoother: SMA over the first period inputs, then
// s_t = (s_{t-1}*(period-1) + x_t) / period.
type wilder struct {
	period int
	n      int
	sum    float64
	value  float64
}

func (w *wilder) update(x float64) {
	w.n++
	switch {
	case w.n < w.period:
		w.sum += x
	case w.n == w.period:
		w.sum += x
		w.value = w.sum / float64(w.period)
	default:
		p := float64(w.period)
		w.value = (w.value*(p-1) + x) / p
	}
}

func (w *wilder) ready() bool { return w.n >= w.period }

// ADX is an incremental average directional index. True range and the
// directional movements are Wilder-smoothed to form +DI and -DI, then
// DX = 100*|+DI - -DI|/(+DI + -DI) is Wilder-smoothed again into ADX.
// The full value therefore needs 2*period bars.
type ADX struct {
	period    int
	n         int
	prevHigh  float64
	prevLow   float64
	prevClose float64

	str  wilder
	spdm wilder
	smdm wilder
	adx  wilder

	plusDI  float64
	minusDI float64
}

func NewADX(period int) *ADX {
	return &ADX{
		period: period,
		str:    wilder{period: period},
		spdm:   wilder{period: period},
		smdm:   wilder{period: period},
		adx:    wilder{period: period},
	}
}

func (a *ADX) Update(high, low, close float64) {
	a.n++
	if a.n == 1 {
		a.prevHigh, a.prevLow, a.prevClose = high, low, close
		return
	}

	tr := trueRange(high, low, a.prevClose)
	up := high - a.prevHigh
	down := a.prevLow - low
	plusDM, minusDM := 0.0, 0.0
	if up > down && up > 0 {
		plusDM = up
	}
	if down > up && down > 0 {
		minusDM = down
	}
	a.prevHigh, a.prevLow, a.prevClose = high, low, close

	a.str.update(tr)
	a.spdm.update(plusDM)
	a.smdm.update(minusDM)

	if !a.str.ready() || a.str.value <= 0 {
		return
	}
	a.plusDI = 100 * a.spdm.value / a.str.value
	a.minusDI = 100 * a.smdm.value / a.str.value

	dx := 0.0
	if sum := a.plusDI + a.minusDI; sum > 0 {
		dx = 100 * math.Abs(a.plusDI-a.minusDI) / sum
	}
	a.adx.update(dx)
}

func (a *ADX) Ready() bool { return a.adx.ready() }

func (a *ADX) Values() (adx, plusDI, minusDI float64) {
	return a.adx.value, a.plusDI, a.minusDI
}
