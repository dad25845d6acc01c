package indicators

import "math"

// ATR is an incremental average true range with Wilder smoothing. True
// ranges start at the second bar, the first ATR is the SMA of the first
// period true ranges, and later values follow
// atr_t = (atr_{t-1}*(period-1) + tr_t) / period.
type ATR struct {
	period    int
	n         int
	prevClose float64
	trSum     float64
	value     float64
}

func NewATR(period int) *ATR {
	return &ATR{period: period}
}

func (a *ATR) Update(high, low, close float64) {
	a.n++
	if a.n == 1 {
		a.prevClose = close
		return
	}
	tr := trueRange(high, low, a.prevClose)
	a.prevClose = close

	trs := a.n - 1
	switch {
	case trs < a.period:
		a.trSum += tr
	case trs == a.period:
		a.trSum += tr
		a.value = a.trSum / float64(a.period)
	default:
		p := float64(a.period)
		a.value = (a.value*(p-1) + tr) / p
	}
}

func (a *ATR) Ready() bool { return a.n >= a.period+1 }

func (a *ATR) Value() float64 { return a.value }

func trueRange(high, low, prevClose float64) float64 {
	tr := high - low
	if v := math.Abs(high - prevClose); v > tr {
		tr = v
	}
	if v := math.Abs(low - prevClose); v > tr {
		tr = v
	}
	return tr
}
