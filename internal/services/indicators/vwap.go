package indicators

// VWAP is a cumulative volume weighted average price over typical prices,
// VWAP = sum(tp*V) / sum(V). It has no value until volume arrives. Reset
// starts a new accumulation session, typically at the day boundary.
type VWAP struct {
	pv  float64
	vol float64
}

func NewVWAP() *VWAP { return &VWAP{} }

func (v *VWAP) Update(high, low, close, volume float64) {
	tp := (high + low + close) / 3
	v.pv += tp * volume
	v.vol += volume
}

func (v *VWAP) Ready() bool { return v.vol > 0 }

func (v *VWAP) Value() float64 {
	if v.vol == 0 {
		return 0
	}
	return v.pv / v.vol
}

func (v *VWAP) Reset() {
	v.pv = 0
	v.vol = 0
}
