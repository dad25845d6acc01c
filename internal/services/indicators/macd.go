package indicators

// MACD is an incremental MACD. The MACD line is EMA(fast) - EMA(slow) over
// closes, the signal line is EMA(signal) over the MACD line, and the
// histogram is their difference. The signal EMA only starts once the MACD
// line exists, so the first full value appears at bar slow+signal-1.
type MACD struct {
	fast   *EMA
	slow   *EMA
	signal *EMA
}

func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		fast:   NewEMA(fast),
		slow:   NewEMA(slow),
		signal: NewEMA(signal),
	}
}

func (m *MACD) Update(close float64) {
	m.fast.Update(close)
	m.slow.Update(close)
	if m.slow.Ready() {
		m.signal.Update(m.fast.Value() - m.slow.Value())
	}
}

func (m *MACD) Ready() bool { return m.signal.Ready() }

func (m *MACD) Values() (macd, signal, histogram float64) {
	macd = m.fast.Value() - m.slow.Value()
	signal = m.signal.Value()
	return macd, signal, macd - signal
}
