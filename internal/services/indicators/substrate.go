package indicators

import (
	"fmt"
	"time"

	"TrendPulse/internal/domain/models"
)

// Params configures the indicator set for one symbol and timeframe. ADX and
// volume are always computed, the rest can be switched off.
type Params struct {
	EMAUltraFast int
	EMAFast      int
	EMAMedium    int
	EMASlow      int

	RSIPeriod  int
	KDJPeriod  int
	KDJSmooth  int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
	BollPeriod int
	BollStdDev float64
	CCIPeriod  int
	ATRPeriod  int
	ADXPeriod  int
	VolumeMA   int

	UseEMA  bool
	UseRSI  bool
	UseKDJ  bool
	UseMACD bool
	UseBoll bool
	UseCCI  bool
	UseATR  bool
	UseVWAP bool
}

// DefaultParams returns the standard parameter set: four EMAs at 5/10/20/60,
// RSI 14, KDJ 9/3, MACD 12/26/9, BOLL 20/2.0, CCI 20, ATR 14, ADX 14 and a
// 20 bar volume MA. CCI, BOLL and VWAP start disabled.
func DefaultParams() Params {
	return Params{
		EMAUltraFast: 5,
		EMAFast:      10,
		EMAMedium:    20,
		EMASlow:      60,
		RSIPeriod:    14,
		KDJPeriod:    9,
		KDJSmooth:    3,
		MACDFast:     12,
		MACDSlow:     26,
		MACDSignal:   9,
		BollPeriod:   20,
		BollStdDev:   2.0,
		CCIPeriod:    20,
		ATRPeriod:    14,
		ADXPeriod:    14,
		VolumeMA:     20,
		UseEMA:       true,
		UseRSI:       true,
		UseKDJ:       true,
		UseMACD:      true,
		UseATR:       true,
	}
}

// Validate rejects parameter sets the indicators cannot run on.
func (p Params) Validate() error {
	positive := map[string]int{
		"ema_ultra_fast": p.EMAUltraFast,
		"ema_fast":       p.EMAFast,
		"ema_medium":     p.EMAMedium,
		"ema_slow":       p.EMASlow,
		"rsi_period":     p.RSIPeriod,
		"kdj_period":     p.KDJPeriod,
		"kdj_smooth":     p.KDJSmooth,
		"macd_fast":      p.MACDFast,
		"macd_slow":      p.MACDSlow,
		"macd_signal":    p.MACDSignal,
		"boll_period":    p.BollPeriod,
		"cci_period":     p.CCIPeriod,
		"atr_period":     p.ATRPeriod,
		"adx_period":     p.ADXPeriod,
		"volume_ma":      p.VolumeMA,
	}
	for name, v := range positive {
		if v < 1 {
			return fmt.Errorf("%w: %s must be >= 1, got %d", models.ErrInvalidParameter, name, v)
		}
	}
	if !(p.EMAUltraFast < p.EMAFast && p.EMAFast < p.EMAMedium && p.EMAMedium < p.EMASlow) {
		return fmt.Errorf("%w: ema periods must be strictly ascending", models.ErrInvalidParameter)
	}
	if p.MACDFast >= p.MACDSlow {
		return fmt.Errorf("%w: macd fast period %d must be below slow period %d",
			models.ErrInvalidParameter, p.MACDFast, p.MACDSlow)
	}
	if p.BollStdDev <= 0 {
		return fmt.Errorf("%w: boll std_dev must be positive, got %g", models.ErrInvalidParameter, p.BollStdDev)
	}
	return nil
}

// atrRecentLen covers the current ATR plus the three previous values the
// expansion check compares against.
const atrRecentLen = 4

// Substrate advances the full indicator set bar by bar and renders immutable
// snapshots. Prev* snapshot fields hold the values as of the previous bar,
// captured before each advance. Feeding the same bars in one batch or in any
// incremental split produces identical snapshots.
type Substrate struct {
	params Params

	ema    *EMASet
	rsi    *RSI
	kdj    *KDJ
	macd   *MACD
	boll   *Boll
	cci    *CCI
	atr    *ATR
	vwap   *VWAP
	adx    *ADX
	volume *VolumeAnalyzer

	prev       prevValues
	atrRecent  []float64
	sessionDay int
	hasSession bool
}

// prevValues captures the ready indicator values as of the previous bar.
type prevValues struct {
	rsi     float64
	hasRSI  bool
	k, d, j float64
	hasKDJ  bool
	macd    float64
	signal  float64
	hist    float64
	hasMACD bool
	cci     float64
	hasCCI  bool
	atr     float64
	hasATR  bool
	vwap    float64
	hasVWAP bool
	adx     float64
	plusDI  float64
	minusDI float64
	hasADX  bool
}

func New(p Params) (*Substrate, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	s := &Substrate{
		params:    p,
		adx:       NewADX(p.ADXPeriod),
		volume:    NewVolumeAnalyzer(p.VolumeMA),
		atrRecent: make([]float64, 0, atrRecentLen),
	}
	if p.UseEMA {
		s.ema = NewEMASet(p.EMAUltraFast, p.EMAFast, p.EMAMedium, p.EMASlow)
	}
	if p.UseRSI {
		s.rsi = NewRSI(p.RSIPeriod)
	}
	if p.UseKDJ {
		s.kdj = NewKDJ(p.KDJPeriod, p.KDJSmooth)
	}
	if p.UseMACD {
		s.macd = NewMACD(p.MACDFast, p.MACDSlow, p.MACDSignal)
	}
	if p.UseBoll {
		s.boll = NewBoll(p.BollPeriod, p.BollStdDev)
	}
	if p.UseCCI {
		s.cci = NewCCI(p.CCIPeriod)
	}
	if p.UseATR {
		s.atr = NewATR(p.ATRPeriod)
	}
	if p.UseVWAP {
		s.vwap = NewVWAP()
	}
	return s, nil
}

// Advance folds one closed bar into every indicator.
func (s *Substrate) Advance(bar models.Bar) {
	s.capturePrev()

	if s.vwap != nil {
		day := bar.OpenTime.UTC().YearDay() + bar.OpenTime.UTC().Year()*1000
		if s.hasSession && day != s.sessionDay {
			s.vwap.Reset()
		}
		s.sessionDay = day
		s.hasSession = true
	}

	if s.ema != nil {
		s.ema.Update(bar.Close)
	}
	if s.rsi != nil {
		s.rsi.Update(bar.Close)
	}
	if s.kdj != nil {
		s.kdj.Update(bar.High, bar.Low, bar.Close)
	}
	if s.macd != nil {
		s.macd.Update(bar.Close)
	}
	if s.boll != nil {
		s.boll.Update(bar.Close)
	}
	if s.cci != nil {
		s.cci.Update(bar.High, bar.Low, bar.Close)
	}
	if s.atr != nil {
		s.atr.Update(bar.High, bar.Low, bar.Close)
		if s.atr.Ready() {
			push(&s.atrRecent, atrRecentLen, s.atr.Value())
		}
	}
	if s.vwap != nil {
		s.vwap.Update(bar.High, bar.Low, bar.Close, bar.Volume)
	}
	s.adx.Update(bar.High, bar.Low, bar.Close)
	s.volume.Update(bar.Close, bar.Volume)
}

func (s *Substrate) capturePrev() {
	s.prev = prevValues{}
	if s.rsi != nil && s.rsi.Ready() {
		s.prev.rsi, s.prev.hasRSI = s.rsi.Value(), true
	}
	if s.kdj != nil && s.kdj.Ready() {
		s.prev.k, s.prev.d, s.prev.j = s.kdj.Values()
		s.prev.hasKDJ = true
	}
	if s.macd != nil && s.macd.Ready() {
		s.prev.macd, s.prev.signal, s.prev.hist = s.macd.Values()
		s.prev.hasMACD = true
	}
	if s.cci != nil && s.cci.Ready() {
		s.prev.cci, s.prev.hasCCI = s.cci.Value(), true
	}
	if s.atr != nil && s.atr.Ready() {
		s.prev.atr, s.prev.hasATR = s.atr.Value(), true
	}
	if s.vwap != nil && s.vwap.Ready() {
		s.prev.vwap, s.prev.hasVWAP = s.vwap.Value(), true
	}
	if s.adx.Ready() {
		s.prev.adx, s.prev.plusDI, s.prev.minusDI = s.adx.Values()
		s.prev.hasADX = true
	}
}

// Snapshot renders the current indicator values. The series is the caller's
// view of the bars fed so far and is embedded as-is.
func (s *Substrate) Snapshot(symbol, timeframe string, ts time.Time, series models.Series) *models.Snapshot {
	snap := &models.Snapshot{
		Symbol:    symbol,
		Timeframe: timeframe,
		Timestamp: ts,
		Series:    series,
	}

	if s.ema != nil && s.ema.Ready() {
		uf, fast, medium, slow := s.ema.Values()
		snap.EMA = models.EMAValues{
			Ready:     true,
			UltraFast: uf,
			Fast:      fast,
			Medium:    medium,
			Slow:      slow,
			HasSlow:   s.ema.HasSlow(),
		}
	}
	if s.rsi != nil && s.rsi.Ready() {
		snap.RSI = models.RSIValues{
			Ready:   true,
			Cur:     s.rsi.Value(),
			Prev:    s.prev.rsi,
			HasPrev: s.prev.hasRSI,
		}
	}
	if s.kdj != nil && s.kdj.Ready() {
		k, d, j := s.kdj.Values()
		snap.KDJ = models.KDJValues{
			Ready: true,
			K:     k, D: d, J: j,
			PrevK: s.prev.k, PrevD: s.prev.d, PrevJ: s.prev.j,
			HasPrev: s.prev.hasKDJ,
		}
	}
	if s.macd != nil && s.macd.Ready() {
		macd, signal, hist := s.macd.Values()
		snap.MACD = models.MACDValues{
			Ready: true,
			MACD:  macd, Signal: signal, Hist: hist,
			PrevMACD: s.prev.macd, PrevSignal: s.prev.signal, PrevHist: s.prev.hist,
			HasPrev: s.prev.hasMACD,
		}
	}
	if s.boll != nil && s.boll.Ready() {
		upper, middle, lower, percentB := s.boll.Values()
		snap.Boll = models.BollValues{
			Ready:    true,
			Upper:    upper,
			Middle:   middle,
			Lower:    lower,
			PercentB: percentB,
		}
	}
	if s.cci != nil && s.cci.Ready() {
		snap.CCI = models.CCIValues{
			Ready:   true,
			Cur:     s.cci.Value(),
			Prev:    s.prev.cci,
			HasPrev: s.prev.hasCCI,
		}
	}
	if s.atr != nil && s.atr.Ready() {
		recent := make([]float64, len(s.atrRecent))
		copy(recent, s.atrRecent)
		snap.ATR = models.ATRValues{
			Ready:   true,
			Cur:     s.atr.Value(),
			Prev:    s.prev.atr,
			HasPrev: s.prev.hasATR,
			Recent:  recent,
		}
	}
	if s.vwap != nil && s.vwap.Ready() {
		snap.VWAP = models.VWAPValues{
			Ready:   true,
			Cur:     s.vwap.Value(),
			Prev:    s.prev.vwap,
			HasPrev: s.prev.hasVWAP,
		}
	}
	if s.adx.Ready() {
		adx, plusDI, minusDI := s.adx.Values()
		snap.ADX = models.ADXValues{
			Ready: true,
			ADX:   adx, PlusDI: plusDI, MinusDI: minusDI,
			PrevADX: s.prev.adx, PrevPlusDI: s.prev.plusDI, PrevMinusDI: s.prev.minusDI,
			HasPrev: s.prev.hasADX,
		}
	}
	snap.Volume = s.volume.Values()
	return snap
}

// Compute runs the whole series through a fresh substrate in one batch and
// returns the final snapshot. It matches the incremental path exactly at any
// split point.
func Compute(p Params, symbol, timeframe string, bars []models.Bar) (*models.Snapshot, error) {
	s, err := New(p)
	if err != nil {
		return nil, err
	}
	series := models.Series{
		Highs:   make([]float64, 0, len(bars)),
		Lows:    make([]float64, 0, len(bars)),
		Closes:  make([]float64, 0, len(bars)),
		Volumes: make([]float64, 0, len(bars)),
	}
	var ts time.Time
	for _, b := range bars {
		s.Advance(b)
		series.Highs = append(series.Highs, b.High)
		series.Lows = append(series.Lows, b.Low)
		series.Closes = append(series.Closes, b.Close)
		series.Volumes = append(series.Volumes, b.Volume)
		ts = b.OpenTime
	}
	return s.Snapshot(symbol, timeframe, ts, series), nil
}
