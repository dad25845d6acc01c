package indicators

import "TrendPulse/internal/domain/models"

// Volume condition thresholds as multiples of the volume MA.
const (
	volumeSpikeRatio   = 2.0
	volumeHighRatio    = 1.5
	volumeLowRatio     = 0.7
	volumeVeryLowRatio = 0.5

	volumeTrendLookback = 3
	divergenceWindow    = 5
)

// VolumeAnalyzer tracks volume against its moving average and classifies the
// current bar's participation. Trend looks for strictly monotonic ratios over
// the last volumeTrendLookback bars. Divergence compares the price move over
// the divergence window with the shift between its first and last volume
// pairs.
type VolumeAnalyzer struct {
	maPeriod int
	n        int
	window   []float64
	ratios   []float64
	closes   []float64
	volumes  []float64

	last   float64
	prev   float64
	hasTwo bool
}

func NewVolumeAnalyzer(maPeriod int) *VolumeAnalyzer {
	return &VolumeAnalyzer{
		maPeriod: maPeriod,
		window:   make([]float64, 0, maPeriod),
		ratios:   make([]float64, 0, volumeTrendLookback),
		closes:   make([]float64, 0, divergenceWindow),
		volumes:  make([]float64, 0, divergenceWindow),
	}
}

func (v *VolumeAnalyzer) Update(close, volume float64) {
	v.n++
	v.prev, v.last = v.last, volume
	v.hasTwo = v.n >= 2

	push(&v.window, v.maPeriod, volume)
	push(&v.closes, divergenceWindow, close)
	push(&v.volumes, divergenceWindow, volume)

	if v.n >= v.maPeriod {
		push(&v.ratios, volumeTrendLookback, v.ratio())
	}
}

func (v *VolumeAnalyzer) Ready() bool { return v.n >= v.maPeriod }

func (v *VolumeAnalyzer) Values() models.VolumeValues {
	out := models.VolumeValues{
		Ready:      v.Ready(),
		Last:       v.last,
		Condition:  models.VolumeNormal,
		Trend:      models.VolumeStable,
		Divergence: models.DivergenceNone,
	}
	if !out.Ready {
		return out
	}

	sum := 0.0
	for _, x := range v.window {
		sum += x
	}
	out.MA = sum / float64(v.maPeriod)
	out.Ratio = v.ratio()
	if v.hasTwo && v.prev > 0 {
		out.Change = (v.last - v.prev) / v.prev
	}
	out.Condition = condition(out.Ratio)
	out.Trend = v.trend()
	out.Divergence = v.divergence()
	return out
}

func (v *VolumeAnalyzer) ratio() float64 {
	sum := 0.0
	for _, x := range v.window {
		sum += x
	}
	ma := sum / float64(v.maPeriod)
	if ma <= 0 {
		return 0
	}
	return v.last / ma
}

func condition(ratio float64) models.VolumeCondition {
	switch {
	case ratio >= volumeSpikeRatio:
		return models.VolumeSpike
	case ratio >= volumeHighRatio:
		return models.VolumeHigh
	case ratio <= volumeVeryLowRatio:
		return models.VolumeVeryLow
	case ratio <= volumeLowRatio:
		return models.VolumeLow
	default:
		return models.VolumeNormal
	}
}

func (v *VolumeAnalyzer) trend() models.VolumeTrend {
	if len(v.ratios) < 2 {
		return models.VolumeStable
	}
	increasing, decreasing := true, true
	for i := 0; i < len(v.ratios)-1; i++ {
		if v.ratios[i] >= v.ratios[i+1] {
			increasing = false
		}
		if v.ratios[i] <= v.ratios[i+1] {
			decreasing = false
		}
	}
	switch {
	case increasing:
		return models.VolumeIncreasing
	case decreasing:
		return models.VolumeDecreasing
	default:
		return models.VolumeStable
	}
}

func (v *VolumeAnalyzer) divergence() models.VolumeDivergence {
	if len(v.closes) < divergenceWindow || v.closes[0] == 0 {
		return models.DivergenceNone
	}
	priceChange := (v.closes[divergenceWindow-1] - v.closes[0]) / v.closes[0]

	early := (v.volumes[0] + v.volumes[1]) / 2
	late := (v.volumes[divergenceWindow-2] + v.volumes[divergenceWindow-1]) / 2
	if early <= 0 {
		return models.DivergenceNone
	}
	volumeChange := late/early - 1

	switch {
	case priceChange > 0.01 && volumeChange < -0.2:
		return models.DivergenceBearish
	case priceChange < -0.01 && volumeChange < -0.2:
		return models.DivergenceBullish
	default:
		return models.DivergenceNone
	}
}

// push appends x to a bounded slice, dropping the oldest value at capacity.
func push(buf *[]float64, limit int, x float64) {
	s := *buf
	if len(s) == limit {
		copy(s, s[1:])
		s[limit-1] = x
	} else {
		s = append(s, x)
	}
	*buf = s
}
