package strategy

import (
	"fmt"
	"math"

	"TrendPulse/internal/domain/models"
)

// Mode selects how candidates are produced: one rule evaluator per regime,
// or the regime-independent resonance scorer.
type Mode string

const (
	ModeRegime    Mode = "regime"
	ModeResonance Mode = "resonance"
)

// FilterScope controls which evaluators the trend/momentum/volatility
// filters apply to.
type FilterScope string

const (
	ScopeResonance FilterScope = "resonance" // filters inside the resonance scorer only
	ScopeAll       FilterScope = "all"       // regime evaluators filtered as well
)

// Filters configures the three post-score filters. Trend and momentum scale
// the score down, volatility is a hard veto.
type Filters struct {
	Trend         bool
	Momentum      bool
	Volatility    bool
	VolatilityMin float64
	VolatilityMax float64
	Scope         FilterScope
}

func DefaultFilters() Filters {
	return Filters{
		Trend:         true,
		Momentum:      true,
		Volatility:    true,
		VolatilityMin: 0.0005,
		VolatilityMax: 0.05,
		Scope:         ScopeResonance,
	}
}

// Switches enables or disables the individual indicator votes. EMA gates the
// trend component and counts toward the auto resonance floor even though it
// never votes a direction itself.
type Switches struct {
	MACD bool
	RSI  bool
	KDJ  bool
	Boll bool
	EMA  bool
	CCI  bool
	ATR  bool
	VWAP bool
}

func DefaultSwitches() Switches {
	return Switches{MACD: true, RSI: true, KDJ: true, CCI: true, ATR: true}
}

// EnabledCount returns how many indicator switches are on.
func (s Switches) EnabledCount() int {
	n := 0
	for _, on := range []bool{s.MACD, s.RSI, s.KDJ, s.Boll, s.EMA, s.CCI, s.ATR, s.VWAP} {
		if on {
			n++
		}
	}
	return n
}

// Config drives the resonance scorer.
type Config struct {
	Switches     Switches
	MinResonance int     // 0 resolves to AutoMinResonance over the enabled count
	MinScore     float64 // emission floor for the composite total
	Filters      Filters
}

func DefaultConfig() Config {
	return Config{
		Switches: DefaultSwitches(),
		MinScore: 70,
		Filters:  DefaultFilters(),
	}
}

func (c Config) Validate() error {
	if c.MinResonance < 0 {
		return fmt.Errorf("%w: min resonance %d must not be negative", models.ErrInvalidParameter, c.MinResonance)
	}
	if c.MinScore < 0 || c.MinScore > 100 {
		return fmt.Errorf("%w: min score %.1f outside [0,100]", models.ErrInvalidParameter, c.MinScore)
	}
	if c.Filters.Volatility && c.Filters.VolatilityMin >= c.Filters.VolatilityMax {
		return fmt.Errorf("%w: volatility band (%.4f, %.4f) is empty",
			models.ErrInvalidParameter, c.Filters.VolatilityMin, c.Filters.VolatilityMax)
	}
	return nil
}

// AutoMinResonance is the default resonance floor: seventy percent of the
// enabled indicators, rounded up, never below two.
func AutoMinResonance(enabled int) int {
	n := int(math.Ceil(0.7 * float64(enabled)))
	if n < 2 {
		return 2
	}
	return n
}
