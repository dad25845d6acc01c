package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"TrendPulse/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Binance struct {
		WebSocketURL   string        `yaml:"websocket_url"`
		RestURL        string        `yaml:"rest_url"`
		Symbols        []string      `yaml:"symbols"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
		BackfillBars   int           `yaml:"backfill_bars"`
	} `yaml:"binance"`
	Engine struct {
		PrimaryTimeframe string `yaml:"primary_timeframe"`
		Mode             string `yaml:"mode"` // regime or resonance
		BufferSize       int    `yaml:"buffer_size"`
		Indicators       struct {
			EMA  bool `yaml:"ema"`
			RSI  bool `yaml:"rsi"`
			KDJ  bool `yaml:"kdj"`
			MACD bool `yaml:"macd"`
			Boll bool `yaml:"boll"`
			CCI  bool `yaml:"cci"`
			ATR  bool `yaml:"atr"`
			VWAP bool `yaml:"vwap"`
		} `yaml:"indicators"`
		Periods struct {
			EMAUltraFast int     `yaml:"ema_ultra_fast"`
			EMAFast      int     `yaml:"ema_fast"`
			EMAMedium    int     `yaml:"ema_medium"`
			EMASlow      int     `yaml:"ema_slow"`
			RSI          int     `yaml:"rsi"`
			KDJ          int     `yaml:"kdj"`
			KDJSmooth    int     `yaml:"kdj_smooth"`
			MACDFast     int     `yaml:"macd_fast"`
			MACDSlow     int     `yaml:"macd_slow"`
			MACDSignal   int     `yaml:"macd_signal"`
			Boll         int     `yaml:"boll"`
			BollStdDev   float64 `yaml:"boll_std_dev"`
			CCI          int     `yaml:"cci"`
			ATR          int     `yaml:"atr"`
			ADX          int     `yaml:"adx"`
			VolumeMA     int     `yaml:"volume_ma"`
		} `yaml:"periods"`
		MinResonance int     `yaml:"min_resonance"` // 0 = auto
		MinScore     float64 `yaml:"min_score"`
		Filters      struct {
			Trend         bool    `yaml:"trend"`
			Momentum      bool    `yaml:"momentum"`
			Volatility    bool    `yaml:"volatility"`
			VolatilityMin float64 `yaml:"volatility_min"`
			VolatilityMax float64 `yaml:"volatility_max"`
			Scope         string  `yaml:"scope"` // resonance or all
		} `yaml:"filters"`
		ADX struct {
			RangingBelow      float64 `yaml:"ranging_below"`
			BreakoutAbove     float64 `yaml:"breakout_above"`
			DirectionDeadband float64 `yaml:"direction_deadband"`
		} `yaml:"adx"`
		Confirmation struct {
			Timeframes       []string           `yaml:"timeframes"`
			Weights          map[string]float64 `yaml:"weights"`
			MinConfirmations int                `yaml:"min_confirmations"`
			StaleAfter       int                `yaml:"stale_after"`
			MinBars          int                `yaml:"min_bars"`
		} `yaml:"confirmation"`
		Grading struct {
			Strong   float64 `yaml:"strong"`   // grade A floor
			Standard float64 `yaml:"standard"` // grade B floor
			Weak     float64 `yaml:"weak"`     // grade C floor
		} `yaml:"grading"`
		Horizons []int `yaml:"horizons"` // prediction horizons, minutes
	} `yaml:"engine"`
	Verification struct {
		Interval time.Duration `yaml:"interval"`
		Grace    time.Duration `yaml:"grace"`
	} `yaml:"verification"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		SignalTopic  string   `yaml:"signal_topic"`
		BarsTopic    string   `yaml:"bars_topic"` // optional second ingestion path
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Telegram struct {
		Enabled bool   `yaml:"enabled"`
		Token   string `yaml:"token"`
		ChatID  int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Binance.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_SIGNAL_TOPIC"); v != "" {
		c.Kafka.SignalTopic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = int64(util.ParseIntDefault(v, int(c.Telegram.ChatID)))
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}

	return c, nil
}

// Validate rejects configurations the engine could not run on. Zero values
// mean "use the component default", so checks only fire on explicit settings.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Binance.Symbols) == 0 {
		return fmt.Errorf("binance.symbols cannot be empty")
	}

	e := &c.Engine
	if e.Mode != "" && e.Mode != "regime" && e.Mode != "resonance" {
		return fmt.Errorf("engine.mode must be 'regime' or 'resonance', got '%s'", e.Mode)
	}
	if e.Filters.Scope != "" && e.Filters.Scope != "resonance" && e.Filters.Scope != "all" {
		return fmt.Errorf("engine.filters.scope must be 'resonance' or 'all', got '%s'", e.Filters.Scope)
	}

	periods := map[string]int{
		"ema_ultra_fast": e.Periods.EMAUltraFast,
		"ema_fast":       e.Periods.EMAFast,
		"ema_medium":     e.Periods.EMAMedium,
		"ema_slow":       e.Periods.EMASlow,
		"rsi":            e.Periods.RSI,
		"kdj":            e.Periods.KDJ,
		"kdj_smooth":     e.Periods.KDJSmooth,
		"macd_fast":      e.Periods.MACDFast,
		"macd_slow":      e.Periods.MACDSlow,
		"macd_signal":    e.Periods.MACDSignal,
		"boll":           e.Periods.Boll,
		"cci":            e.Periods.CCI,
		"atr":            e.Periods.ATR,
		"adx":            e.Periods.ADX,
		"volume_ma":      e.Periods.VolumeMA,
	}
	for name, v := range periods {
		if v < 0 {
			return fmt.Errorf("engine.periods.%s must be positive, got %d", name, v)
		}
	}
	if e.Periods.BollStdDev < 0 {
		return fmt.Errorf("engine.periods.boll_std_dev must be positive, got %g", e.Periods.BollStdDev)
	}
	if e.MinResonance < 0 {
		return fmt.Errorf("engine.min_resonance must not be negative, got %d", e.MinResonance)
	}
	if e.MinScore < 0 || e.MinScore > 100 {
		return fmt.Errorf("engine.min_score must be within [0,100], got %g", e.MinScore)
	}
	if e.Filters.Volatility && e.Filters.VolatilityMin >= e.Filters.VolatilityMax {
		return fmt.Errorf("engine.filters volatility band (%g, %g) is empty",
			e.Filters.VolatilityMin, e.Filters.VolatilityMax)
	}
	if e.ADX.RangingBelow != 0 || e.ADX.BreakoutAbove != 0 {
		if e.ADX.RangingBelow <= 0 || e.ADX.BreakoutAbove <= e.ADX.RangingBelow {
			return fmt.Errorf("engine.adx thresholds must satisfy 0 < ranging_below < breakout_above, got %g and %g",
				e.ADX.RangingBelow, e.ADX.BreakoutAbove)
		}
	}
	if len(e.Confirmation.Weights) > 0 {
		sum := 0.0
		for _, w := range e.Confirmation.Weights {
			if w < 0 {
				return fmt.Errorf("engine.confirmation weights must not be negative")
			}
			sum += w
		}
		if math.Abs(sum-1) > 0.01 {
			return fmt.Errorf("engine.confirmation weights must sum to 1, got %g", sum)
		}
	}
	for _, h := range e.Horizons {
		if h <= 0 {
			return fmt.Errorf("engine.horizons must be positive minutes, got %d", h)
		}
	}
	if g := e.Grading; g.Strong != 0 || g.Standard != 0 || g.Weak != 0 {
		if !(g.Weak > 0 && g.Weak < g.Standard && g.Standard < g.Strong && g.Strong <= 1) {
			return fmt.Errorf("engine.grading thresholds must satisfy 0 < weak < standard < strong <= 1")
		}
	}

	if c.Telegram.Enabled && c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required when telegram is enabled")
	}
	return nil
}
