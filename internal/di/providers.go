package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"TrendPulse/internal/domain/repository"
	"TrendPulse/internal/domain/service"
	mid "TrendPulse/internal/middleware"
	internalrepo "TrendPulse/internal/repository"
	"TrendPulse/internal/service/binance"
	"TrendPulse/internal/service/notify"
	"TrendPulse/internal/services/confirm"
	"TrendPulse/internal/services/indicators"
	"TrendPulse/internal/services/market"
	"TrendPulse/internal/services/strategy"
	"TrendPulse/internal/usecase"
	pkgcache "TrendPulse/pkg/cache"
	pkgch "TrendPulse/pkg/clickhouse"
	"TrendPulse/pkg/config"
	pkgkafka "TrendPulse/pkg/kafka"
	"TrendPulse/pkg/logger"
	"TrendPulse/pkg/metrics"
	"TrendPulse/pkg/queue"
	"TrendPulse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return logger.New(&logger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRedisClient creates the shared Redis client used by the signal
// store and the archive queue.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideClickHouseClient creates a ClickHouse client. Table schemas are
// owned by the individual stores; only the database is ensured here.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database,
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer for the optional bars topic.
// Returns nil when no bars topic is configured; the app skips the consumer.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if cfg.Kafka.BarsTopic == "" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideSignalStore creates the Redis-backed signal store.
func ProvideSignalStore(client *redis.Client) repository.SignalStore {
	return internalrepo.NewRedisSignalStore(client)
}

// ProvideBarStore creates the ClickHouse bar archive and ensures its table.
func ProvideBarStore(chClient *pkgch.Client, cfg *config.Config) (repository.BarStore, error) {
	store := internalrepo.NewClickHouseBarStore(chClient.DB(), cfg.ClickHouse.Database+".bars")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("bar store init: %w", err)
	}
	return store, nil
}

// ProvideSignalArchive creates the ClickHouse archive for verified signals.
func ProvideSignalArchive(chClient *pkgch.Client, cfg *config.Config) (repository.SignalArchive, error) {
	archive := internalrepo.NewClickHouseSignalArchive(chClient.DB(), cfg.ClickHouse.Database+".signal_archive")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := archive.Init(ctx); err != nil {
		return nil, fmt.Errorf("signal archive init: %w", err)
	}
	return archive, nil
}

// ProvideSignalPublisher creates the Kafka publisher for emitted signals.
func ProvideSignalPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.SignalPublisher {
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.SignalTopic)
}

// ProvideNotifier creates the Telegram notifier, or a no-op when disabled.
func ProvideNotifier(cfg *config.Config, log *logger.Logger) (repository.Notifier, error) {
	if !cfg.Telegram.Enabled {
		return notify.Noop{}, nil
	}
	return notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, log)
}

// ProvideBarStream creates the Binance kline WebSocket stream over the
// primary and confirmation timeframes.
func ProvideBarStream(cfg *config.Config, log *logger.Logger) repository.BarStream {
	return binance.New(
		cfg.Binance.WebSocketURL,
		cfg.Binance.Symbols,
		engineTimeframes(cfg),
		cfg.Binance.ReconnectDelay,
		cfg.Binance.PingInterval,
		log,
	)
}

// ProvideBarFetcher creates the Binance REST fetcher used to warm buffers.
// Kline responses go through a layered cache when Redis is reachable, so
// restarts across instances share the backfill; otherwise a small in-process
// cache absorbs repeated fetches.
func ProvideBarFetcher(cfg *config.Config, log *logger.Logger) repository.BarFetcher {
	return binance.NewFetcher(cfg.Binance.RestURL, klineCache(cfg), log)
}

func klineCache(cfg *config.Config) pkgcache.Service {
	if host, portStr, err := net.SplitHostPort(cfg.Redis.Addr); err == nil {
		if port, err := strconv.Atoi(portStr); err == nil {
			rc, err := pkgcache.NewRedisCache(
				pkgcache.WithRedisHost(host),
				pkgcache.WithRedisPort(port),
				pkgcache.WithRedisPassword(cfg.Redis.Password),
				pkgcache.WithRedisDB(cfg.Redis.DB),
				pkgcache.WithRedisPrefix("trendpulse"),
			)
			if err == nil {
				return pkgcache.NewLayeredCache(rc, pkgcache.WithLayeredMemorySize(512))
			}
		}
	}
	return pkgcache.NewMemoryCache(
		pkgcache.WithMemoryMaxSize(512),
		pkgcache.WithMemoryCleanup(time.Minute),
	)
}

// ProvideSignalEngine assembles the evaluation pipeline from configuration:
// classifier thresholds, strategy mode and switches, confirmation weights
// and grading floors. Zero config values fall back to component defaults.
func ProvideSignalEngine(cfg *config.Config, log *logger.Logger) (*usecase.SignalEngine, error) {
	e := &cfg.Engine

	filters := strategy.DefaultFilters()
	if f := e.Filters; f.Trend || f.Momentum || f.Volatility {
		filters.Trend = f.Trend
		filters.Momentum = f.Momentum
		filters.Volatility = f.Volatility
		if f.VolatilityMin > 0 {
			filters.VolatilityMin = f.VolatilityMin
		}
		if f.VolatilityMax > 0 {
			filters.VolatilityMax = f.VolatilityMax
		}
	}
	if e.Filters.Scope != "" {
		filters.Scope = strategy.FilterScope(e.Filters.Scope)
	}

	switches := strategySwitches(cfg)
	resCfg := strategy.Config{
		Switches:     switches,
		MinResonance: e.MinResonance,
		MinScore:     e.MinScore,
		Filters:      filters,
	}
	if resCfg.MinScore == 0 {
		resCfg.MinScore = strategy.DefaultConfig().MinScore
	}
	resonance, err := strategy.NewResonance(resCfg)
	if err != nil {
		return nil, fmt.Errorf("resonance evaluator: %w", err)
	}

	rangingEv := wrapIfAll(strategy.NewRanging(strategy.DefaultRangingConfig()), filters)
	trendingEv := wrapIfAll(strategy.NewTrending(strategy.DefaultTrendingConfig()), filters)
	breakoutEv := wrapIfAll(strategy.NewBreakout(strategy.DefaultBreakoutConfig()), filters)

	selector := strategy.NewSelector(strategy.Mode(e.Mode), resonance, rangingEv, trendingEv, breakoutEv)

	adx := market.DefaultThresholds()
	if e.ADX.RangingBelow > 0 {
		adx.Ranging = e.ADX.RangingBelow
	}
	if e.ADX.BreakoutAbove > 0 {
		adx.Breakout = e.ADX.BreakoutAbove
	}
	if e.ADX.DirectionDeadband > 0 {
		adx.DeadBand = e.ADX.DirectionDeadband
	}
	classifier := market.NewClassifier(adx)

	confCfg := confirm.DefaultConfig()
	confCfg.PrimaryTimeframe = repository.NormalizeTimeframe(e.PrimaryTimeframe)
	if len(e.Confirmation.Timeframes) > 0 {
		confCfg.Timeframes = confCfg.Timeframes[:0]
		for _, tf := range e.Confirmation.Timeframes {
			confCfg.Timeframes = append(confCfg.Timeframes, repository.NormalizeTimeframe(tf))
		}
	}
	if len(e.Confirmation.Weights) > 0 {
		confCfg.Weights = make(map[repository.Timeframe]float64, len(e.Confirmation.Weights))
		for tf, w := range e.Confirmation.Weights {
			confCfg.Weights[repository.NormalizeTimeframe(tf)] = w
		}
	}
	if e.Confirmation.MinConfirmations > 0 {
		confCfg.MinConfirmations = e.Confirmation.MinConfirmations
	}
	if e.Confirmation.StaleAfter > 0 {
		confCfg.StaleAfter = e.Confirmation.StaleAfter
	}
	if e.Confirmation.MinBars > 0 {
		confCfg.MinBars = e.Confirmation.MinBars
	}
	confirmer := confirm.New(confCfg)

	grading := usecase.DefaultGradeThresholds()
	if e.Grading.Strong > 0 {
		grading.Strong = e.Grading.Strong
	}
	if e.Grading.Standard > 0 {
		grading.Standard = e.Grading.Standard
	}
	if e.Grading.Weak > 0 {
		grading.Weak = e.Grading.Weak
	}

	return usecase.NewSignalEngine(classifier, selector, confirmer, grading, e.Horizons, log), nil
}

// ProvideBarProcessor creates the per-symbol processing core. The verifier
// is attached afterwards in ProvideVerifier; the two reference each other.
func ProvideBarProcessor(
	cfg *config.Config,
	engine *usecase.SignalEngine,
	store repository.SignalStore,
	pub repository.SignalPublisher,
	notifier repository.Notifier,
	barStore repository.BarStore,
	fetcher repository.BarFetcher,
	metrics repository.Metrics,
	log *logger.Logger,
) (*usecase.BarProcessor, error) {
	pcfg := usecase.DefaultProcessorConfig()
	pcfg.PrimaryTimeframe = repository.NormalizeTimeframe(cfg.Engine.PrimaryTimeframe)
	pcfg.Timeframes = engineTimeframes(cfg)
	pcfg.Params = engineParams(cfg)
	if cfg.Engine.BufferSize > 0 {
		pcfg.BufferSize = cfg.Engine.BufferSize
	}
	if cfg.Binance.BackfillBars > 0 {
		pcfg.BackfillBars = cfg.Binance.BackfillBars
	}
	return usecase.NewBarProcessor(pcfg, engine, store, pub, notifier, barStore, fetcher, nil, metrics, log)
}

// ProvideArchiveQueue creates the Redis work queue that moves completed
// signals into the ClickHouse archive.
func ProvideArchiveQueue(
	log *logger.Logger,
	client *redis.Client,
	archive repository.SignalArchive,
) *queue.RedisQueue {
	q := queue.NewRedisQueue(log, &queue.QueueConfig{
		Workers:    2,
		QueueSize:  256,
		RetryLimit: 3,
		RetryDelay: 5 * time.Second,
	}, client, queue.ModeProducerConsumer, queue.WithKeyPrefix("trendpulse"))
	q.RegisterJob(usecase.NewArchiveJob(archive))
	return q
}

// ProvideVerifier creates the prediction verifier and joins it to the
// processor it reads last prices from.
func ProvideVerifier(
	cfg *config.Config,
	proc *usecase.BarProcessor,
	q *queue.RedisQueue,
	metrics repository.Metrics,
	log *logger.Logger,
) *usecase.Verifier {
	var opts []usecase.VerifierOption
	if cfg.Verification.Interval > 0 || cfg.Verification.Grace > 0 {
		interval, grace := cfg.Verification.Interval, cfg.Verification.Grace
		if interval <= 0 {
			interval = usecase.DefaultVerifyInterval
		}
		if grace <= 0 {
			grace = usecase.DefaultVerifyGrace
		}
		opts = append(opts, usecase.WithVerifyWindow(interval, grace))
	}
	v := usecase.NewVerifier(proc, q, metrics, log, opts...)
	proc.AttachVerifier(v)
	return v
}

// ProvideBarCollector creates the stream collector with the validation and
// throttling pipeline between the WebSocket and the processor.
func ProvideBarCollector(
	stream repository.BarStream,
	proc *usecase.BarProcessor,
	metrics repository.Metrics,
) *usecase.BarCollector {
	pipe := mid.NewRealtimePipeline(proc, metrics,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewBarCollector(stream, proc, metrics, pipe)
}

// ProvideKafkaBarsHandler registers the handler for the optional bars topic.
func ProvideKafkaBarsHandler(cfg *config.Config, proc *usecase.BarProcessor, metrics repository.Metrics) *usecase.KafkaBarsHandler {
	if cfg.Kafka.BarsTopic == "" {
		return nil
	}
	return usecase.NewKafkaBarsHandler(cfg.Kafka.BarsTopic, proc, metrics)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	collector *usecase.BarCollector,
	verifier *usecase.Verifier,
	archiveQueue *queue.RedisQueue,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaBarsHandler,
	store repository.SignalStore,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
	redisClient *redis.Client,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, log, collector, verifier, archiveQueue, chClient, producer, redisClient)
	if consumer != nil && kh != nil {
		app.SetConsumer(consumer, kh)
	}
	app.SetSignalStore(store)
	return app
}

// engineTimeframes returns the primary timeframe followed by the configured
// confirmation timeframes, deduplicated.
func engineTimeframes(cfg *config.Config) []repository.Timeframe {
	primary := repository.NormalizeTimeframe(cfg.Engine.PrimaryTimeframe)
	tfs := []repository.Timeframe{primary}
	seen := map[repository.Timeframe]bool{primary: true}

	confirmation := cfg.Engine.Confirmation.Timeframes
	if len(confirmation) == 0 {
		for _, tf := range confirm.DefaultConfig().Timeframes {
			confirmation = append(confirmation, string(tf))
		}
	}
	for _, s := range confirmation {
		tf := repository.NormalizeTimeframe(s)
		if !seen[tf] {
			seen[tf] = true
			tfs = append(tfs, tf)
		}
	}
	return tfs
}

// engineParams maps the configured indicator switches and periods onto the
// substrate parameter set. An empty indicators block keeps the defaults.
func engineParams(cfg *config.Config) indicators.Params {
	p := indicators.DefaultParams()
	ind := cfg.Engine.Indicators
	if ind.EMA || ind.RSI || ind.KDJ || ind.MACD || ind.Boll || ind.CCI || ind.ATR || ind.VWAP {
		p.UseEMA = ind.EMA
		p.UseRSI = ind.RSI
		p.UseKDJ = ind.KDJ
		p.UseMACD = ind.MACD
		p.UseBoll = ind.Boll
		p.UseCCI = ind.CCI
		p.UseATR = ind.ATR
		p.UseVWAP = ind.VWAP
	}

	per := cfg.Engine.Periods
	setInt := func(dst *int, v int) {
		if v > 0 {
			*dst = v
		}
	}
	setInt(&p.EMAUltraFast, per.EMAUltraFast)
	setInt(&p.EMAFast, per.EMAFast)
	setInt(&p.EMAMedium, per.EMAMedium)
	setInt(&p.EMASlow, per.EMASlow)
	setInt(&p.RSIPeriod, per.RSI)
	setInt(&p.KDJPeriod, per.KDJ)
	setInt(&p.KDJSmooth, per.KDJSmooth)
	setInt(&p.MACDFast, per.MACDFast)
	setInt(&p.MACDSlow, per.MACDSlow)
	setInt(&p.MACDSignal, per.MACDSignal)
	setInt(&p.BollPeriod, per.Boll)
	setInt(&p.CCIPeriod, per.CCI)
	setInt(&p.ATRPeriod, per.ATR)
	setInt(&p.ADXPeriod, per.ADX)
	setInt(&p.VolumeMA, per.VolumeMA)
	if per.BollStdDev > 0 {
		p.BollStdDev = per.BollStdDev
	}
	return p
}

// strategySwitches maps the configured indicator block onto the resonance
// vote switches. An empty block keeps the default voter set.
func strategySwitches(cfg *config.Config) strategy.Switches {
	ind := cfg.Engine.Indicators
	if ind.EMA || ind.RSI || ind.KDJ || ind.MACD || ind.Boll || ind.CCI || ind.ATR || ind.VWAP {
		return strategy.Switches{
			MACD: ind.MACD,
			RSI:  ind.RSI,
			KDJ:  ind.KDJ,
			Boll: ind.Boll,
			EMA:  ind.EMA,
			CCI:  ind.CCI,
			ATR:  ind.ATR,
			VWAP: ind.VWAP,
		}
	}
	return strategy.DefaultSwitches()
}

// wrapIfAll applies the post-score filters to a regime evaluator when the
// filter scope covers all strategies.
func wrapIfAll(ev service.Evaluator, filters strategy.Filters) service.Evaluator {
	if filters.Scope == strategy.ScopeAll {
		return strategy.WithFilters(ev, filters)
	}
	return ev
}
