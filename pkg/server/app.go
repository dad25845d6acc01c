package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"TrendPulse/internal/domain/repository"
	"TrendPulse/internal/handler/api"
	enginemetrics "TrendPulse/internal/service/metrics"
	"TrendPulse/internal/usecase"
	pkgch "TrendPulse/pkg/clickhouse"
	"TrendPulse/pkg/config"
	xhttp "TrendPulse/pkg/http"
	pkgkafka "TrendPulse/pkg/kafka"
	applogger "TrendPulse/pkg/logger"
	"TrendPulse/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg          *config.Config
	log          *applogger.Logger
	collector    *usecase.BarCollector
	verifier     *usecase.Verifier
	archiveQueue *queue.RedisQueue
	consumer     *pkgkafka.Consumer
	kh           pkgkafka.MessageHandler
	signalStore  repository.SignalStore
	chClient     *pkgch.Client
	producer     *pkgkafka.Producer
	redisClient  *redis.Client
	httpServer   *xhttp.Server
	httpHandler  xhttp.Handler
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	collector *usecase.BarCollector,
	verifier *usecase.Verifier,
	archiveQueue *queue.RedisQueue,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
	redisClient *redis.Client,
) *App {
	return &App{
		cfg:          cfg,
		log:          log,
		collector:    collector,
		verifier:     verifier,
		archiveQueue: archiveQueue,
		chClient:     chClient,
		producer:     producer,
		redisClient:  redisClient,
	}
}

// SetConsumer attaches the optional Kafka bars consumer and its handler.
func (a *App) SetConsumer(c *pkgkafka.Consumer, kh pkgkafka.MessageHandler) {
	a.consumer = c
	a.kh = kh
}

// SetSignalStore injects the store the HTTP API reads signals from.
func (a *App) SetSignalStore(s repository.SignalStore) { a.signalStore = s }

// SetHTTPHandler allows tests to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.log
	enginemetrics.Register()

	proc := a.collector.Processor()

	// Symbol workers first: warm buffers before the stream delivers.
	if err := proc.Start(ctx, a.cfg.Binance.Symbols); err != nil {
		return err
	}
	l.Info("processor started",
		applogger.Strings("symbols", a.cfg.Binance.Symbols),
		applogger.String("primary_timeframe", a.cfg.Engine.PrimaryTimeframe))

	if err := a.collector.Start(ctx); err != nil {
		l.Error("collector start error", applogger.Error(err))
		return err
	}
	l.Info("collector started")

	go a.verifier.Start(ctx)
	l.Info("verifier started",
		applogger.Duration("interval", a.cfg.Verification.Interval))

	if a.archiveQueue != nil {
		if err := a.archiveQueue.Start(); err != nil {
			l.Error("archive queue start error", applogger.Error(err))
			return err
		}
		a.archiveQueue.StartRetryProcessor()
		l.Info("archive queue started")
	}

	// Start consumer if a bars topic is configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	httpHandler := a.httpHandler
	if httpHandler == nil {
		httpHandler = api.NewSignalsEchoHandler(l, a.signalStore, proc, a.verifier)
	}
	a.httpServer = xhttp.NewServer(httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(l, 500*time.Millisecond),
	)
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	cancel()
	return a.shutdown(context.Background())
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l := a.log

	// Stop the stream first so no new events arrive, then drain workers.
	if err := a.collector.Shutdown(ctx); err != nil {
		l.Warn("collector stop error", applogger.Error(err))
	}
	a.collector.Processor().Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if a.httpServer != nil {
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			l.Error("http shutdown error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.archiveQueue != nil {
		if err := a.archiveQueue.Stop(shutdownCtx); err != nil {
			l.Warn("archive queue stop error", applogger.Error(err))
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			l.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			l.Warn("redis close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
