package usecase

import (
	"context"
	"encoding/json"
	"time"

	"TrendPulse/internal/domain/models"
	domrepo "TrendPulse/internal/domain/repository"
	mid "TrendPulse/internal/middleware"
	pkgkafka "TrendPulse/pkg/kafka"
)

// KafkaBarsHandler consumes bar events from a Kafka topic, the alternative
// ingestion path when another service already talks to the exchange.
type KafkaBarsHandler struct {
	topic   string
	proc    *BarProcessor
	metrics domrepo.Metrics
}

func NewKafkaBarsHandler(topic string, proc *BarProcessor, metrics domrepo.Metrics) *KafkaBarsHandler {
	return &KafkaBarsHandler{topic: topic, proc: proc, metrics: metrics}
}

func (h *KafkaBarsHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, tf, t, o, h, l, c, v, closed}, t in ms.
func (h *KafkaBarsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol string  `json:"symbol"`
		TF     string  `json:"tf"`
		T      int64   `json:"t"`
		O      float64 `json:"o"`
		H      float64 `json:"h"`
		L      float64 `json:"l"`
		C      float64 `json:"c"`
		V      float64 `json:"v"`
		Closed bool    `json:"closed"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}

	ev := &models.BarEvent{
		Symbol:    m.Symbol,
		Timeframe: m.TF,
		Bar: models.Bar{
			OpenTime: time.UnixMilli(m.T).UTC(),
			Open:     m.O,
			High:     m.H,
			Low:      m.L,
			Close:    m.C,
			Volume:   m.V,
			Closed:   m.Closed,
		},
	}
	if err := mid.ValidateBarEvent(ev); err != nil {
		h.metrics.RecordError(models.ErrorKind(err))
		return err
	}
	h.metrics.RecordLatency("kafka_bar_e2e_seconds", time.Since(ev.Bar.OpenTime).Seconds())
	return h.proc.Process(ctx, ev)
}

var _ pkgkafka.MessageHandler = (*KafkaBarsHandler)(nil)
