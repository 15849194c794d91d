package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"AstroChart/internal/domain/models"
	domrepo "AstroChart/internal/domain/repository"
	"AstroChart/internal/services/astro"
	"AstroChart/pkg/cache"
	pkgkafka "AstroChart/pkg/kafka"
	"AstroChart/pkg/logger"
	"AstroChart/pkg/queue"
)

// ChartCreator is the part of ChartService the consumer needs.
type ChartCreator interface {
	Create(ctx context.Context, in models.BirthData, opts models.ChartOptions, requestID string) (*models.BirthChartData, error)
}

// Locker marks request ids as taken. cache.Service implements it.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// KafkaChartRequestsHandler computes charts requested over Kafka and queues
// their webhooks.
type KafkaChartRequestsHandler struct {
	topic    string
	charts   ChartCreator
	locks    Locker
	webhooks queue.Publisher
	metrics  domrepo.Metrics
	log      *logger.Logger
	dedupTTL time.Duration
}

// NewKafkaChartRequestsHandler wires the handler. locks and webhooks may be nil.
func NewKafkaChartRequestsHandler(
	topic string,
	charts ChartCreator,
	locks Locker,
	webhooks queue.Publisher,
	metrics domrepo.Metrics,
	log *logger.Logger,
	dedupTTL time.Duration,
) *KafkaChartRequestsHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &KafkaChartRequestsHandler{
		topic:    topic,
		charts:   charts,
		locks:    locks,
		webhooks: webhooks,
		metrics:  metrics,
		log:      log.With(logger.String("component", "chart_requests")),
		dedupTTL: dedupTTL,
	}
}

func (h *KafkaChartRequestsHandler) Topic() string { return h.topic }

// Handle processes one chart request. Malformed and invalid requests are permanent failures.
func (h *KafkaChartRequestsHandler) Handle(ctx context.Context, b []byte) error {
	var m models.ChartRequestMessage
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return pkgkafka.Permanent("ERR_DECODE",
			fmt.Errorf("decode request %q: %w", gjson.GetBytes(b, "request_id").String(), err))
	}
	if m.RequestID == "" {
		m.RequestID = pkgkafka.RequestIDFromContext(ctx)
	}

	lockKey := cache.GenerateKey("request", m.RequestID)
	if m.RequestID != "" && h.locks != nil {
		ok, err := h.locks.TryLock(ctx, lockKey, h.dedupTTL)
		if err != nil {
			h.metrics.RecordError("consumer_dedupe")
			return fmt.Errorf("dedupe %s: %w", m.RequestID, err)
		}
		if !ok {
			h.log.Debug("duplicate chart request", logger.String("request_id", m.RequestID))
			return nil
		}
	}

	err := h.handle(ctx, m)
	if err != nil && m.RequestID != "" && h.locks != nil {
		if uerr := h.locks.Unlock(ctx, lockKey); uerr != nil && !errors.Is(uerr, cache.ErrCacheMiss) {
			h.log.Warn("release request lock", logger.String("request_id", m.RequestID), logger.Error(uerr))
		}
	}
	return err
}

func (h *KafkaChartRequestsHandler) handle(ctx context.Context, m models.ChartRequestMessage) error {
	start := time.Now()
	chart, err := h.charts.Create(ctx, m.Birth, m.Options, m.RequestID)
	h.metrics.RecordLatency("consumer_chart", time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, astro.ErrInvalidInput) {
			return pkgkafka.Permanent("ERR_VALIDATION", err)
		}
		return err
	}

	if m.CallbackURL == "" || h.webhooks == nil {
		return nil
	}
	payload := WebhookPayload{
		CallbackURL: m.CallbackURL,
		Event: models.ChartComputedEvent{
			RequestID:  m.RequestID,
			ChartID:    chart.ID,
			ComputedAt: time.Now().UTC(),
			Chart:      *chart,
		},
	}
	if err := h.webhooks.Enqueue(ctx, WebhookJobType, payload); err != nil {
		h.metrics.RecordError("webhook_enqueue")
		return fmt.Errorf("enqueue webhook: %w", err)
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaChartRequestsHandler)(nil)
