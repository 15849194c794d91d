package usecase

import (
	"context"
	"fmt"
	"time"

	"AstroChart/internal/domain/models"
	drepo "AstroChart/internal/domain/repository"
	"AstroChart/pkg/config"
)

// ChartProcessor delivers computed charts to the configured backend.
type ChartProcessor struct {
	pub     drepo.ChartPublisher
	store   drepo.ChartStore
	metrics drepo.Metrics
	backend string
	now     func() time.Time
}

func NewChartProcessor(pub drepo.ChartPublisher, store drepo.ChartStore, metrics drepo.Metrics, backend string) *ChartProcessor {
	return &ChartProcessor{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
		now:     time.Now,
	}
}

func (p *ChartProcessor) Backend() string { return p.backend }

// Process routes a single chart. The none backend accepts everything.
func (p *ChartProcessor) Process(ctx context.Context, requestID string, c *models.BirthChartData) error {
	if c == nil {
		return fmt.Errorf("chart is nil")
	}

	start := time.Now()
	var err error

	switch p.backend {
	case config.BackendKafka:
		err = p.pub.Publish(ctx, p.event(requestID, c))
	case config.BackendClickHouse:
		err = p.store.Save(ctx, c)
	case config.BackendNone:
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process chart: %w", err)
	}

	p.metrics.RecordChartDelivered(p.backend, c.HouseSystem)
	p.metrics.RecordLatency("process", time.Since(start).Seconds())
	return nil
}

// ProcessBatch routes several charts in one backend call.
func (p *ChartProcessor) ProcessBatch(ctx context.Context, requestID string, charts []*models.BirthChartData) error {
	if len(charts) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case config.BackendKafka:
		evs := make([]*models.ChartComputedEvent, 0, len(charts))
		for _, c := range charts {
			evs = append(evs, p.event(requestID, c))
		}
		err = p.pub.PublishBatch(ctx, evs)
	case config.BackendClickHouse:
		err = p.store.SaveBatch(ctx, charts)
	case config.BackendNone:
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	for _, c := range charts {
		p.metrics.RecordChartDelivered(p.backend, c.HouseSystem)
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())
	return nil
}

func (p *ChartProcessor) event(requestID string, c *models.BirthChartData) *models.ChartComputedEvent {
	return &models.ChartComputedEvent{
		RequestID:  requestID,
		ChartID:    c.ID,
		ComputedAt: p.now().UTC(),
		Chart:      *c,
	}
}

// Close closes underlying resources if available.
func (p *ChartProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
