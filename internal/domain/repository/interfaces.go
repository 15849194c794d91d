package repository

import (
	"context"
	"errors"

	"AstroChart/internal/domain/models"
)

var ErrChartNotFound = errors.New("chart not found")

type ChartPublisher interface {
	Publish(ctx context.Context, ev *models.ChartComputedEvent) error
	PublishBatch(ctx context.Context, evs []*models.ChartComputedEvent) error
	Close() error
}

type ChartStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Save(ctx context.Context, c *models.BirthChartData) error
	SaveBatch(ctx context.Context, charts []*models.BirthChartData) error
	Get(ctx context.Context, id string) (*models.BirthChartData, error) // ErrChartNotFound when absent
	Recent(ctx context.Context, limit int) ([]models.ChartSummary, error)
	Health(ctx context.Context) error // ping
	Close() error
}

type Metrics interface {
	RecordChartDelivered(backend, houseSystem string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordCacheResult(hit bool)
}
