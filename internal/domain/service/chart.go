package service

import (
	"context"
	"time"

	"AstroChart/internal/domain/models"
)

// ChartCalculator computes natal charts, sky snapshots and synastry.
type ChartCalculator interface {
	Calculate(ctx context.Context, in models.BirthData, opts models.ChartOptions) (models.BirthChartData, error)
	Sky(ctx context.Context, at time.Time, lat, lon float64) (models.SkySnapshot, error)
	Synastry(ctx context.Context, first, second models.BirthChartData, opts models.ChartOptions) (models.SynastryData, error)
}

// Notifier delivers a computed chart to a caller-supplied callback.
type Notifier interface {
	Notify(ctx context.Context, callbackURL string, event models.ChartComputedEvent) error
}
