package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"AstroChart/internal/domain/models"
)

// ErrTooManyStreams is returned when every stream slot is taken.
var ErrTooManyStreams = errors.New("too many sky streams")

// SkySource returns planet positions for an instant; ChartService implements it.
type SkySource interface {
	Sky(ctx context.Context, at time.Time, lat, lon float64) (*models.SkySnapshot, error)
}

// SkyFeed pushes periodic sky snapshots to a bounded number of subscribers.
type SkyFeed struct {
	sky         SkySource
	slots       *semaphore.Weighted
	minInterval time.Duration
	active      atomic.Int64
}

func NewSkyFeed(sky SkySource, maxStreams int, minInterval time.Duration) *SkyFeed {
	if maxStreams <= 0 {
		maxStreams = 1
	}
	return &SkyFeed{
		sky:         sky,
		slots:       semaphore.NewWeighted(int64(maxStreams)),
		minInterval: minInterval,
	}
}

// Active returns the number of running streams.
func (f *SkyFeed) Active() int { return int(f.active.Load()) }

// Stream emits a snapshot right away and then every interval until ctx is done
// or emit fails. Intervals below the configured minimum are raised to it.
func (f *SkyFeed) Stream(ctx context.Context, lat, lon float64, interval time.Duration, emit func(*models.SkySnapshot) error) error {
	if !f.slots.TryAcquire(1) {
		return ErrTooManyStreams
	}
	defer f.slots.Release(1)
	f.active.Add(1)
	defer f.active.Add(-1)

	if interval < f.minInterval {
		interval = f.minInterval
	}

	send := func() error {
		snap, err := f.sky.Sky(ctx, time.Time{}, lat, lon)
		if err != nil {
			return err
		}
		return emit(snap)
	}
	if err := send(); err != nil {
		return ignoreCancel(ctx, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := send(); err != nil {
				return ignoreCancel(ctx, err)
			}
		}
	}
}

func ignoreCancel(ctx context.Context, err error) error {
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return nil
	}
	return err
}
