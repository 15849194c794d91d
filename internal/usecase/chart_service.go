package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"AstroChart/internal/domain/models"
	drepo "AstroChart/internal/domain/repository"
	dsvc "AstroChart/internal/domain/service"
	"AstroChart/internal/services/astro"
	"AstroChart/pkg/cache"
	"AstroChart/pkg/logger"
)

var (
	// ErrDelivery wraps backend failures for charts that were computed.
	ErrDelivery = errors.New("chart delivery failed")
	// ErrStoreDisabled is returned by listing operations when no chart store is configured.
	ErrStoreDisabled = errors.New("chart store disabled")
)

// ChartService computes, caches and delivers charts. Identical inputs share one
// calculation and one delivery.
type ChartService struct {
	calc      dsvc.ChartCalculator
	cache     cache.Service
	store     drepo.ChartStore
	processor *ChartProcessor
	metrics   drepo.Metrics
	log       *logger.Logger
	ttl       time.Duration
	group     singleflight.Group
}

// NewChartService wires the service. cache and store may be nil.
func NewChartService(
	calc dsvc.ChartCalculator,
	c cache.Service,
	store drepo.ChartStore,
	processor *ChartProcessor,
	metrics drepo.Metrics,
	log *logger.Logger,
	ttl time.Duration,
) *ChartService {
	if log == nil {
		log = logger.Nop()
	}
	return &ChartService{
		calc:      calc,
		cache:     c,
		store:     store,
		processor: processor,
		metrics:   metrics,
		log:       log.With(logger.String("component", "chart_service")),
		ttl:       ttl,
	}
}

// ChartID derives the stable identifier of a chart from its normalized input.
func ChartID(in models.BirthData, opts models.ChartOptions) (string, error) {
	hs, err := astro.ParseHouseSystem(opts.HouseSystem)
	if err != nil {
		return "", err
	}
	opts.HouseSystem = string(hs)
	if opts.Orbs, err = astro.NormalizeOrbs(opts.Orbs); err != nil {
		return "", err
	}
	b, err := json.Marshal(struct {
		Birth   models.BirthData    `json:"birth"`
		Options models.ChartOptions `json:"options"`
	}{in, opts})
	if err != nil {
		return "", fmt.Errorf("encode chart key: %w", err)
	}
	return cache.HashKey(string(b)), nil
}

// flightTimeout bounds a shared calculation and delivery.
const flightTimeout = 30 * time.Second

type delivered struct {
	chart models.BirthChartData
	err   error
}

// Create returns the chart for the input, computing and delivering it on a cache miss.
// When delivery fails the chart is still returned together with an ErrDelivery error.
func (s *ChartService) Create(ctx context.Context, in models.BirthData, opts models.ChartOptions, requestID string) (*models.BirthChartData, error) {
	start := time.Now()
	defer func() { s.metrics.RecordLatency("create_chart", time.Since(start).Seconds()) }()

	id, err := ChartID(in, opts)
	if err != nil {
		s.metrics.RecordError("validation")
		return nil, err
	}

	var cached models.BirthChartData
	if s.lookup(ctx, chartKey(id), &cached) {
		return &cached, nil
	}

	// the shared work outlives any single caller; each caller still honours its own ctx
	ch := s.group.DoChan(id, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flightTimeout)
		defer cancel()

		chart, err := s.calc.Calculate(fctx, in, opts)
		if err != nil {
			return nil, err
		}
		chart.ID = id

		if err := s.processor.Process(fctx, requestID, &chart); err != nil {
			s.log.Error("chart delivery failed",
				logger.String("chart_id", id),
				logger.String("request_id", requestID),
				logger.String("backend", s.processor.Backend()),
				logger.Error(err))
			return delivered{chart: chart, err: fmt.Errorf("%w: %v", ErrDelivery, err)}, nil
		}
		s.remember(fctx, chartKey(id), chart)
		return delivered{chart: chart}, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		if errors.Is(res.Err, astro.ErrInvalidInput) {
			s.metrics.RecordError("validation")
		} else {
			s.metrics.RecordError("calculate")
		}
		return nil, res.Err
	}

	d := res.Val.(delivered)
	chart := d.chart
	return &chart, d.err
}

// ChartInput is one entry of a batch.
type ChartInput struct {
	Birth   models.BirthData
	Options models.ChartOptions
}

// CreateBatch computes every uncached chart and delivers them in one backend call.
// Results keep the input order; repeated inputs are computed once. On a delivery
// failure the charts are returned with an ErrDelivery error and nothing is cached.
func (s *ChartService) CreateBatch(ctx context.Context, inputs []ChartInput, requestID string) ([]*models.BirthChartData, error) {
	start := time.Now()
	defer func() { s.metrics.RecordLatency("create_batch", time.Since(start).Seconds()) }()

	out := make([]*models.BirthChartData, len(inputs))
	fresh := make(map[string]*models.BirthChartData)
	var pending []*models.BirthChartData

	for i, in := range inputs {
		id, err := ChartID(in.Birth, in.Options)
		if err != nil {
			s.metrics.RecordError("validation")
			return nil, fmt.Errorf("charts[%d]: %w", i, err)
		}
		if c, ok := fresh[id]; ok {
			out[i] = c
			continue
		}

		var cached models.BirthChartData
		if s.lookup(ctx, chartKey(id), &cached) {
			out[i] = &cached
			fresh[id] = &cached
			continue
		}

		chart, err := s.calc.Calculate(ctx, in.Birth, in.Options)
		if err != nil {
			if errors.Is(err, astro.ErrInvalidInput) {
				s.metrics.RecordError("validation")
			} else {
				s.metrics.RecordError("calculate")
			}
			return nil, fmt.Errorf("charts[%d]: %w", i, err)
		}
		chart.ID = id
		out[i] = &chart
		fresh[id] = &chart
		pending = append(pending, &chart)
	}

	if err := s.processor.ProcessBatch(ctx, requestID, pending); err != nil {
		s.log.Error("chart batch delivery failed",
			logger.Int("charts", len(pending)),
			logger.String("request_id", requestID),
			logger.String("backend", s.processor.Backend()),
			logger.Error(err))
		return out, fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	for _, c := range pending {
		s.remember(ctx, chartKey(c.ID), *c)
	}
	return out, nil
}

// Get returns a previously computed chart from the cache or the store.
func (s *ChartService) Get(ctx context.Context, id string) (*models.BirthChartData, error) {
	var chart models.BirthChartData
	if s.lookup(ctx, chartKey(id), &chart) {
		return &chart, nil
	}
	if s.store == nil {
		return nil, drepo.ErrChartNotFound
	}

	found, err := s.store.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, drepo.ErrChartNotFound) {
			s.metrics.RecordError("store_get")
		}
		return nil, err
	}
	s.remember(ctx, chartKey(id), *found)
	return found, nil
}

// Recent lists the newest stored charts.
func (s *ChartService) Recent(ctx context.Context, limit int) ([]models.ChartSummary, error) {
	if s.store == nil {
		return nil, ErrStoreDisabled
	}
	out, err := s.store.Recent(ctx, limit)
	if err != nil {
		s.metrics.RecordError("store_recent")
		return nil, err
	}
	return out, nil
}

// Synastry computes (or reuses) both charts and the aspects between them.
func (s *ChartService) Synastry(ctx context.Context, first, second models.BirthData, firstOpts, secondOpts, opts models.ChartOptions, requestID string) (*models.SynastryData, error) {
	start := time.Now()
	defer func() { s.metrics.RecordLatency("synastry", time.Since(start).Seconds()) }()

	a, err := s.Create(ctx, first, firstOpts, requestID)
	if err != nil {
		return nil, fmt.Errorf("first chart: %w", err)
	}
	b, err := s.Create(ctx, second, secondOpts, requestID)
	if err != nil {
		return nil, fmt.Errorf("second chart: %w", err)
	}

	syn, err := s.calc.Synastry(ctx, *a, *b, opts)
	if err != nil {
		return nil, err
	}
	return &syn, nil
}

// Sky returns planet positions at the instant; a zero instant means now. Snapshots of a
// fixed instant never change and are cached.
func (s *ChartService) Sky(ctx context.Context, at time.Time, lat, lon float64) (*models.SkySnapshot, error) {
	start := time.Now()

	var key string
	if !at.IsZero() {
		key = cache.GenerateKeyWithParams("sky", at.UTC().UnixMilli(), lat, lon)
		var cached models.SkySnapshot
		if s.lookup(ctx, key, &cached) {
			return &cached, nil
		}
	}

	snap, err := s.calc.Sky(ctx, at, lat, lon)
	if err != nil {
		s.metrics.RecordError("sky")
		return nil, err
	}
	if key != "" {
		s.remember(ctx, key, snap)
	}
	s.metrics.RecordLatency("sky", time.Since(start).Seconds())
	return &snap, nil
}

func chartKey(id string) string { return cache.GenerateKey("chart", id) }

func (s *ChartService) lookup(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	err := s.cache.Get(ctx, key, dest)
	switch {
	case err == nil:
		s.metrics.RecordCacheResult(true)
		return true
	case errors.Is(err, cache.ErrCacheMiss):
	default:
		s.log.Warn("cache read failed", logger.String("key", key), logger.Error(err))
		s.metrics.RecordError("cache_get")
	}
	s.metrics.RecordCacheResult(false)
	return false
}

func (s *ChartService) remember(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.log.Warn("cache write failed", logger.String("key", key), logger.Error(err))
		s.metrics.RecordError("cache_set")
	}
}
