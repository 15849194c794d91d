package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"AstroChart/internal/domain/models"
	domrepo "AstroChart/internal/domain/repository"
	applogger "AstroChart/pkg/logger"
)

const chartColumns = "id, created_at, julian_day, latitude, longitude, house_system, sun_sign, moon_sign, ascendant_sign"

// ClickHouseChartStore keeps charts in one ReplacingMergeTree table: indexed summary
// columns plus the full chart as JSON.
type ClickHouseChartStore struct {
	db    *sql.DB
	table string
	log   *applogger.Logger
	now   func() time.Time
}

// NewClickHouseChartStore creates the store. table may be qualified, e.g. "astrochart.charts".
func NewClickHouseChartStore(db *sql.DB, table string, log *applogger.Logger) *ClickHouseChartStore {
	if log == nil {
		log = applogger.Nop()
	}
	return &ClickHouseChartStore{db: db, table: table, log: log, now: time.Now}
}

// Schema returns the DDL for the charts table.
func (s *ClickHouseChartStore) Schema() []string {
	return []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id String,
    created_at DateTime64(3, 'UTC'),
    julian_day Float64,
    latitude Float64,
    longitude Float64,
    house_system LowCardinality(String),
    sun_sign LowCardinality(String),
    moon_sign LowCardinality(String),
    ascendant_sign LowCardinality(String),
    payload String CODEC(ZSTD(3))
) ENGINE = ReplacingMergeTree(created_at)
ORDER BY id`, s.table)}
}

func (s *ClickHouseChartStore) Init(ctx context.Context) error {
	for _, stmt := range s.Schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create %s: %w", s.table, err)
		}
	}
	return nil
}

func (s *ClickHouseChartStore) Save(ctx context.Context, c *models.BirthChartData) error {
	return s.SaveBatch(ctx, []*models.BirthChartData{c})
}

// SaveBatch inserts charts with multi-row VALUES, chunked to bound statement size.
func (s *ClickHouseChartStore) SaveBatch(ctx context.Context, charts []*models.BirthChartData) error {
	const chunkSize = 500
	createdAt := s.now().UTC()

	for start := 0; start < len(charts); start += chunkSize {
		end := start + chunkSize
		if end > len(charts) {
			end = len(charts)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*10)
		for _, c := range charts[start:end] {
			if c == nil || c.ID == "" {
				continue
			}
			payload, err := json.Marshal(c)
			if err != nil {
				return fmt.Errorf("marshal chart %s: %w", c.ID, err)
			}
			sum := c.Summary(createdAt)
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				sum.ID, sum.CreatedAt, sum.JulianDay, sum.Latitude, sum.Longitude,
				sum.HouseSystem, sum.SunSign, sum.MoonSign, sum.AscendantSign,
				string(payload),
			)
		}
		if len(values) == 0 {
			continue
		}

		q := fmt.Sprintf("INSERT INTO %s (%s, payload) VALUES %s", s.table, chartColumns, strings.Join(values, ", "))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.log.Error("clickhouse insert charts", applogger.Int("rows", len(values)), applogger.Error(err))
			return fmt.Errorf("insert charts: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseChartStore) Get(ctx context.Context, id string) (*models.BirthChartData, error) {
	q := fmt.Sprintf("SELECT payload FROM %s FINAL WHERE id = ? LIMIT 1", s.table)

	var payload string
	if err := s.db.QueryRowContext(ctx, q, id).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domrepo.ErrChartNotFound
		}
		return nil, fmt.Errorf("get chart: %w", err)
	}

	var c models.BirthChartData
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return nil, fmt.Errorf("decode chart %s: %w", id, err)
	}
	return &c, nil
}

func (s *ClickHouseChartStore) Recent(ctx context.Context, limit int) ([]models.ChartSummary, error) {
	q := fmt.Sprintf("SELECT %s FROM %s FINAL ORDER BY created_at DESC LIMIT ?", chartColumns, s.table)
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("recent charts: %w", err)
	}
	defer rows.Close()

	out := make([]models.ChartSummary, 0, limit)
	for rows.Next() {
		var r models.ChartSummary
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.JulianDay, &r.Latitude, &r.Longitude,
			&r.HouseSystem, &r.SunSign, &r.MoonSign, &r.AscendantSign); err != nil {
			return nil, fmt.Errorf("scan chart summary: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *ClickHouseChartStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool belongs to pkg/clickhouse.Client.
func (s *ClickHouseChartStore) Close() error {
	return nil
}
