package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"AstroChart/pkg/logger"
)

// MessagePublisher sends a JSON payload to a topic; the Kafka producer implements it.
type MessagePublisher interface {
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
}

// SkyDigestEvent is a compact geocentric snapshot published on a schedule.
type SkyDigestEvent struct {
	At        time.Time         `json:"at"`
	JulianDay float64           `json:"julian_day"`
	Bodies    []SkyDigestEntry  `json:"bodies"`
	Signs     map[string]string `json:"signs"`
}

type SkyDigestEntry struct {
	Body       string  `json:"body"`
	Longitude  float64 `json:"longitude"`
	Formatted  string  `json:"formatted"`
	Retrograde bool    `json:"retrograde"`
}

// SkyDigest publishes the current sky on a cron schedule.
type SkyDigest struct {
	cron    *cron.Cron
	sky     SkySource
	pub     MessagePublisher
	topic   string
	log     *logger.Logger
	timeout time.Duration
}

// NewSkyDigest validates spec (standard five fields or a descriptor such as @hourly).
func NewSkyDigest(sky SkySource, pub MessagePublisher, topic, spec string, log *logger.Logger) (*SkyDigest, error) {
	if log == nil {
		log = logger.Nop()
	}
	d := &SkyDigest{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		sky:     sky,
		pub:     pub,
		topic:   topic,
		log:     log.With(logger.String("component", "sky_digest")),
		timeout: 30 * time.Second,
	}
	if _, err := d.cron.AddFunc(spec, d.tick); err != nil {
		return nil, fmt.Errorf("sky digest schedule %q: %w", spec, err)
	}
	return d, nil
}

func (d *SkyDigest) Start() { d.cron.Start() }

// Stop halts the schedule and waits for a running publish, bounded by ctx.
func (d *SkyDigest) Stop(ctx context.Context) error {
	done := d.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce computes and publishes one digest.
func (d *SkyDigest) RunOnce(ctx context.Context) error {
	snap, err := d.sky.Sky(ctx, time.Time{}, 0, 0)
	if err != nil {
		return fmt.Errorf("sky snapshot: %w", err)
	}

	ev := SkyDigestEvent{
		At:        snap.At,
		JulianDay: snap.JulianDay,
		Bodies:    make([]SkyDigestEntry, 0, len(snap.Planets)),
		Signs:     make(map[string]string, len(snap.Planets)),
	}
	for _, p := range snap.Planets {
		ev.Bodies = append(ev.Bodies, SkyDigestEntry{
			Body:       p.Body,
			Longitude:  p.Longitude,
			Formatted:  p.Formatted,
			Retrograde: p.Retrograde,
		})
		ev.Signs[p.Body] = p.Sign
	}

	if err := d.pub.PublishMessage(ctx, d.topic, ev); err != nil {
		return fmt.Errorf("publish sky digest: %w", err)
	}
	return nil
}

func (d *SkyDigest) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	if err := d.RunOnce(ctx); err != nil {
		d.log.Error("sky digest failed", logger.String("topic", d.topic), logger.Error(err))
	}
}
