package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu      sync.Mutex
	topics  []string
	batches [][]AggregatedLogEntry
}

func (p *recordingPublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.batches = append(p.batches, payload.([]AggregatedLogEntry))
	return nil
}

func TestLoggerWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf).With(String("component", "test"))

	log.Info("chart computed", Float64("jd", 2451545.0), Int("planets", 11), Duration("took", 1500*time.Microsecond), Bool("cached", false))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "chart computed", entry["message"])
	assert.Equal(t, "test", entry["component"])
	assert.Equal(t, 2451545.0, entry["jd"])
	assert.Equal(t, 11.0, entry["planets"])
	assert.Equal(t, 1.0, entry["took"])
	assert.Equal(t, false, entry["cached"])
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(&Config{Level: "chatty", Output: "stdout"})
	assert.Error(t, err)
}

func TestCollectorDeduplicatesAndPublishes(t *testing.T) {
	pub := &recordingPublisher{}
	log := NewWriter(&bytes.Buffer{})
	log.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 10, Topic: "ops.logs", Publisher: pub})

	for i := 0; i < 3; i++ {
		log.Error("kafka publish failed", Error(errors.New("broker down")))
	}
	log.Error("store failed", String("id", "abc"))
	log.Warn("not collected")
	require.Equal(t, 2, log.collector.Pending())

	log.RemoveCollector()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.batches, 1)
	assert.Equal(t, "ops.logs", pub.topics[0])
	batch := pub.batches[0]
	require.Len(t, batch, 2)
	assert.Equal(t, "kafka publish failed", batch[0].Message)
	assert.Equal(t, 3, batch[0].Count)
	assert.Equal(t, "broker down", batch[0].Fields["error"])
	assert.Equal(t, 1, batch[1].Count)
}

func TestCollectorFlushesAtThreshold(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 2, Topic: "ops", Publisher: pub})
	c.AddLog("error", "a", nil, "x.go:1")
	c.AddLog("error", "b", nil, "x.go:2")
	assert.Equal(t, 0, c.Pending())
	c.Close()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.batches, 1)
	assert.Len(t, pub.batches[0], 2)
}
