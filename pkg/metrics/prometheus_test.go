package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordChartDelivered("kafka", "placidus")
	r.RecordChartDelivered("kafka", "placidus")
	r.RecordError("calculate")
	r.RecordCacheResult(true)
	r.RecordCacheResult(false)
	r.RecordCacheResult(false)
	r.RecordLatency("calculate", 0.003)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.chartsDelivered.WithLabelValues("kafka", "placidus")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("calculate")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.latency))
}

func TestNewPanicsOnDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
