package kafka

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricsOnce       sync.Once
	metricsRegisterer prometheus.Registerer = prometheus.DefaultRegisterer

	producerMessages *prometheus.CounterVec
	producerBytes    *prometheus.CounterVec
	producerLatency  *prometheus.HistogramVec

	consumerMessages *prometheus.CounterVec
	consumerQueue    *prometheus.GaugeVec
	consumerLatency  *prometheus.HistogramVec
)

// SetMetricsRegisterer overrides where producer and consumer metrics register.
// It only has an effect before the first producer or consumer is created.
func SetMetricsRegisterer(reg prometheus.Registerer) {
	if reg != nil {
		metricsRegisterer = reg
	}
}

func initMetrics() {
	metricsOnce.Do(func() {
		producerMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "astrochart_kafka_producer_messages_total",
			Help: "Messages published to Kafka by result",
		}, []string{"topic", "result"})
		producerBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "astrochart_kafka_producer_bytes_total",
			Help: "Payload bytes published to Kafka",
		}, []string{"topic"})
		producerLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "astrochart_kafka_producer_publish_seconds",
			Help:    "Publish latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"topic"})

		consumerMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "astrochart_kafka_consumer_messages_total",
			Help: "Messages handled by outcome: ok, retried, dlq, dropped",
		}, []string{"topic", "outcome"})
		consumerQueue = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "astrochart_kafka_consumer_queue_depth",
			Help: "Messages waiting for a worker",
		}, []string{"topic"})
		consumerLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "astrochart_kafka_consumer_handle_seconds",
			Help:    "Handling time per message including retries",
			Buckets: prometheus.DefBuckets,
		}, []string{"topic"})

		for _, c := range []prometheus.Collector{
			producerMessages, producerBytes, producerLatency,
			consumerMessages, consumerQueue, consumerLatency,
		} {
			if err := metricsRegisterer.Register(c); err != nil {
				if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
					panic(err)
				}
			}
		}
	})
}

func observePublish(topic string, bytes int64, count int, took time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	producerMessages.WithLabelValues(topic, result).Add(float64(count))
	if err == nil {
		producerBytes.WithLabelValues(topic).Add(float64(bytes))
	}
	producerLatency.WithLabelValues(topic).Observe(took.Seconds())
}
