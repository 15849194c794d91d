package kafka

import "time"

// ProducerOption tunes the chart event producer.
type ProducerOption func(*ProducerConfig)

// ProducerConfig holds producer settings. Messages are always balanced by key,
// so every event for one chart id lands on the same partition in order.
type ProducerConfig struct {
	Brokers     []string
	Compression string

	RequiredAcks int
	MaxAttempts  int
	Async        bool

	WriteTimeout time.Duration
	ReadTimeout  time.Duration

	BatchSize    int
	BatchBytes   int
	BatchTimeout time.Duration
}

func newProducerConfig(opts ...ProducerOption) *ProducerConfig {
	cfg := &ProducerConfig{
		RequiredAcks: -1,
		Compression:  "snappy",
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
		BatchSize:    100,
		BatchBytes:   1 << 20,
		BatchTimeout: 10 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithBrokers sets the bootstrap brokers.
func WithBrokers(brokers []string) ProducerOption {
	return func(c *ProducerConfig) {
		c.Brokers = brokers
	}
}

// WithCompression picks gzip, snappy, lz4 or zstd. Unknown names mean none.
func WithCompression(codec string) ProducerOption {
	return func(c *ProducerConfig) {
		c.Compression = codec
	}
}

// WithDelivery sets acks (-1 waits for all replicas), writer retries and
// whether writes return before the broker confirms them.
func WithDelivery(acks, attempts int, async bool) ProducerOption {
	return func(c *ProducerConfig) {
		c.RequiredAcks = acks
		if attempts > 0 {
			c.MaxAttempts = attempts
		}
		c.Async = async
	}
}

// WithBatching sets how many events or bytes the writer buffers and for how long.
func WithBatching(size, bytes int, linger time.Duration) ProducerOption {
	return func(c *ProducerConfig) {
		if size > 0 {
			c.BatchSize = size
		}
		if bytes > 0 {
			c.BatchBytes = bytes
		}
		c.BatchTimeout = linger
	}
}

// WithTimeouts sets writer read/write timeouts.
func WithTimeouts(write, read time.Duration) ProducerOption {
	return func(c *ProducerConfig) {
		c.WriteTimeout = write
		c.ReadTimeout = read
	}
}
