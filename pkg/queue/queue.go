package queue

import (
	"context"
	"encoding/json"
	"time"
)

// Publisher enqueues work for a Job.
type Publisher interface {
	Enqueue(ctx context.Context, msgType string, payload interface{}) error
}

// Config contains the configuration for the queue.
type Config struct {
	Workers      int           // number of workers
	RetryLimit   int           // retries after the first attempt
	RetryDelay   time.Duration // first retry delay, doubled on each attempt
	PollInterval time.Duration // how long a worker blocks waiting for a message
}

// Message is the unit stored in Redis.
type Message struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	LastError  string          `json:"last_error,omitempty"`
}

func (c *Config) retryDelay(attempts int) time.Duration {
	d := c.RetryDelay
	for i := 1; i < attempts && d < time.Hour; i++ {
		d *= 2
	}
	return d
}
