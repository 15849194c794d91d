package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"AstroChart/pkg/logger"
)

// store is the list/sorted-set subset of Redis the queue relies on.
type store interface {
	Push(ctx context.Context, key string, data []byte) error
	Pop(ctx context.Context, key string, timeout time.Duration) ([]byte, error) // nil, nil on timeout
	Schedule(ctx context.Context, key string, data []byte, at time.Time) error
	Due(ctx context.Context, key string, now time.Time) ([]string, error)
	Promote(ctx context.Context, from, to, member string) error
	Ping(ctx context.Context) error
}

type redisStore struct {
	client *redis.Client
}

func (s redisStore) Push(ctx context.Context, key string, data []byte) error {
	return s.client.LPush(ctx, key, data).Err()
}

func (s redisStore) Pop(ctx context.Context, key string, timeout time.Duration) ([]byte, error) {
	res, err := s.client.BRPop(ctx, timeout, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(res) < 2 {
		return nil, nil
	}
	return []byte(res[1]), nil
}

func (s redisStore) Schedule(ctx context.Context, key string, data []byte, at time.Time) error {
	return s.client.ZAdd(ctx, key, redis.Z{Score: float64(at.Unix()), Member: data}).Err()
}

func (s redisStore) Due(ctx context.Context, key string, now time.Time) ([]string, error) {
	return s.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: "0",
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
}

func (s redisStore) Promote(ctx context.Context, from, to, member string) error {
	// ZREM wins exactly once across replicas; only the winner pushes
	removed, err := s.client.ZRem(ctx, from, member).Result()
	if err != nil || removed == 0 {
		return err
	}
	return s.client.LPush(ctx, to, member).Err()
}

func (s redisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// RedisQueue is a Redis list backed job queue with delayed retries and a dead-letter list.
type RedisQueue struct {
	log       *logger.Logger
	config    Config
	store     store
	keyPrefix string
	now       func() time.Time

	mu      sync.RWMutex
	jobs    map[string]Job
	running bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// RedisQueueOption configures RedisQueue.
type RedisQueueOption func(*RedisQueue)

// WithKeyPrefix sets custom key prefix.
func WithKeyPrefix(prefix string) RedisQueueOption {
	return func(r *RedisQueue) {
		r.keyPrefix = prefix
	}
}

// NewRedisQueue creates a queue on client. Call Start to run workers.
func NewRedisQueue(lgr *logger.Logger, config Config, client *redis.Client, opts ...RedisQueueOption) *RedisQueue {
	return newQueue(lgr, config, redisStore{client: client}, opts...)
}

func newQueue(lgr *logger.Logger, config Config, s store, opts ...RedisQueueOption) *RedisQueue {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 10 * time.Second
	}
	if config.PollInterval <= 0 {
		config.PollInterval = time.Second
	}
	if lgr == nil {
		lgr = logger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	q := &RedisQueue{
		log:       lgr.With(logger.String("component", "queue")),
		config:    config,
		store:     s,
		keyPrefix: "astrochart:queue",
		now:       time.Now,
		jobs:      make(map[string]Job),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// RegisterJob registers a job for its message type. The first registration wins.
func (r *RedisQueue) RegisterJob(job Job) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[job.Type()]; exists {
		r.log.Warn("job already registered", logger.String("type", job.Type()))
		return
	}
	r.jobs[job.Type()] = job
}

// Start verifies the connection and starts workers plus the retry promoter.
func (r *RedisQueue) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return fmt.Errorf("queue already running")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.store.Ping(ctx); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	for i := 0; i < r.config.Workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}
	r.wg.Add(1)
	go r.retryLoop()

	r.running = true
	r.log.Info("queue started", logger.Int("workers", r.config.Workers), logger.String("prefix", r.keyPrefix))
	return nil
}

// Stop cancels workers and waits for them.
func (r *RedisQueue) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	r.mu.Unlock()

	r.cancel()
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("timeout waiting for queue workers: %w", ctx.Err())
	case <-done:
		r.log.Info("queue stopped")
		return nil
	}
}

// Enqueue adds a message. It works whether or not this process runs workers.
func (r *RedisQueue) Enqueue(ctx context.Context, msgType string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	msg := Message{
		ID:         uuid.NewString(),
		Type:       msgType,
		Payload:    raw,
		EnqueuedAt: r.now().UTC(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := r.store.Push(ctx, r.queueKey(), data); err != nil {
		return fmt.Errorf("enqueue %s: %w", msgType, err)
	}
	return nil
}

func (r *RedisQueue) worker() {
	defer r.wg.Done()
	for r.ctx.Err() == nil {
		data, err := r.store.Pop(r.ctx, r.queueKey(), r.config.PollInterval)
		if err != nil {
			if r.ctx.Err() != nil {
				return
			}
			r.log.Error("pop message", logger.Error(err))
			r.pause(time.Second)
			continue
		}
		if data == nil {
			continue
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			r.log.Error("unmarshal message", logger.Error(err))
			continue
		}
		r.process(msg)
	}
}

func (r *RedisQueue) process(msg Message) {
	r.mu.RLock()
	job, ok := r.jobs[msg.Type]
	r.mu.RUnlock()
	if !ok {
		r.fail(msg, fmt.Errorf("%w: no job for type %q", ErrPermanent, msg.Type))
		return
	}

	err := job.Handle(r.ctx, msg.Payload)
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) && r.ctx.Err() != nil {
		// shutting down; put it back for the next run
		r.schedule(msg, r.now())
		return
	}
	r.fail(msg, err)
}

func (r *RedisQueue) fail(msg Message, err error) {
	msg.Attempts++
	msg.LastError = err.Error()

	if errors.Is(err, ErrPermanent) || msg.Attempts > r.config.RetryLimit {
		r.log.Error("job failed",
			logger.String("id", msg.ID),
			logger.String("type", msg.Type),
			logger.Int("attempts", msg.Attempts),
			logger.Error(err))
		r.deadLetter(msg)
		return
	}

	at := r.now().Add(r.config.retryDelay(msg.Attempts))
	r.log.Warn("job retry scheduled",
		logger.String("id", msg.ID),
		logger.String("type", msg.Type),
		logger.Int("attempt", msg.Attempts),
		logger.String("retry_at", at.Format(time.RFC3339)),
		logger.Error(err))
	r.schedule(msg, at)
}

func (r *RedisQueue) schedule(msg Message, at time.Time) {
	data, err := json.Marshal(msg)
	if err != nil {
		r.log.Error("marshal retry", logger.Error(err))
		return
	}
	if err := r.store.Schedule(context.Background(), r.retryKey(), data, at); err != nil {
		r.log.Error("schedule retry", logger.Error(err))
	}
}

func (r *RedisQueue) deadLetter(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		r.log.Error("marshal dlq", logger.Error(err))
		return
	}
	if err := r.store.Push(context.Background(), r.deadLetterKey(), data); err != nil {
		r.log.Error("push dlq", logger.Error(err))
	}
}

func (r *RedisQueue) retryLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.promoteDue()
		}
	}
}

func (r *RedisQueue) promoteDue() {
	due, err := r.store.Due(r.ctx, r.retryKey(), r.now())
	if err != nil {
		if r.ctx.Err() == nil {
			r.log.Error("fetch due retries", logger.Error(err))
		}
		return
	}
	for _, member := range due {
		if err := r.store.Promote(r.ctx, r.retryKey(), r.queueKey(), member); err != nil {
			if r.ctx.Err() != nil {
				return
			}
			r.log.Error("promote retry", logger.Error(err))
		}
	}
}

func (r *RedisQueue) pause(d time.Duration) {
	select {
	case <-time.After(d):
	case <-r.ctx.Done():
	}
}

func (r *RedisQueue) queueKey() string      { return r.keyPrefix + ":messages" }
func (r *RedisQueue) retryKey() string      { return r.keyPrefix + ":retry" }
func (r *RedisQueue) deadLetterKey() string { return r.keyPrefix + ":dlq" }
