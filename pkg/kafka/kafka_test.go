package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closes int
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closes++
	return nil
}

type fakeReader struct {
	mu        sync.Mutex
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

type scriptedHandler struct {
	topic string
	errs  []error
	calls int
}

func (h *scriptedHandler) Topic() string { return h.topic }

func (h *scriptedHandler) Handle(_ context.Context, _ []byte) error {
	h.calls++
	if h.calls <= len(h.errs) {
		return h.errs[h.calls-1]
	}
	return nil
}

func newTestConsumer(t *testing.T, h MessageHandler) (*Consumer, *fakeReader, *fakeWriter) {
	t.Helper()
	c, err := NewConsumer(
		WithConsumerBrokers([]string{"localhost:9092"}),
		WithConsumerRetry(2, time.Millisecond, 2*time.Millisecond),
		WithConsumerDLQ("chart.requests.dlq"),
	)
	require.NoError(t, err)
	reader, dlq := &fakeReader{}, &fakeWriter{}
	c.RegisterHandler(h)
	c.readers[h.Topic()] = reader
	c.dlq = dlq
	return c, reader, dlq
}

func TestConsumerRetriesTransientErrors(t *testing.T) {
	h := &scriptedHandler{topic: "chart.requests", errs: []error{errors.New("redis down")}}
	c, reader, dlq := newTestConsumer(t, h)

	c.process(kafka.Message{Topic: "chart.requests", Offset: 7, Value: []byte(`{}`)})

	assert.Equal(t, 2, h.calls)
	assert.Equal(t, []int64{7}, reader.committed)
	assert.Empty(t, dlq.msgs)
}

func TestConsumerSendsPermanentErrorsStraightToDLQ(t *testing.T) {
	h := &scriptedHandler{topic: "chart.requests", errs: []error{Permanent("ERR_VALIDATION", errors.New("bad date"))}}
	c, reader, dlq := newTestConsumer(t, h)

	c.process(kafka.Message{Topic: "chart.requests", Offset: 3, Key: []byte("k"), Value: []byte(`{"x":1}`)})

	assert.Equal(t, 1, h.calls)
	assert.Equal(t, []int64{3}, reader.committed)
	require.Len(t, dlq.msgs, 1)
	m := dlq.msgs[0]
	assert.Equal(t, "chart.requests.dlq", m.Topic)
	assert.Equal(t, []byte(`{"x":1}`), m.Value)
	assert.Equal(t, "chart.requests", Header(m, HeaderSourceTopic))
	assert.Equal(t, "ERR_VALIDATION", Header(m, HeaderErrorCode))
	assert.Equal(t, "1", Header(m, HeaderAttempts))
}

func TestConsumerExhaustsRetries(t *testing.T) {
	boom := errors.New("boom")
	h := &scriptedHandler{topic: "t", errs: []error{boom, boom, boom, boom}}
	c, reader, dlq := newTestConsumer(t, h)

	c.process(kafka.Message{Topic: "t", Offset: 1})

	assert.Equal(t, 3, h.calls)
	assert.Equal(t, []int64{1}, reader.committed)
	require.Len(t, dlq.msgs, 1)
	assert.Equal(t, "ERR_HANDLER", Header(dlq.msgs[0], HeaderErrorCode))
}

func TestConsumerDoesNotCommitWhenDLQFails(t *testing.T) {
	h := &scriptedHandler{topic: "t", errs: []error{Permanent("ERR_DECODE", errors.New("junk"))}}
	c, reader, dlq := newTestConsumer(t, h)
	dlq.err = errors.New("dlq unavailable")

	c.process(kafka.Message{Topic: "t", Offset: 9})
	assert.Empty(t, reader.committed)
}

type panicHandler struct{}

func (panicHandler) Topic() string { return "p" }
func (panicHandler) Handle(context.Context, []byte) error { panic("nil map") }

func TestConsumerRecoversHandlerPanic(t *testing.T) {
	c, _, dlq := newTestConsumer(t, panicHandler{})
	c.process(kafka.Message{Topic: "p"})
	require.Len(t, dlq.msgs, 1)
	assert.Equal(t, "ERR_PANIC", Header(dlq.msgs[0], HeaderErrorCode))
}

func TestConsumerStopAbortsBackoff(t *testing.T) {
	h := &scriptedHandler{topic: "t", errs: []error{errors.New("x"), errors.New("x"), errors.New("x")}}
	c, reader, dlq := newTestConsumer(t, h)
	c.cfg.BackoffMin, c.cfg.BackoffMax = time.Hour, time.Hour
	c.cancel()

	c.process(kafka.Message{Topic: "t", Offset: 5})
	assert.Equal(t, 1, h.calls)
	assert.Empty(t, reader.committed)
	assert.Empty(t, dlq.msgs)
}

func TestHookChainTracingAndPanic(t *testing.T) {
	km := kafka.Message{Headers: []kafka.Header{{Key: HeaderRequestID, Value: []byte("req-1")}}}
	ctx, _, err := NewHookChain(TracingHook{}, nil).BeforeHandle(context.Background(), km)
	require.NoError(t, err)
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))

	bad := HookFunc(func(context.Context, kafka.Message) (context.Context, kafka.Message, error) { panic("x") })
	_, _, err = NewHookChain(TracingHook{}, bad).BeforeHandle(context.Background(), km)
	assert.True(t, IsPermanent(err))
	assert.Equal(t, "ERR_PANIC", ErrorCode(err))
}

func TestProducerEncodesAndTagsMessages(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerFromWriter(w)

	require.NoError(t, p.Publish(context.Background(), "chart.computed", []byte("id1"), map[string]int{"n": 1}))
	require.NoError(t, p.PublishMessage(context.Background(), "ops.logs", "raw"))
	require.NoError(t, p.PublishBatch(context.Background(), "t", nil))

	require.Len(t, w.msgs, 2)
	var body map[string]int
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &body))
	assert.Equal(t, 1, body["n"])
	assert.Equal(t, "chart.computed", w.msgs[0].Topic)
	assert.NotEmpty(t, Header(w.msgs[0], HeaderMessageID))
	assert.NotEqual(t, Header(w.msgs[0], HeaderMessageID), Header(w.msgs[1], HeaderMessageID))
	assert.Equal(t, []byte("raw"), w.msgs[1].Value)
}

func TestProducerWrapsWriteErrors(t *testing.T) {
	p := NewProducerFromWriter(&fakeWriter{err: errors.New("leader not available")})
	err := p.Publish(context.Background(), "t", nil, "x")
	assert.ErrorContains(t, err, "kafka write t")
}

func TestProducerCloseIsIdempotent(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerFromWriter(w)
	assert.NoError(t, p.Close())
	assert.NoError(t, p.Close())
	assert.Equal(t, 1, w.closes)
}

func TestBackoffWithJitterBounds(t *testing.T) {
	for attempt := 1; attempt < 40; attempt++ {
		d := backoffWithJitter(10*time.Millisecond, time.Second, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, time.Second)
	}
}

func TestProducerConfigKeepsDefaultsForZeroValues(t *testing.T) {
	cfg := newProducerConfig(
		WithBrokers([]string{"b1:9092"}),
		WithDelivery(1, 0, true),
		WithBatching(0, 4096, 0),
	)

	assert.Equal(t, []string{"b1:9092"}, cfg.Brokers)
	assert.Equal(t, 1, cfg.RequiredAcks)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.True(t, cfg.Async)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 4096, cfg.BatchBytes)
	assert.Zero(t, cfg.BatchTimeout)
	assert.Equal(t, "snappy", cfg.Compression)
}

func TestNewProducerBalancesByChartKey(t *testing.T) {
	_, err := NewProducer()
	assert.ErrorContains(t, err, "brokers are required")

	p, err := NewProducer(WithBrokers([]string{"localhost:9092"}), WithCompression("zstd"))
	require.NoError(t, err)
	defer p.Close()

	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.IsType(t, &kafka.Hash{}, w.Balancer)
	assert.Equal(t, kafka.RequiredAcks(-1), w.RequiredAcks)
}
