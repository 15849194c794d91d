package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu    sync.Mutex
	lists map[string][][]byte
	zsets map[string]map[string]time.Time
}

func newMemStore() *memStore {
	return &memStore{lists: map[string][][]byte{}, zsets: map[string]map[string]time.Time{}}
}

func (s *memStore) Push(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[key] = append([][]byte{data}, s.lists[key]...)
	return nil
}

func (s *memStore) Pop(ctx context.Context, key string, timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		l := s.lists[key]
		if n := len(l); n > 0 {
			data := l[n-1]
			s.lists[key] = l[:n-1]
			s.mu.Unlock()
			return data, nil
		}
		s.mu.Unlock()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
	return nil, nil
}

func (s *memStore) Schedule(_ context.Context, key string, data []byte, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.zsets[key] == nil {
		s.zsets[key] = map[string]time.Time{}
	}
	s.zsets[key][string(data)] = at
	return nil
}

func (s *memStore) Due(_ context.Context, key string, now time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for m, at := range s.zsets[key] {
		if !at.After(now) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memStore) Promote(_ context.Context, from, to, member string) error {
	s.mu.Lock()
	if _, ok := s.zsets[from][member]; !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.zsets[from], member)
	s.mu.Unlock()
	return s.Push(context.Background(), to, []byte(member))
}

func (s *memStore) Ping(context.Context) error { return nil }

func (s *memStore) list(key string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Message
	for _, d := range s.lists[key] {
		var m Message
		_ = json.Unmarshal(d, &m)
		out = append(out, m)
	}
	return out
}

type delivery struct {
	URL string `json:"url"`
}

type funcJob struct {
	typ string
	fn  func(context.Context, json.RawMessage) error
}

func (j funcJob) Type() string { return j.typ }

func (j funcJob) Handle(ctx context.Context, p json.RawMessage) error { return j.fn(ctx, p) }

func newTestQueue(s *memStore) *RedisQueue {
	q := newQueue(nil, Config{RetryLimit: 2, RetryDelay: time.Minute, PollInterval: 10 * time.Millisecond}, s, WithKeyPrefix("test"))
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	q.now = func() time.Time { return fixed }
	return q
}

func TestEnqueueStoresEnvelope(t *testing.T) {
	s := newMemStore()
	q := newTestQueue(s)

	require.NoError(t, q.Enqueue(context.Background(), "webhook", delivery{URL: "http://x"}))

	msgs := s.list("test:messages")
	require.Len(t, msgs, 1)
	assert.Equal(t, "webhook", msgs[0].Type)
	assert.NotEmpty(t, msgs[0].ID)
	assert.JSONEq(t, `{"url":"http://x"}`, string(msgs[0].Payload))
}

func TestProcessSchedulesRetryThenDeadLetters(t *testing.T) {
	s := newMemStore()
	q := newTestQueue(s)
	q.RegisterJob(funcJob{typ: "webhook", fn: func(context.Context, json.RawMessage) error { return errors.New("503") }})

	msg := Message{ID: "m1", Type: "webhook", Payload: json.RawMessage(`{}`)}
	q.process(msg)

	due, _ := s.Due(context.Background(), "test:retry", q.now().Add(time.Minute))
	require.Len(t, due, 1)
	var retried Message
	require.NoError(t, json.Unmarshal([]byte(due[0]), &retried))
	assert.Equal(t, 1, retried.Attempts)
	assert.Equal(t, "503", retried.LastError)

	notYet, _ := s.Due(context.Background(), "test:retry", q.now())
	assert.Empty(t, notYet)

	retried.Attempts = 2
	q.process(retried)
	dead := s.list("test:dlq")
	require.Len(t, dead, 1)
	assert.Equal(t, 3, dead[0].Attempts)
}

func TestPermanentErrorsSkipRetry(t *testing.T) {
	s := newMemStore()
	q := newTestQueue(s)
	q.RegisterJob(funcJob{typ: "webhook", fn: func(_ context.Context, p json.RawMessage) error {
		_, err := Decode[delivery](p)
		return err
	}})

	q.process(Message{ID: "m2", Type: "webhook", Payload: json.RawMessage(`"not an object"`)})
	q.process(Message{ID: "m3", Type: "unknown", Payload: json.RawMessage(`{}`)})

	assert.Len(t, s.list("test:dlq"), 2)
	due, _ := s.Due(context.Background(), "test:retry", q.now().Add(time.Hour))
	assert.Empty(t, due)
}

func TestPromoteDueMovesRetriesBack(t *testing.T) {
	s := newMemStore()
	q := newTestQueue(s)
	require.NoError(t, s.Schedule(context.Background(), "test:retry", []byte(`{"id":"a"}`), q.now().Add(-time.Second)))
	require.NoError(t, s.Schedule(context.Background(), "test:retry", []byte(`{"id":"b"}`), q.now().Add(time.Hour)))

	q.promoteDue()

	msgs := s.list("test:messages")
	require.Len(t, msgs, 1)
	assert.Equal(t, "a", msgs[0].ID)
}

func TestWorkersHandleEnqueuedJobs(t *testing.T) {
	s := newMemStore()
	q := newTestQueue(s)
	got := make(chan string, 1)
	q.RegisterJob(funcJob{typ: "webhook", fn: func(_ context.Context, p json.RawMessage) error {
		d, err := Decode[delivery](p)
		if err != nil {
			return err
		}
		got <- d.URL
		return nil
	}})
	require.NoError(t, q.Start())
	assert.Error(t, q.Start())

	require.NoError(t, q.Enqueue(context.Background(), "webhook", delivery{URL: "http://hook"}))
	select {
	case url := <-got:
		assert.Equal(t, "http://hook", url)
	case <-time.After(2 * time.Second):
		t.Fatal("job not handled")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, q.Stop(ctx))
}

func TestRetryDelayDoubles(t *testing.T) {
	c := Config{RetryDelay: time.Second}
	assert.Equal(t, time.Second, c.retryDelay(1))
	assert.Equal(t, 2*time.Second, c.retryDelay(2))
	assert.Equal(t, 8*time.Second, c.retryDelay(4))
}
