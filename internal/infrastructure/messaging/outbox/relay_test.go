package outbox

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/pkg/metrics"
)

type mockRepository struct {
	mu       sync.Mutex
	pending  []Event
	fetchErr error
	sentIDs  []uint
}

func (m *mockRepository) FetchPending(_ context.Context, limit int) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	if len(m.pending) > limit {
		return m.pending[:limit], nil
	}
	return m.pending, nil
}

func (m *mockRepository) MarkSent(_ context.Context, ids []uint, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sentIDs = append(m.sentIDs, ids...)
	sent := make(map[uint]bool, len(ids))
	for _, id := range ids {
		sent[id] = true
	}
	var rest []Event
	for _, e := range m.pending {
		if !sent[e.ID] {
			rest = append(rest, e)
		}
	}
	m.pending = rest
	return nil
}

func (m *mockRepository) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sentIDs)
}

type mockWriter struct {
	messages []kafka.Message
	err      error
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msgs...)
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newEvent(t *testing.T, id uint, key string) Event {
	e, err := NewEvent("orders", "order.created", key, map[string]string{"orderNumber": key})
	require.NoError(t, err)
	e.ID = id
	return *e
}

func TestRelayOnce_PublishesAndMarksSent(t *testing.T) {
	repo := &mockRepository{pending: []Event{newEvent(t, 1, "ORD-1"), newEvent(t, 2, "ORD-2")}}
	writer := &mockWriter{}
	m := metrics.New()
	relay := NewRelay(repo, writer, time.Second, 10, m, quietLogger())

	n, err := relay.RelayOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.Equal(t, []uint{1, 2}, repo.sentIDs)
	assert.Empty(t, repo.pending)
	require.Len(t, writer.messages, 2)

	msg := writer.messages[0]
	assert.Equal(t, "orders", msg.Topic)
	assert.Equal(t, "ORD-1", string(msg.Key))
	assert.JSONEq(t, `{"orderNumber":"ORD-1"}`, string(msg.Value))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, HeaderEventType, msg.Headers[1].Key)
	assert.Equal(t, "order.created", string(msg.Headers[1].Value))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.OutboxPublished))
}

func TestRelayOnce_WriteFailureKeepsEventsPending(t *testing.T) {
	repo := &mockRepository{pending: []Event{newEvent(t, 1, "ORD-1")}}
	writer := &mockWriter{err: errors.New("broker down")}
	m := metrics.New()
	relay := NewRelay(repo, writer, time.Second, 10, m, quietLogger())

	n, err := relay.RelayOnce(context.Background())
	require.Error(t, err)

	assert.Zero(t, n)
	assert.Empty(t, repo.sentIDs)
	assert.Len(t, repo.pending, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxFailures))
}

func TestRelayOnce_RespectsBatchSize(t *testing.T) {
	repo := &mockRepository{pending: []Event{newEvent(t, 1, "a"), newEvent(t, 2, "b"), newEvent(t, 3, "c")}}
	writer := &mockWriter{}
	relay := NewRelay(repo, writer, time.Second, 2, nil, quietLogger())

	n, err := relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRelayRunStopsOnCancel(t *testing.T) {
	repo := &mockRepository{pending: []Event{newEvent(t, 1, "ORD-1")}}
	writer := &mockWriter{}
	relay := NewRelay(repo, writer, 10*time.Millisecond, 10, nil, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		relay.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return repo.sentCount() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}
