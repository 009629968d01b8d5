package outbox

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/pkg/metrics"
)

// HeaderEventID and HeaderEventType are set on every relayed message so
// consumers can deduplicate and dispatch.
const (
	HeaderEventID   = "event-id"
	HeaderEventType = "event-type"
)

// Repository is the slice of Store the relay needs.
type Repository interface {
	FetchPending(ctx context.Context, limit int) ([]Event, error)
	MarkSent(ctx context.Context, ids []uint, at time.Time) error
}

// Writer is satisfied by *kafka.Writer.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Relay polls the outbox and publishes pending events. Delivery is at least
// once: a crash between publish and MarkSent re-sends the batch.
type Relay struct {
	repo     Repository
	writer   Writer
	interval time.Duration
	batch    int
	timeout  time.Duration
	metrics  *metrics.Metrics
	logger   logrus.FieldLogger
}

func NewRelay(repo Repository, writer Writer, interval time.Duration, batch int, m *metrics.Metrics, logger logrus.FieldLogger) *Relay {
	if batch <= 0 {
		batch = 100
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Relay{
		repo:     repo,
		writer:   writer,
		interval: interval,
		batch:    batch,
		timeout:  10 * time.Second,
		metrics:  m,
		logger:   logger,
	}
}

// Run relays until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.WithField("interval", r.interval).Info("outbox relay started")
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return
		case <-ticker.C:
			if _, err := r.RelayOnce(ctx); err != nil && ctx.Err() == nil {
				r.logger.WithError(err).Warn("outbox relay batch failed")
			}
		}
	}
}

// RelayOnce publishes one batch and returns how many events were sent.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	events, err := r.repo.FetchPending(ctx, r.batch)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	msgs := make([]kafka.Message, len(events))
	ids := make([]uint, len(events))
	for i, e := range events {
		msgs[i] = kafka.Message{
			Topic: e.Topic,
			Key:   []byte(e.Key),
			Value: e.Payload,
			Time:  e.CreatedAt,
			Headers: []kafka.Header{
				{Key: HeaderEventID, Value: []byte(e.EventID)},
				{Key: HeaderEventType, Value: []byte(e.EventType)},
			},
		}
		ids[i] = e.ID
	}

	writeCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.writer.WriteMessages(writeCtx, msgs...); err != nil {
		if r.metrics != nil {
			r.metrics.OutboxFailures.Inc()
		}
		return 0, err
	}

	if err := r.repo.MarkSent(ctx, ids, time.Now().UTC()); err != nil {
		return 0, err
	}

	if r.metrics != nil {
		r.metrics.OutboxPublished.Add(float64(len(events)))
	}
	r.logger.WithField("count", len(events)).Debug("outbox events relayed")
	return len(events), nil
}
