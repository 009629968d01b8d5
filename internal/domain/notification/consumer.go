// internal/domain/notification/consumer.go
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/infrastructure/messaging/outbox"
	"github.com/your-org/storefront-backend/internal/pkg/email"
	"github.com/your-org/storefront-backend/internal/pkg/money"
)

// Reader is satisfied by *kafka.Reader.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// OrderFinder loads the order an event refers to.
type OrderFinder interface {
	FindByID(ctx context.Context, id uint) (*order.Order, error)
}

// Mailer is the part of email.EmailService the consumer uses.
type Mailer interface {
	SendOrderConfirmationEmail(ctx context.Context, data email.OrderConfirmationData) error
	SendOrderStatusUpdateEmail(ctx context.Context, data email.OrderStatusData) error
}

// Deduper remembers handled event ids. Claim returns false when id was
// already claimed.
type Deduper interface {
	Claim(ctx context.Context, id string) (bool, error)
	Release(ctx context.Context, id string) error
}

// Consumer turns order events into customer email.
type Consumer struct {
	reader  Reader
	orders  OrderFinder
	mailer  Mailer
	dedupe  Deduper
	backoff    time.Duration
	maxBackoff time.Duration
	logger     logrus.FieldLogger
}

func NewConsumer(reader Reader, orders OrderFinder, mailer Mailer, dedupe Deduper, logger logrus.FieldLogger) *Consumer {
	return &Consumer{
		reader:     reader,
		orders:     orders,
		mailer:     mailer,
		dedupe:     dedupe,
		backoff:    time.Second,
		maxBackoff: 30 * time.Second,
		logger:     logger,
	}
}

// Run consumes until ctx is cancelled. A message whose handling fails is
// retried with backoff before the next one is fetched, so a later commit never
// moves the group offset past an unsent notification.
func (c *Consumer) Run(ctx context.Context) {
	c.logger.Info("notification consumer started")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("notification consumer stopped")
				return
			}
			c.logger.WithError(err).Warn("failed to fetch order event")
			if !sleep(ctx, c.backoff) {
				return
			}
			continue
		}

		if !c.handleWithRetry(ctx, msg) {
			c.logger.Info("notification consumer stopped")
			return
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.WithError(err).Warn("failed to commit order event")
		}
	}
}

// handleWithRetry returns false only when ctx ends before msg is handled.
func (c *Consumer) handleWithRetry(ctx context.Context, msg kafka.Message) bool {
	delay := c.backoff
	for attempt := 1; ; attempt++ {
		err := c.Handle(ctx, msg)
		if err == nil {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		c.logger.WithError(err).WithFields(logrus.Fields{
			"event_id":  header(msg, outbox.HeaderEventID),
			"partition": msg.Partition,
			"offset":    msg.Offset,
			"attempt":   attempt,
		}).Error("failed to handle order event")
		if !sleep(ctx, delay) {
			return false
		}
		if delay *= 2; delay > c.maxBackoff {
			delay = c.maxBackoff
		}
	}
}

// Handle processes a single message. Unknown event types and malformed
// payloads are skipped without error.
func (c *Consumer) Handle(ctx context.Context, msg kafka.Message) error {
	eventID := header(msg, outbox.HeaderEventID)
	eventType := header(msg, outbox.HeaderEventType)
	log := c.logger.WithFields(logrus.Fields{"event_id": eventID, "event_type": eventType})

	var send func(context.Context) error
	switch eventType {
	case order.EventOrderCreated:
		var evt order.CreatedEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			log.WithError(err).Warn("dropping malformed order event")
			return nil
		}
		send = func(ctx context.Context) error { return c.sendConfirmation(ctx, evt) }
	case order.EventOrderStatusChanged:
		var evt order.StatusChangedEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			log.WithError(err).Warn("dropping malformed order event")
			return nil
		}
		send = func(ctx context.Context) error { return c.sendStatusUpdate(ctx, evt) }
	default:
		log.Debug("ignoring event")
		return nil
	}

	if eventID != "" && c.dedupe != nil {
		fresh, err := c.dedupe.Claim(ctx, eventID)
		if err != nil {
			return err
		}
		if !fresh {
			log.Info("skipping duplicate order event")
			return nil
		}
	}

	if err := send(ctx); err != nil {
		if eventID != "" && c.dedupe != nil {
			if rerr := c.dedupe.Release(ctx, eventID); rerr != nil {
				log.WithError(rerr).Warn("failed to release event claim")
			}
		}
		return err
	}
	log.Info("order notification sent")
	return nil
}

func (c *Consumer) sendConfirmation(ctx context.Context, evt order.CreatedEvent) error {
	if evt.CustomerEmail == "" {
		return nil
	}
	o, err := c.orders.FindByID(ctx, evt.OrderID)
	if err != nil {
		return fmt.Errorf("failed to load order %d: %w", evt.OrderID, err)
	}
	return c.mailer.SendOrderConfirmationEmail(ctx, ConfirmationData(o))
}

func (c *Consumer) sendStatusUpdate(ctx context.Context, evt order.StatusChangedEvent) error {
	if evt.CustomerEmail == "" {
		return nil
	}
	return c.mailer.SendOrderStatusUpdateEmail(ctx, email.OrderStatusData{
		CustomerEmail: evt.CustomerEmail,
		OrderNumber:   evt.OrderNumber,
		Status:        string(evt.Status),
		PaymentStatus: string(evt.PaymentStatus),
	})
}

// ConfirmationData maps an order onto the confirmation template.
func ConfirmationData(o *order.Order) email.OrderConfirmationData {
	data := email.OrderConfirmationData{
		CustomerName:  o.Customer.Name,
		CustomerEmail: o.Customer.Email,
		OrderNumber:   o.OrderNumber,
		OrderDate:     o.CreatedAt.Format("January 2, 2006"),
		PaymentMethod: string(o.PaymentMethod),
		Subtotal:      money.Format(o.Subtotal),
		Shipping:      money.Format(o.ShippingInfo.ShippingCost),
		Discount:      money.Format(o.Discount),
		Total:         money.Format(o.Total),
	}
	for _, item := range o.Items {
		data.Items = append(data.Items, email.OrderItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    money.Format(item.Price),
			Total:    money.Format(item.Subtotal),
		})
	}
	return data
}

// RedisDeduper claims event ids with SET NX so a redelivered event mails once.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisDeduper{client: client, ttl: ttl}
}

func (d *RedisDeduper) key(id string) string {
	return "notification:event:" + id
}

func (d *RedisDeduper) Claim(ctx context.Context, id string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.key(id), 1, d.ttl).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("failed to claim event %s: %w", id, err)
	}
	return ok, nil
}

func (d *RedisDeduper) Release(ctx context.Context, id string) error {
	return d.client.Del(ctx, d.key(id)).Err()
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
