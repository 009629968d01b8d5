package kafka

import (
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/your-org/storefront-backend/internal/config"
)

// Client builds writers and readers for the configured brokers.
type Client struct {
	Brokers []string
}

func NewClient(cfg *config.Config) *Client {
	return &Client{Brokers: cfg.Kafka.Brokers}
}

func (c *Client) Enabled() bool {
	return len(c.Brokers) > 0
}

// NewWriter returns a writer without a fixed topic; every message names its
// own. Messages with the same key land on the same partition.
func (c *Client) NewWriter() *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(c.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}
}

func (c *Client) NewReader(topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  c.Brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}
