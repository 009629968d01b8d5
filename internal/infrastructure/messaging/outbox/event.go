package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is a message waiting in the transactional outbox. It is written in the
// same transaction as the state change it describes and relayed later.
type Event struct {
	ID        uint            `gorm:"primaryKey"`
	EventID   string          `gorm:"uniqueIndex;not null;size:36"`
	EventType string          `gorm:"not null;size:100"`
	Topic     string          `gorm:"not null;size:255"`
	Key       string          `gorm:"size:255"`
	Payload   json.RawMessage `gorm:"type:jsonb;not null"`
	CreatedAt time.Time       `gorm:"not null;index"`
	SentAt    *time.Time      `gorm:"index"`
}

// TableName overrides the table name
func (Event) TableName() string {
	return "outbox_events"
}

// NewEvent marshals payload into a pending event.
func NewEvent(topic, eventType, key string, payload interface{}) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return &Event{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Topic:     topic,
		Key:       key,
		Payload:   data,
		CreatedAt: time.Now().UTC(),
	}, nil
}
