package outbox

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Store persists outbox events through GORM. Build one over a transaction
// handle to append events atomically with the change they describe.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, e *Event) error {
	if err := s.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("failed to append %s to outbox: %w", e.EventType, err)
	}
	return nil
}

// FetchPending returns up to limit unsent events, oldest first.
func (s *Store) FetchPending(ctx context.Context, limit int) ([]Event, error) {
	var events []Event
	err := s.db.WithContext(ctx).
		Where("sent_at IS NULL").
		Order("id ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending outbox events: %w", err)
	}
	return events, nil
}

func (s *Store) MarkSent(ctx context.Context, ids []uint, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).
		Model(&Event{}).
		Where("id IN ?", ids).
		Update("sent_at", at).Error
	if err != nil {
		return fmt.Errorf("failed to mark outbox events sent: %w", err)
	}
	return nil
}

// PurgeSent removes events delivered before cutoff.
func (s *Store) PurgeSent(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("sent_at IS NOT NULL AND sent_at < ?", cutoff).Delete(&Event{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge sent outbox events: %w", result.Error)
	}
	return result.RowsAffected, nil
}
