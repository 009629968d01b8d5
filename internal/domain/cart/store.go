package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the GORM-backed cart store. Build one over a transaction handle to
// take part in that transaction.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// FindByUser loads the cart for userID under a row lock.
func (s *Store) FindByUser(ctx context.Context, userID string) (*Cart, error) {
	var c Cart
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("cart", userID)
		}
		return nil, fmt.Errorf("failed to load cart for %s: %w", userID, err)
	}

	if err := s.db.WithContext(ctx).Where("cart_id = ?", c.ID).Order("position ASC, id ASC").Find(&c.Items).Error; err != nil {
		return nil, fmt.Errorf("failed to load cart items for %s: %w", userID, err)
	}
	return &c, nil
}

// FindOrCreate returns the cart for userID, creating an empty one that
// expires at expiresAt when none exists.
func (s *Store) FindOrCreate(ctx context.Context, userID string, expiresAt time.Time) (*Cart, error) {
	c := Cart{UserID: userID, ExpiresAt: expiresAt, Items: []CartItem{}}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Omit("Items").
		Create(&c).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create cart for %s: %w", userID, err)
	}
	return s.FindByUser(ctx, userID)
}

// ReplaceItems swaps every line of c for items and writes the new total and
// expiry. c is updated in place.
func (s *Store) ReplaceItems(ctx context.Context, c *Cart, items []CartItem, expiresAt time.Time) error {
	db := s.db.WithContext(ctx)

	if err := db.Where("cart_id = ?", c.ID).Delete(&CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart %d: %w", c.ID, err)
	}

	c.Items = items
	c.Recalculate()
	c.ExpiresAt = expiresAt

	if len(c.Items) > 0 {
		for i := range c.Items {
			c.Items[i].ID = 0
			c.Items[i].CartID = c.ID
		}
		if err := db.Create(&c.Items).Error; err != nil {
			return fmt.Errorf("failed to write cart %d items: %w", c.ID, err)
		}
	}

	return s.Save(ctx, c)
}

// Save writes the cart header (total and expiry).
func (s *Store) Save(ctx context.Context, c *Cart) error {
	err := s.db.WithContext(ctx).
		Model(&Cart{}).
		Where("id = ?", c.ID).
		Updates(map[string]interface{}{
			"total":      c.Total,
			"expires_at": c.ExpiresAt,
			"updated_at": time.Now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to save cart %d: %w", c.ID, err)
	}
	return nil
}

// PurgeExpired deletes carts whose expiry is before now and returns how many
// went away. Items follow by cascade.
func (s *Store) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&Cart{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge expired carts: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// ExpiredUsers lists user keys of expired carts, for cache eviction.
func (s *Store) ExpiredUsers(ctx context.Context, now time.Time) ([]string, error) {
	var users []string
	if err := s.db.WithContext(ctx).Model(&Cart{}).Where("expires_at < ?", now).Pluck("user_id", &users).Error; err != nil {
		return nil, fmt.Errorf("failed to list expired carts: %w", err)
	}
	return users, nil
}
