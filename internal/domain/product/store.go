package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInsufficientStock is returned by DecrementStock when the guarded update
// matched no row.
var ErrInsufficientStock = errors.New("insufficient stock")

// Store is the GORM-backed catalog store. Build one over a transaction handle
// to take part in that transaction.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// FindByID loads a product and takes a row lock on it for the rest of the
// surrounding transaction.
func (s *Store) FindByID(ctx context.Context, id uint) (*Product, error) {
	var p Product
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("product", id)
		}
		return nil, fmt.Errorf("failed to load product %d: %w", id, err)
	}
	return &p, nil
}

// DecrementStock subtracts qty from stock only if enough is available.
func (s *Store) DecrementStock(ctx context.Context, id uint, qty int) error {
	result := s.db.WithContext(ctx).
		Model(&Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if result.Error != nil {
		return fmt.Errorf("failed to decrement stock for product %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// IncrementStock returns qty units to stock. Soft-deleted products are
// included so cancelled orders can always be restocked.
func (s *Store) IncrementStock(ctx context.Context, id uint, qty int) error {
	result := s.db.WithContext(ctx).
		Unscoped().
		Model(&Product{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty))
	if result.Error != nil {
		return fmt.Errorf("failed to restock product %d: %w", id, result.Error)
	}
	return nil
}

func (s *Store) Save(ctx context.Context, p *Product) error {
	if err := s.db.WithContext(ctx).Save(p).Error; err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}
	return nil
}

// UpdateRating stores a recomputed average and review count.
func (s *Store) UpdateRating(ctx context.Context, id uint, average float64, total int) error {
	err := s.db.WithContext(ctx).
		Model(&Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"average_rating": average,
			"total_reviews":  total,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update rating for product %d: %w", id, err)
	}
	return nil
}
